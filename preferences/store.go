package preferences

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store persists preferences in a sqlite key/value table. Values are read
// once at startup and written on every change.
type Store struct {
	db *sql.DB
}

// Open opens the store and runs migrations
func Open(path string) (s *Store, err error) {
	// Open db
	var db *sql.DB
	if db, err = sql.Open("sqlite", path); err != nil {
		err = errors.Wrapf(err, "preferences: opening %s failed", path)
		return
	}

	// Create store
	s = &Store{db: db}

	// Migrate
	if err = s.migrate(); err != nil {
		err = errors.Wrap(err, "preferences: migrating failed")
		return
	}
	return
}

// Close implements the io.Closer interface
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() (err error) {
	if _, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS prefs (k TEXT PRIMARY KEY, v TEXT NOT NULL);`); err != nil {
		err = errors.Wrap(err, "preferences: creating prefs table failed")
		return
	}
	return
}

// Get returns the stringified value stored for a key
func (s *Store) Get(key string) (value string, ok bool, err error) {
	if err = s.db.QueryRow(`SELECT v FROM prefs WHERE k = ?`, key).Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			err = nil
			return
		}
		err = errors.Wrapf(err, "preferences: getting %s failed", key)
		return
	}
	ok = true
	return
}

// Set stores the stringified value for a key
func (s *Store) Set(key, value string) (err error) {
	if _, err = s.db.Exec(`INSERT INTO prefs (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value); err != nil {
		err = errors.Wrapf(err, "preferences: setting %s failed", key)
		return
	}
	return
}

// Load reads all preferences, falling back to defaults for absent keys
func (s *Store) Load() (p Preferences, err error) {
	// Start from defaults
	p = Defaults()

	// Loop through keys
	for _, k := range Keys() {
		// Get value
		var v string
		var ok bool
		if v, ok, err = s.Get(k); err != nil {
			err = errors.Wrapf(err, "preferences: loading %s failed", k)
			return
		}

		// Key is absent
		if !ok {
			continue
		}

		// Apply value
		if _, err = p.Set(k, v); err != nil {
			err = errors.Wrapf(err, "preferences: applying %s failed", k)
			return
		}
	}
	return
}

// Save writes all preferences
func (s *Store) Save(p Preferences) (err error) {
	// Loop through keys
	for _, k := range Keys() {
		// Get value
		var v string
		if v, err = p.Value(k); err != nil {
			err = errors.Wrapf(err, "preferences: reading %s failed", k)
			return
		}

		// Set value
		if err = s.Set(k, v); err != nil {
			err = errors.Wrapf(err, "preferences: saving %s failed", k)
			return
		}
	}
	return
}
