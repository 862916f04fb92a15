package preferences

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferencesSet(t *testing.T) {
	p := Defaults()

	// Unchanged value
	changed, err := p.Set(HighContrastKey, "false")
	assert.NoError(t, err)
	assert.False(t, changed)

	// Changed value
	changed, err = p.Set(HighContrastKey, "true")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, p.HighContrast)

	// Invalid values
	_, err = p.Set(ColorBlindModeKey, "invalid")
	assert.Error(t, err)
	_, err = p.Set(FontSizeKey, "big")
	assert.Error(t, err)
	_, err = p.Set("unknown", "true")
	assert.Error(t, err)

	// Valid enum
	changed, err = p.Set(ColorBlindModeKey, ColorBlindModeDeuteranopia)
	assert.NoError(t, err)
	assert.True(t, changed)
}

func TestStore(t *testing.T) {
	// Open store
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	assert.NoError(t, err)
	defer s.Close()

	// Absent key falls back to default
	p, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, Defaults(), p)

	// Save and reload
	p.HighContrast = true
	p.FontSizePx = 20
	p.VoiceReading = true
	assert.NoError(t, s.Save(p))
	o, err := s.Load()
	assert.NoError(t, err)
	assert.Equal(t, p, o)

	// Single key update
	assert.NoError(t, s.Set(LastRoleKey, "manager"))
	v, ok, err := s.Get(LastRoleKey)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "manager", v)
}
