package index

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/preferences"
)

func newTestIndex(t *testing.T) *Index {
	i, err := New(Options{PreferencesPath: filepath.Join(t.TempDir(), "prefs.db")})
	assert.NoError(t, err)
	return i
}

func waitPreference(t *testing.T, ch chan accessvoice.Preference) accessvoice.Preference {
	select {
	case p := <-ch:
		return p
	case <-time.After(time.Second):
		t.Fatal("no preference event")
	}
	return accessvoice.Preference{}
}

func TestToggleCommand(t *testing.T) {
	// Create index
	i := newTestIndex(t)
	defer i.Close()

	// Capture preference events sent to workers
	ch := make(chan accessvoice.Preference, 4)
	i.On(accessvoice.DispatchConditions{
		Name: accessvoice.StrPtr(accessvoice.EventPreferenceUpdatedMessage),
		To:   &accessvoice.Identifier{Type: accessvoice.WorkerIdentifierType},
	}, func(m *accessvoice.Message) (err error) {
		var p accessvoice.Preference
		if p, err = accessvoice.ParseEventPreferenceUpdatedPayload(m); err != nil {
			return
		}
		ch <- p
		return
	})

	// Toggle broadcasts the updated preference
	assert.NoError(t, i.toggle("highContrast", "on"))
	p := waitPreference(t, ch)
	assert.Equal(t, preferences.HighContrastKey, p.Name)
	assert.Equal(t, "true", p.Value)

	// Toggle persists the preference
	v, ok, err := i.s.Get(preferences.HighContrastKey)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	// Unchanged value is neither persisted nor broadcast
	assert.NoError(t, i.toggle("highContrast", "on"))
	select {
	case p := <-ch:
		t.Fatalf("unexpected preference event %+v", p)
	case <-time.After(100 * time.Millisecond):
	}

	// Unknown targets and values are rejected
	assert.Error(t, i.toggle("fontSize", "on"))
	assert.Error(t, i.toggle("highContrast", "maybe"))
}

func TestNavigateCommand(t *testing.T) {
	// Create index
	i := newTestIndex(t)
	defer i.Close()

	// Capture navigate events
	ch := make(chan string, 4)
	i.On(accessvoice.DispatchConditions{Name: accessvoice.StrPtr(accessvoice.EventUINavigateMessage)}, func(m *accessvoice.Message) (err error) {
		var target string
		if target, err = accessvoice.ParseEventUINavigatePayload(m); err != nil {
			return
		}
		ch <- target
		return
	})

	// Known target
	assert.NoError(t, i.navigate("tasks"))
	select {
	case target := <-ch:
		assert.Equal(t, "tasks", target)
	case <-time.After(time.Second):
		t.Fatal("no navigate event")
	}

	// Legacy target maps to its replacement
	assert.NoError(t, i.navigate("messages"))
	select {
	case target := <-ch:
		assert.Equal(t, "communications", target)
	case <-time.After(time.Second):
		t.Fatal("no navigate event")
	}

	// The accessibility target maps to the settings page
	assert.NoError(t, i.navigate("accessibility"))
	select {
	case target := <-ch:
		assert.Equal(t, "settings", target)
	case <-time.After(time.Second):
		t.Fatal("no navigate event")
	}

	// Unknown target
	assert.Error(t, i.navigate("somewhere"))
}

func TestPreferenceList(t *testing.T) {
	// Create index
	i := newTestIndex(t)
	defer i.Close()

	// Defaults are exposed as stringified key/value pairs
	ps := i.preferenceList()
	assert.Len(t, ps, len(preferences.Keys()))
	vs := make(map[string]string)
	for _, p := range ps {
		vs[p.Name] = p.Value
	}
	assert.Equal(t, "false", vs[preferences.HighContrastKey])
	assert.Equal(t, "true", vs[preferences.SoundEffectsKey])
	assert.Equal(t, "16", vs[preferences.FontSizeKey])
}
