package index

import (
	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/preferences"
)

// preferenceList snapshots the preferences as stringified key/value pairs
func (i *Index) preferenceList() (ps []accessvoice.Preference) {
	// Lock
	i.mp.Lock()
	defer i.mp.Unlock()

	// Loop through keys
	for _, k := range preferences.Keys() {
		// Get value
		v, err := i.p.Value(k)
		if err != nil {
			astilog.Error(errors.Wrapf(err, "index: reading preference %s failed", k))
			continue
		}

		// Append
		ps = append(ps, accessvoice.Preference{
			Name:  k,
			Value: v,
		})
	}
	return
}

func (i *Index) setPreferenceFromMessage(m *accessvoice.Message) (err error) {
	// Parse payload
	var p accessvoice.Preference
	if p, err = accessvoice.ParseCmdPreferenceSetPayload(m); err != nil {
		err = errors.Wrap(err, "index: parsing payload failed")
		return
	}

	// Set preference
	if err = i.setPreference(p.Name, p.Value); err != nil {
		err = errors.Wrapf(err, "index: setting preference %s failed", p.Name)
		return
	}
	return
}

// setPreference updates a preference. Nothing is persisted nor broadcast when
// the value doesn't actually change.
func (i *Index) setPreference(key, value string) (err error) {
	// Update
	i.mp.Lock()
	changed, errS := i.p.Set(key, value)
	i.mp.Unlock()
	if errS != nil {
		err = errors.Wrapf(errS, "index: updating preference %s failed", key)
		return
	}

	// Unchanged value
	if !changed {
		return
	}

	// Persist
	if err = i.s.Set(key, value); err != nil {
		err = errors.Wrapf(err, "index: persisting preference %s failed", key)
		return
	}

	// Log
	astilog.Infof("index: preference %s is now %s", key, value)

	// Broadcast to workers and UIs
	p := accessvoice.Preference{
		Name:  key,
		Value: value,
	}
	for _, to := range []*accessvoice.Identifier{
		{Type: accessvoice.WorkerIdentifierType},
		{Type: accessvoice.UIIdentifierType},
	} {
		// Create message
		var m *accessvoice.Message
		if m, err = accessvoice.NewEventPreferenceUpdatedMessage(from, to, p); err != nil {
			err = errors.Wrap(err, "index: creating preference updated message failed")
			return
		}

		// Dispatch
		i.d.Dispatch(m)
	}
	return
}
