package index

import (
	"fmt"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/voice_command"
	"github.com/accesswork/go-accessvoice/preferences"
)

// navigationTargets maps action targets to UI routes. Legacy targets are
// kept as aliases of the routes that replaced them.
var navigationTargets = map[string]string{
	"accessibility": "settings",
	"dashboard":     "dashboard",
	"messages":      "communications",
	"notifications": "communications",
	"settings":      "settings",
	"tasks":         "tasks",
}

// handleCommand reacts to matched voice commands: navigations are forwarded
// to the UI, toggles go through the preferences
func (i *Index) handleCommand(m *accessvoice.Message) (err error) {
	// Parse payload
	var c voice_command.Matched
	if c, err = voice_command.ParseEventMatchedPayload(m); err != nil {
		err = errors.Wrap(err, "index: parsing payload failed")
		return
	}

	// Log
	astilog.Infof("index: handling %s command", c.Action)

	// Parse action
	a := accessvoice.ParseAction(c.Action)

	// Switch on domain
	switch a.Domain {
	case accessvoice.NavigateActionDomain:
		if err = i.navigate(a.Target); err != nil {
			err = errors.Wrapf(err, "index: navigating to %s failed", a.Target)
			return
		}
	case accessvoice.ToggleActionDomain:
		if err = i.toggle(a.Target, a.Value); err != nil {
			err = errors.Wrapf(err, "index: toggling %s failed", a.Target)
			return
		}
	default:
		astilog.Debugf("index: no handling for %s command", c.Action)
	}
	return
}

func (i *Index) navigate(target string) (err error) {
	// Resolve target
	t, ok := navigationTargets[target]
	if !ok {
		err = fmt.Errorf("index: unknown navigation target %s", target)
		return
	}

	// Create message
	var m *accessvoice.Message
	if m, err = accessvoice.NewEventUINavigateMessage(from, &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, t); err != nil {
		err = errors.Wrap(err, "index: creating navigate message failed")
		return
	}

	// Dispatch
	i.d.Dispatch(m)
	return
}

func (i *Index) toggle(target, value string) (err error) {
	// Resolve preference key
	var key string
	switch target {
	case "darkMode":
		key = preferences.DarkModeKey
	case "highContrast":
		key = preferences.HighContrastKey
	default:
		err = fmt.Errorf("index: unknown toggle target %s", target)
		return
	}

	// Resolve value
	var v string
	switch value {
	case "on":
		v = "true"
	case "off":
		v = "false"
	default:
		err = fmt.Errorf("index: unknown toggle value %s", value)
		return
	}

	// Set preference
	if err = i.setPreference(key, v); err != nil {
		err = errors.Wrapf(err, "index: setting preference %s failed", key)
		return
	}
	return
}
