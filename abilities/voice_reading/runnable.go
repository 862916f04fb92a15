package voice_reading

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/sound_feedback"
	"github.com/accesswork/go-accessvoice/abilities/speech"
	"github.com/accesswork/go-accessvoice/preferences"
)

// Message names
const (
	announceMessage     = "voice_reading.announce"
	readMessage         = "voice_reading.read"
	toggleMessage       = "voice_reading.toggle"
	EventToggledMessage = "event.voice_reading.toggled"
)

// sentences maps application event keys to spoken sentences. Unknown keys
// are read verbatim.
var sentences = map[string]string{
	"darkMode:off":     "Dark mode disabled",
	"darkMode:on":      "Dark mode enabled",
	"delete":           "Item deleted",
	"error":            "An error occurred",
	"highContrast:off": "High contrast mode disabled",
	"highContrast:on":  "High contrast mode enabled",
	"login":            "Logged in successfully",
	"logout":           "Logged out",
	"message:sent":     "Message sent",
	"save":             "Changes saved",
	"success":          "Operation successful",
	"task:completed":   "Task completed",
	"task:created":     "New task created",
}

type RunnableOptions struct {
	// Whether voice reading starts out enabled, from the persisted
	// preference. Updated afterwards through preference events.
	Enabled bool

	// Names of the sound feedback and speech runnables
	SoundFeedback string `toml:"sound_feedback"`
	Speech        string `toml:"speech"`
}

// Runnable turns application events into spoken sentences when voice reading
// is enabled
type Runnable struct {
	*accessvoice.BaseOperatable
	*accessvoice.BaseRunnable
	enabled bool
	m       *sync.Mutex // Locks enabled
	o       RunnableOptions
}

func NewRunnable(name string, o RunnableOptions) (r *Runnable) {
	// Create runnable
	r = &Runnable{
		BaseOperatable: accessvoice.NewBaseOperatable(),
		enabled:        o.Enabled,
		m:              &sync.Mutex{},
		o:              o,
	}
	r.BaseRunnable = accessvoice.NewBaseRunnable(accessvoice.BaseRunnableOptions{
		Metadata: accessvoice.Metadata{
			Description: "Reads application events out loud when voice reading is enabled",
			Name:        name,
		},
	})

	// Add routes
	r.AddRoute("/announce", http.MethodPost, r.handleAnnounce)
	r.AddRoute("/read", http.MethodPost, r.handleRead)
	r.AddRoute("/toggle", http.MethodPost, r.handleToggle)
	return
}

func NewAnnounceMessage(from accessvoice.Identifier, to *accessvoice.Identifier, eventKey string) (m *accessvoice.Message, err error) {
	// Create message
	m = accessvoice.NewMessage()
	m.From = from
	m.Name = announceMessage
	m.To = to

	// Marshal payload
	if m.Payload, err = json.Marshal(eventKey); err != nil {
		err = errors.Wrap(err, "voice_reading: marshaling payload failed")
		return
	}
	return
}

func NewReadMessage(from accessvoice.Identifier, to *accessvoice.Identifier, text string) (m *accessvoice.Message, err error) {
	// Create message
	m = accessvoice.NewMessage()
	m.From = from
	m.Name = readMessage
	m.To = to

	// Marshal payload
	if m.Payload, err = json.Marshal(text); err != nil {
		err = errors.Wrap(err, "voice_reading: marshaling payload failed")
		return
	}
	return
}

func NewToggleMessage(from accessvoice.Identifier, to *accessvoice.Identifier) *accessvoice.Message {
	m := accessvoice.NewMessage()
	m.From = from
	m.Name = toggleMessage
	m.To = to
	return m
}

func parseStringPayload(m *accessvoice.Message) (s string, err error) {
	if err = json.Unmarshal(m.Payload, &s); err != nil {
		err = errors.Wrap(err, "voice_reading: unmarshaling failed")
	}
	return
}

func (r *Runnable) OnMessage(m *accessvoice.Message) (err error) {
	switch m.Name {
	case announceMessage:
		var k string
		if k, err = parseStringPayload(m); err != nil {
			err = errors.Wrap(err, "voice_reading: parsing payload failed")
			return
		}
		r.announceAction(k)
	case readMessage:
		var s string
		if s, err = parseStringPayload(m); err != nil {
			err = errors.Wrap(err, "voice_reading: parsing payload failed")
			return
		}
		r.readText(s)
	case toggleMessage:
		r.toggle()
	case accessvoice.EventPreferenceUpdatedMessage:
		if err = r.onPreferenceUpdated(m); err != nil {
			err = errors.Wrap(err, "voice_reading: on preference updated failed")
			return
		}
	}
	return
}

func (r *Runnable) onPreferenceUpdated(m *accessvoice.Message) (err error) {
	// Parse payload
	var p accessvoice.Preference
	if p, err = accessvoice.ParseEventPreferenceUpdatedPayload(m); err != nil {
		err = errors.Wrap(err, "voice_reading: parsing payload failed")
		return
	}

	switch p.Name {
	case preferences.VoiceReadingKey:
		// Parse value
		var enabled bool
		if enabled, err = strconv.ParseBool(p.Value); err != nil {
			err = errors.Wrap(err, "voice_reading: parsing value failed")
			return
		}

		// Update
		r.m.Lock()
		r.enabled = enabled
		r.m.Unlock()
	case preferences.DarkModeKey, preferences.HighContrastKey:
		// Parse value
		var on bool
		if on, err = strconv.ParseBool(p.Value); err != nil {
			err = errors.Wrap(err, "voice_reading: parsing value failed")
			return
		}

		// Accompany the toggle with its cue and sentence
		r.playSound(sound_feedback.KindToggle)
		if on {
			r.announceAction(p.Name + ":on")
		} else {
			r.announceAction(p.Name + ":off")
		}
	}
	return
}

func (r *Runnable) handleToggle(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	r.toggle()
}

func (r *Runnable) handleAnnounce(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var k string
	if err := json.NewDecoder(req.Body).Decode(&k); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "voice_reading: unmarshaling failed"))
		return
	}
	r.announceAction(k)
}

func (r *Runnable) handleRead(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var s string
	if err := json.NewDecoder(req.Body).Decode(&s); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "voice_reading: unmarshaling failed"))
		return
	}
	r.readText(s)
}

// Enabled reports whether events are read out loud
func (r *Runnable) Enabled() bool {
	r.m.Lock()
	defer r.m.Unlock()
	return r.enabled
}

// toggle flips the enabled flag, persists it and gives immediate feedback
func (r *Runnable) toggle() {
	// Check status
	if r.Status() != accessvoice.RunningStatus {
		return
	}

	// Flip
	r.m.Lock()
	r.enabled = !r.enabled
	enabled := r.enabled
	r.m.Unlock()

	// Persist through the index
	r.dispatchPreference(enabled)

	// Confirm with the success cue out loud, or play the toggle cue and cut
	// the in-flight speech when disabling
	if enabled {
		r.playSound(sound_feedback.KindSuccess)
		r.say("Voice reading enabled")
	} else {
		r.playSound(sound_feedback.KindToggle)
		if r.o.Speech != "" {
			r.Dispatch(speech.NewStopMessage(r.from(), accessvoice.NewRunnableIdentifier(r.o.Speech)))
		}
	}

	// Signal toggle
	r.dispatchToggled(enabled)
}

// announceAction reads the sentence of an application event key
func (r *Runnable) announceAction(eventKey string) {
	s, ok := sentences[eventKey]
	if !ok {
		s = eventKey
	}
	r.readText(s)
}

// readText reads text out loud when voice reading is enabled
func (r *Runnable) readText(text string) {
	// Check status
	if r.Status() != accessvoice.RunningStatus {
		return
	}

	// Voice reading is disabled
	if !r.Enabled() {
		return
	}
	r.say(text)
}

func (r *Runnable) say(text string) {
	// Speech is not available, drop silently
	if r.o.Speech == "" {
		astilog.Debugf("voice_reading: no speech runnable, dropping %q", text)
		return
	}

	// Create message
	m, err := speech.NewSayMessage(r.from(), accessvoice.NewRunnableIdentifier(r.o.Speech), speech.Say{Text: text})
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_reading: creating say message failed"))
		return
	}

	// Dispatch
	r.Dispatch(m)
}

func (r *Runnable) playSound(kind string) {
	// No sound feedback runnable
	if r.o.SoundFeedback == "" {
		return
	}

	// Create message
	m, err := sound_feedback.NewPlayMessage(r.from(), accessvoice.NewRunnableIdentifier(r.o.SoundFeedback), kind)
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_reading: creating play message failed"))
		return
	}

	// Dispatch
	r.Dispatch(m)
}

func (r *Runnable) dispatchPreference(enabled bool) {
	m, err := accessvoice.NewCmdPreferenceSetMessage(r.from(), accessvoice.NewIndexIdentifier(), accessvoice.Preference{
		Name:  preferences.VoiceReadingKey,
		Value: strconv.FormatBool(enabled),
	})
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_reading: creating preference message failed"))
		return
	}
	r.Dispatch(m)
}

func (r *Runnable) dispatchToggled(enabled bool) {
	// Create message
	m := accessvoice.NewMessage()
	m.From = r.from()
	m.Name = EventToggledMessage
	m.To = &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}

	// Marshal payload
	var err error
	if m.Payload, err = json.Marshal(enabled); err != nil {
		astilog.Error(errors.Wrap(err, "voice_reading: marshaling payload failed"))
		return
	}

	// Dispatch
	r.Dispatch(m)
}

func (r *Runnable) from() accessvoice.Identifier {
	return *accessvoice.NewRunnableIdentifier(r.Metadata().Name)
}
