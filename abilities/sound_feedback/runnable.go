package sound_feedback

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/preferences"
)

// Message names
const (
	playMessage = "sound_feedback.play"
)

type RunnableOptions struct {
	// Whether sound effects start out enabled. Updated afterwards through
	// preference events.
	Enabled bool
}

// Runnable plays short procedural cues. While disabled the output device is
// never opened.
type Runnable struct {
	*accessvoice.BaseOperatable
	*accessvoice.BaseRunnable
	enabled    bool
	m          *sync.Mutex // Locks enabled and player
	player     Player
	playerFunc PlayerFunc
}

func NewRunnable(name string, playerFunc PlayerFunc, o RunnableOptions) (r *Runnable) {
	// Create runnable
	r = &Runnable{
		BaseOperatable: accessvoice.NewBaseOperatable(),
		enabled:        o.Enabled,
		m:              &sync.Mutex{},
		playerFunc:     playerFunc,
	}
	r.BaseRunnable = accessvoice.NewBaseRunnable(accessvoice.BaseRunnableOptions{
		Metadata: accessvoice.Metadata{
			Description: "Plays short procedural audio cues for UI feedback",
			Name:        name,
		},
		OnStop: r.releasePlayer,
	})

	// Add routes
	r.AddRoute("/play", http.MethodPost, r.handlePlay)
	r.AddRoute("/references", http.MethodGet, r.handleReferences)
	r.AddRoute("/render/:kind", http.MethodGet, r.handleRender)
	return
}

func NewPlayMessage(from accessvoice.Identifier, to *accessvoice.Identifier, kind string) (m *accessvoice.Message, err error) {
	// Create message
	m = accessvoice.NewMessage()
	m.From = from
	m.Name = playMessage
	m.To = to

	// Marshal payload
	if m.Payload, err = json.Marshal(kind); err != nil {
		err = errors.Wrap(err, "sound_feedback: marshaling payload failed")
		return
	}
	return
}

func parsePlayPayload(m *accessvoice.Message) (kind string, err error) {
	if err = json.Unmarshal(m.Payload, &kind); err != nil {
		err = errors.Wrap(err, "sound_feedback: unmarshaling failed")
	}
	return
}

func (r *Runnable) OnMessage(m *accessvoice.Message) (err error) {
	switch m.Name {
	case playMessage:
		if err = r.onPlay(m); err != nil {
			err = errors.Wrap(err, "sound_feedback: on play failed")
			return
		}
	case accessvoice.EventPreferenceUpdatedMessage:
		if err = r.onPreferenceUpdated(m); err != nil {
			err = errors.Wrap(err, "sound_feedback: on preference updated failed")
			return
		}
	}
	return
}

func (r *Runnable) onPlay(m *accessvoice.Message) (err error) {
	// Parse payload
	var kind string
	if kind, err = parsePlayPayload(m); err != nil {
		err = errors.Wrap(err, "sound_feedback: parsing payload failed")
		return
	}

	// Play
	r.play(kind)
	return
}

func (r *Runnable) onPreferenceUpdated(m *accessvoice.Message) (err error) {
	// Parse payload
	var p accessvoice.Preference
	if p, err = accessvoice.ParseEventPreferenceUpdatedPayload(m); err != nil {
		err = errors.Wrap(err, "sound_feedback: parsing payload failed")
		return
	}

	// Not the sound effects preference
	if p.Name != preferences.SoundEffectsKey {
		return
	}

	// Parse value
	var enabled bool
	if enabled, err = strconv.ParseBool(p.Value); err != nil {
		err = errors.Wrap(err, "sound_feedback: parsing value failed")
		return
	}

	// Update
	r.setEnabled(enabled)
	return
}

// Enabled reports whether cues are played
func (r *Runnable) Enabled() bool {
	r.m.Lock()
	defer r.m.Unlock()
	return r.enabled
}

func (r *Runnable) setEnabled(enabled bool) {
	r.m.Lock()
	r.enabled = enabled
	r.m.Unlock()

	// Release the output device as soon as cues are disabled
	if !enabled {
		r.releasePlayer()
	}
}

func (r *Runnable) handlePlay(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	// Unmarshal
	var kind string
	if err := json.NewDecoder(req.Body).Decode(&kind); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "sound_feedback: unmarshaling failed"))
		return
	}

	// Play
	r.play(kind)
}

// play renders and plays a cue. Disabled means a strict no-op: the player is
// not even constructed.
func (r *Runnable) play(kind string) {
	// Check status
	if r.Status() != accessvoice.RunningStatus {
		return
	}

	// Get player
	r.m.Lock()
	if !r.enabled {
		r.m.Unlock()
		return
	}
	if r.player == nil {
		if r.playerFunc == nil {
			r.m.Unlock()
			return
		}
		p, err := r.playerFunc()
		if err != nil {
			r.m.Unlock()
			astilog.Error(errors.Wrap(err, "sound_feedback: creating player failed"))
			return
		}
		r.player = p
	}
	p := r.player
	r.m.Unlock()

	// Render
	samples := Render(RecipeFor(kind), p.SampleRate())

	// Play in a goroutine, cues are independent of their trigger
	go func() {
		if err := p.Play(samples); err != nil {
			astilog.Error(errors.Wrapf(err, "sound_feedback: playing %s failed", kind))
		}
	}()
}

func (r *Runnable) releasePlayer() {
	r.m.Lock()
	defer r.m.Unlock()
	if r.player == nil {
		return
	}
	if err := r.player.Close(); err != nil {
		astilog.Error(errors.Wrap(err, "sound_feedback: closing player failed"))
	}
	r.player = nil
}
