package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/announcer"
	"github.com/accesswork/go-accessvoice/abilities/speech/speaker"
)

// Speaker synthesizes one utterance. Say must return promptly once the
// context is cancelled.
type Speaker interface {
	Say(ctx context.Context, text string, o speaker.SayOptions) error
}

// PauseResumer is implemented by speakers that can suspend an in-flight
// utterance
type PauseResumer interface {
	Pause() error
	Resume() error
}

type RunnableOptions struct {
	// Name of the announcer runnable that receives a polite announcement
	// mirroring every utterance
	Announcer string `toml:"announcer"`
}

// Runnable serializes speech requests with last-write-wins semantics: a new
// utterance always supersedes the in-flight one, audio is never interleaved.
type Runnable struct {
	*accessvoice.BaseOperatable
	*accessvoice.BaseRunnable
	cancel   context.CancelFunc
	ctx      context.Context
	gen      int
	m        *sync.Mutex // Locks cancel, ctx, gen and speaking
	o        RunnableOptions
	s        Speaker
	speaking bool
}

func NewRunnable(name string, s Speaker, o RunnableOptions) (r *Runnable) {
	// Create runnable
	r = &Runnable{
		BaseOperatable: accessvoice.NewBaseOperatable(),
		m:              &sync.Mutex{},
		o:              o,
		s:              s,
	}
	r.BaseRunnable = accessvoice.NewBaseRunnable(accessvoice.BaseRunnableOptions{
		Metadata: accessvoice.Metadata{
			Description: "Converts text into spoken voice output using a form of speech synthesis",
			Name:        name,
		},
		OnStart: r.onStart,
		OnStop:  r.stop,
	})

	// Add routes
	r.AddRoute("/pause", http.MethodPost, r.handlePause)
	r.AddRoute("/resume", http.MethodPost, r.handleResume)
	r.AddRoute("/say", http.MethodPost, r.handleSay)
	r.AddRoute("/stop", http.MethodPost, r.handleStop)
	return
}

func (r *Runnable) onStart(ctx context.Context) (err error) {
	// Store context
	r.m.Lock()
	r.ctx = ctx
	r.m.Unlock()

	// Wait for context to be done
	<-ctx.Done()
	return
}

func (r *Runnable) OnMessage(m *accessvoice.Message) (err error) {
	switch m.Name {
	case pauseMessage:
		r.pause()
	case resumeMessage:
		r.resume()
	case sayMessage:
		if err = r.onSay(m); err != nil {
			err = errors.Wrap(err, "speech: on say failed")
			return
		}
	case stopMessage:
		r.stop()
	}
	return
}

func (r *Runnable) onSay(m *accessvoice.Message) (err error) {
	// Parse payload
	var s Say
	if s, err = parseSayPayload(m); err != nil {
		err = errors.Wrap(err, "speech: parsing payload failed")
		return
	}

	// Say
	r.say(s)
	return
}

func (r *Runnable) handleSay(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	// Unmarshal
	var s Say
	if err := json.NewDecoder(req.Body).Decode(&s); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "speech: unmarshaling failed"))
		return
	}

	// Say
	r.say(s)
}

func (r *Runnable) handleStop(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	r.stop()
}

func (r *Runnable) handlePause(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	r.pause()
}

func (r *Runnable) handleResume(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	r.resume()
}

// IsSpeaking reports whether an utterance is in flight
func (r *Runnable) IsSpeaking() bool {
	r.m.Lock()
	defer r.m.Unlock()
	return r.speaking
}

func (r *Runnable) say(s Say) {
	// Check status
	if r.Status() != accessvoice.RunningStatus {
		return
	}

	// Synthesis is not supported on this host
	if r.s == nil {
		astilog.Debugf("speech: no speaker available, dropping %q", s.Text)
		return
	}

	// Nothing to say
	if s.Text == "" {
		return
	}

	// Lock
	r.m.Lock()

	// The status flips to running slightly before the context is stored
	if r.ctx == nil {
		r.m.Unlock()
		return
	}

	// Cancel the in-flight utterance, the last request wins
	if r.cancel != nil {
		r.cancel()
	}

	// Create utterance context
	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.speaking = true

	// Unlock
	r.m.Unlock()

	// Signal start
	r.dispatchEvent(EventStartedMessage, s.Text)

	// Mirror the utterance to the screen reader live region
	r.announce(s.Text)

	// Say in a goroutine so that new requests keep being processed
	go func() {
		// Say
		if err := r.s.Say(ctx, s.Text, s.Options); err != nil && errors.Cause(err) != context.Canceled {
			astilog.Error(errors.Wrap(err, "speech: saying failed"))
		}

		// Reset state unless a newer utterance superseded this one
		r.m.Lock()
		last := gen == r.gen
		if last {
			r.speaking = false
			r.cancel = nil
		}
		r.m.Unlock()

		// Signal end
		if last {
			r.dispatchEvent(EventEndedMessage, s.Text)
		}
	}()
}

// stop cancels the in-flight utterance. It's idempotent.
func (r *Runnable) stop() {
	r.m.Lock()
	defer r.m.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Runnable) pause() {
	if p, ok := r.s.(PauseResumer); ok {
		if err := p.Pause(); err != nil {
			astilog.Error(errors.Wrap(err, "speech: pausing failed"))
		}
	}
}

func (r *Runnable) resume() {
	if p, ok := r.s.(PauseResumer); ok {
		if err := p.Resume(); err != nil {
			astilog.Error(errors.Wrap(err, "speech: resuming failed"))
		}
	}
}

func (r *Runnable) dispatchEvent(name, text string) {
	m, err := newEventMessage(*accessvoice.NewRunnableIdentifier(r.Metadata().Name), name, text)
	if err != nil {
		astilog.Error(errors.Wrap(err, "speech: creating event message failed"))
		return
	}
	r.Dispatch(m)
}

func (r *Runnable) announce(text string) {
	// No announcer configured
	if r.o.Announcer == "" {
		return
	}

	// Create message
	m, err := announcer.NewAnnounceMessage(*accessvoice.NewRunnableIdentifier(r.Metadata().Name), accessvoice.NewRunnableIdentifier(r.o.Announcer), announcer.Announcement{
		Priority: announcer.PolitePriority,
		Text:     text,
	})
	if err != nil {
		astilog.Error(errors.Wrap(err, "speech: creating announce message failed"))
		return
	}

	// Dispatch
	r.Dispatch(m)
}
