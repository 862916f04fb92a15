package voice_command

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/announcer"
	"github.com/accesswork/go-accessvoice/abilities/sound_feedback"
	"github.com/accesswork/go-accessvoice/abilities/speech"
	"github.com/accesswork/go-accessvoice/recognition"
)

// Session states
const (
	errorState     = "error"
	idleState      = "idle"
	listeningState = "listening"
)

type RunnableOptions struct {
	// Names of the peer runnables
	Announcer     string `toml:"announcer"`
	SoundFeedback string `toml:"sound_feedback"`
	Speech        string `toml:"speech"`

	// How long the microphone probe may take
	ProbeTimeout time.Duration `toml:"probe_timeout"`
}

// Runnable interprets voice input into structured commands. At most one
// recognition session is in flight at a time.
type Runnable struct {
	*accessvoice.BaseOperatable
	*accessvoice.BaseRunnable
	ctx        context.Context
	m          *sync.Mutex // Locks ctx and state
	o          RunnableOptions
	prober     recognition.Prober
	recognizer recognition.Recognizer
	state      string
}

func NewRunnable(name string, recognizer recognition.Recognizer, prober recognition.Prober, o RunnableOptions) (r *Runnable) {
	// Default options
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 3 * time.Second
	}

	// Create runnable
	r = &Runnable{
		BaseOperatable: accessvoice.NewBaseOperatable(),
		m:              &sync.Mutex{},
		o:              o,
		prober:         prober,
		recognizer:     recognizer,
		state:          idleState,
	}
	r.BaseRunnable = accessvoice.NewBaseRunnable(accessvoice.BaseRunnableOptions{
		Metadata: accessvoice.Metadata{
			Description: "Interprets voice input into structured commands",
			Name:        name,
		},
		OnStart: r.onStart,
		OnStop:  r.onStop,
	})

	// Add routes
	r.AddRoute("/commands", http.MethodGet, r.handleCommands)
	r.AddRoute("/guide", http.MethodGet, r.handleGuide)
	r.AddRoute("/listen/start", http.MethodPost, r.handleListenStart)
	r.AddRoute("/listen/stop", http.MethodPost, r.handleListenStop)
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

// onStop releases the session scoped to this runnable
func (r *Runnable) onStop() {
	if r.recognizer != nil {
		r.recognizer.Abort()
	}
	r.m.Lock()
	r.state = idleState
	r.m.Unlock()
}

func (r *Runnable) OnMessage(m *accessvoice.Message) (err error) {
	switch m.Name {
	case listenStartMessage:
		r.startListening()
	case listenStopMessage:
		r.stopListening()
	}
	return
}

func (r *Runnable) handleListenStart(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	r.startListening()
}

func (r *Runnable) handleListenStop(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	r.stopListening()
}

func (r *Runnable) handleCommands(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	accessvoice.WriteHTTPData(rw, Commands())
}

func (r *Runnable) handleGuide(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	accessvoice.WriteHTTPData(rw, PermissionGuide())
}

// State returns the session state
func (r *Runnable) State() string {
	r.m.Lock()
	defer r.m.Unlock()
	return r.state
}

// startListening opens a recognition session. Starting while already
// listening is a no-op, there's never more than one session in flight.
func (r *Runnable) startListening() {
	// Check status
	if r.Status() != accessvoice.RunningStatus {
		return
	}

	// Recognition is not supported on this host
	if r.recognizer == nil {
		r.Dispatch(newMessage(r.from(), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, EventUnsupportedMessage))
		return
	}

	// Claim the session before starting it: the session may end synchronously
	// and OnEnd only resets a listening state
	r.m.Lock()
	if r.ctx == nil || r.state == listeningState {
		r.m.Unlock()
		return
	}
	r.state = listeningState
	ctx := r.ctx
	r.m.Unlock()

	// Check microphone permission before opening the session
	if r.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, r.o.ProbeTimeout)
		err := r.prober.Probe(probeCtx)
		cancel()
		if err != nil {
			astilog.Error(errors.Wrap(err, "voice_command: probing microphone failed"))
			r.onPermissionDenied()
			return
		}
	}

	// Start session
	if err := r.recognizer.Start(sessionHandler{r: r}); err != nil {
		astilog.Error(errors.Wrap(err, "voice_command: starting session failed"))
		r.m.Lock()
		if r.state == listeningState {
			r.state = idleState
		}
		r.m.Unlock()
		r.dispatchError(ErrorEvent{
			Code:  recognition.ErrorCodeAudioCapture,
			Retry: true,
		})
		return
	}
}

// stopListening ends the session. It's idempotent.
func (r *Runnable) stopListening() {
	if r.recognizer != nil {
		r.recognizer.Stop()
	}
}

// sessionHandler receives the lifecycle events of one recognition session
type sessionHandler struct {
	r *Runnable
}

func (h sessionHandler) OnStart() {
	h.r.playSound(sound_feedback.KindClick)
	h.r.Dispatch(newMessage(h.r.from(), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, EventListeningStartedMessage))
}

func (h sessionHandler) OnResult(transcript string, confidence float64, isFinal bool) {
	// Forward the transcript to the UI
	m, err := newPayloadMessage(h.r.from(), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, EventTranscriptMessage, Transcript{
		Confidence: confidence,
		Final:      isFinal,
		Text:       transcript,
	})
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_command: creating transcript message failed"))
	} else {
		h.r.Dispatch(m)
	}

	// Only final results are matched
	if isFinal {
		h.r.handleFinal(transcript)
	}
}

func (h sessionHandler) OnError(code string) {
	h.r.onRecognitionError(code)
}

func (h sessionHandler) OnEnd() {
	h.r.m.Lock()
	wasListening := h.r.state == listeningState
	if wasListening {
		h.r.state = idleState
	}
	h.r.m.Unlock()
	if wasListening {
		h.r.Dispatch(newMessage(h.r.from(), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, EventListeningStoppedMessage))
	}
}

// handleFinal matches a final transcript against the command table
func (r *Runnable) handleFinal(transcript string) {
	// No command matched
	c, ok := Match(transcript)
	if !ok {
		r.say("Sorry, I didn't understand \"" + transcript + "\". Say \"help\" to hear available commands.")
		r.playSound(sound_feedback.KindError)
		m, err := newPayloadMessage(r.from(), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, EventUnmatchedMessage, transcript)
		if err != nil {
			astilog.Error(errors.Wrap(err, "voice_command: creating unmatched message failed"))
			return
		}
		r.Dispatch(m)
		return
	}

	// Help is handled locally
	if c.Action == HelpAction {
		r.say(helpText())
		r.playSound(sound_feedback.KindNotification)
		return
	}

	// Confirm and forward to the host
	r.say("Executing: " + c.Description)
	r.playSound(sound_feedback.KindSuccess)
	m, err := newPayloadMessage(r.from(), accessvoice.NewIndexIdentifier(), EventMatchedMessage, Matched{
		Action:      c.Action,
		Description: c.Description,
		Transcript:  transcript,
	})
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_command: creating matched message failed"))
		return
	}
	r.Dispatch(m)
}

// onRecognitionError maps recognition error codes onto session outcomes
func (r *Runnable) onRecognitionError(code string) {
	switch code {
	case recognition.ErrorCodeAborted:
		// Programmatic aborts are expected, suppress them
	case recognition.ErrorCodeNotAllowed:
		r.onPermissionDenied()
	case recognition.ErrorCodeNoSpeech, recognition.ErrorCodeNetwork:
		// Transient, the user may retry right away
		r.dispatchError(ErrorEvent{
			Code:  code,
			Retry: true,
		})
	default:
		r.dispatchError(ErrorEvent{
			Code:  code,
			Retry: true,
		})
	}
}

// onPermissionDenied parks the session in the error state until the user
// fixes the microphone permission. No automatic retry.
func (r *Runnable) onPermissionDenied() {
	// Update state
	r.m.Lock()
	r.state = errorState
	r.m.Unlock()

	// Report with the remediation guide
	g := PermissionGuide()
	r.dispatchError(ErrorEvent{
		Code:  recognition.ErrorCodeNotAllowed,
		Fatal: true,
		Guide: &g,
	})

	// Announce assertively
	r.announce("Microphone access is blocked. Voice commands are unavailable until the permission is restored.")

	// Play the error cue
	r.playSound(sound_feedback.KindError)
}

func (r *Runnable) dispatchError(e ErrorEvent) {
	m, err := newPayloadMessage(r.from(), &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, EventErrorMessage, e)
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_command: creating error message failed"))
		return
	}
	r.Dispatch(m)
}

func (r *Runnable) say(text string) {
	// No speech runnable
	if r.o.Speech == "" {
		return
	}

	// Create message
	m, err := speech.NewSayMessage(r.from(), accessvoice.NewRunnableIdentifier(r.o.Speech), speech.Say{Text: text})
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_command: creating say message failed"))
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
		astilog.Error(errors.Wrap(err, "voice_command: creating play message failed"))
		return
	}

	// Dispatch
	r.Dispatch(m)
}

func (r *Runnable) announce(text string) {
	// No announcer runnable
	if r.o.Announcer == "" {
		return
	}

	// Create message
	m, err := announcer.NewAnnounceMessage(r.from(), accessvoice.NewRunnableIdentifier(r.o.Announcer), announcer.Announcement{
		Priority: announcer.AssertivePriority,
		Text:     text,
	})
	if err != nil {
		astilog.Error(errors.Wrap(err, "voice_command: creating announce message failed"))
		return
	}

	// Dispatch
	r.Dispatch(m)
}

func (r *Runnable) from() accessvoice.Identifier {
	return *accessvoice.NewRunnableIdentifier(r.Metadata().Name)
}
