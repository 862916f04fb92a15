package voice_command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/recognition"
)

type mockRecognizer struct {
	h      recognition.Handler
	m      sync.Mutex
	starts int
}

func (r *mockRecognizer) Start(h recognition.Handler) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.starts++
	r.h = h
	return nil
}

func (r *mockRecognizer) Stop() {}

func (r *mockRecognizer) Abort() {}

func (r *mockRecognizer) startCount() int {
	r.m.Lock()
	defer r.m.Unlock()
	return r.starts
}

type mockProber struct {
	err error
}

func (p *mockProber) Probe(ctx context.Context) error { return p.err }

type recorder struct {
	m  sync.Mutex
	ms []*accessvoice.Message
}

func (r *recorder) dispatch(m *accessvoice.Message) {
	r.m.Lock()
	defer r.m.Unlock()
	r.ms = append(r.ms, m)
}

func (r *recorder) byName(name string) (ms []*accessvoice.Message) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, m := range r.ms {
		if m.Name == name {
			ms = append(ms, m)
		}
	}
	return
}

func newTestRunnable(rec *recorder, rz recognition.Recognizer, p recognition.Prober) *Runnable {
	r := NewRunnable("Voice command", rz, p, RunnableOptions{
		Announcer:     "Announcer",
		SoundFeedback: "Sound",
		Speech:        "Speech",
	})
	r.SetDispatchFunc(rec.dispatch)
	return r
}

func startRunnable(t *testing.T, r *Runnable) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go r.Start(ctx)
	for idx := 0; idx < 100 && r.Status() != accessvoice.RunningStatus; idx++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, accessvoice.RunningStatus, r.Status())
	return cancel
}

func TestMatchedCommand(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	rz := &mockRecognizer{}
	r := newTestRunnable(rec, rz, &mockProber{})
	cancel := startRunnable(t, r)
	defer cancel()

	// Start listening
	r.startListening()
	assert.Equal(t, listeningState, r.State())
	assert.Equal(t, 1, rz.startCount())

	// A final transcript matches a command
	rz.h.OnResult("show tasks please", 1, true)

	// The matched event goes to the index
	ms := rec.byName(EventMatchedMessage)
	assert.Len(t, ms, 1)
	assert.Equal(t, accessvoice.IndexIdentifierType, ms[0].To.Type)
	c, err := ParseEventMatchedPayload(ms[0])
	assert.NoError(t, err)
	assert.Equal(t, "navigate:tasks", c.Action)
	assert.Equal(t, "show tasks please", c.Transcript)

	// The confirmation is spoken
	says := rec.byName("speech.say")
	assert.Len(t, says, 1)
	assert.Contains(t, string(says[0].Payload), "Executing: Navigate to tasks page")

	// The success cue is played
	plays := rec.byName("sound_feedback.play")
	assert.Len(t, plays, 1)
	assert.Contains(t, string(plays[0].Payload), "success")
}

func TestUnmatchedCommand(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	rz := &mockRecognizer{}
	r := newTestRunnable(rec, rz, &mockProber{})
	cancel := startRunnable(t, r)
	defer cancel()

	// An unknown transcript is rejected
	r.startListening()
	rz.h.OnResult("banana", 1, true)

	// No command event, a rejection suggesting help is spoken
	assert.Empty(t, rec.byName(EventMatchedMessage))
	assert.Len(t, rec.byName(EventUnmatchedMessage), 1)
	says := rec.byName("speech.say")
	assert.Len(t, says, 1)
	assert.Contains(t, string(says[0].Payload), "banana")
	assert.Contains(t, string(says[0].Payload), "help")
}

func TestDoubleStartSingleSession(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	rz := &mockRecognizer{}
	r := newTestRunnable(rec, rz, &mockProber{})
	cancel := startRunnable(t, r)
	defer cancel()

	// The second start is a no-op
	r.startListening()
	r.startListening()
	assert.Equal(t, 1, rz.startCount())
}

func TestPermissionDenied(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	rz := &mockRecognizer{}
	r := newTestRunnable(rec, rz, &mockProber{err: errors.New("denied")})
	cancel := startRunnable(t, r)
	defer cancel()

	// The probe fails, no session is opened
	r.startListening()
	assert.Equal(t, 0, rz.startCount())
	assert.Equal(t, errorState, r.State())

	// The error event carries the remediation guide
	ms := rec.byName(EventErrorMessage)
	assert.Len(t, ms, 1)
	e, err := ParseEventErrorPayload(ms[0])
	assert.NoError(t, err)
	assert.Equal(t, recognition.ErrorCodeNotAllowed, e.Code)
	assert.True(t, e.Fatal)
	assert.NotNil(t, e.Guide)

	// The announcement is assertive
	assert.Len(t, rec.byName("announcer.announce"), 1)
}

func TestRecognitionErrors(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	rz := &mockRecognizer{}
	r := newTestRunnable(rec, rz, &mockProber{})
	cancel := startRunnable(t, r)
	defer cancel()

	// Aborts are suppressed
	r.startListening()
	rz.h.OnError(recognition.ErrorCodeAborted)
	rz.h.OnEnd()
	assert.Empty(t, rec.byName(EventErrorMessage))
	assert.Equal(t, idleState, r.State())

	// No speech is transient
	r.startListening()
	rz.h.OnError(recognition.ErrorCodeNoSpeech)
	rz.h.OnEnd()
	ms := rec.byName(EventErrorMessage)
	assert.Len(t, ms, 1)
	e, err := ParseEventErrorPayload(ms[0])
	assert.NoError(t, err)
	assert.Equal(t, recognition.ErrorCodeNoSpeech, e.Code)
	assert.True(t, e.Retry)
	assert.False(t, e.Fatal)
	assert.Equal(t, idleState, r.State())
}

// crashingRecognizer ends its session synchronously while starting, the way
// a capture stream failing to open does
type crashingRecognizer struct {
	m      sync.Mutex
	starts int
}

func (r *crashingRecognizer) Start(h recognition.Handler) error {
	r.m.Lock()
	r.starts++
	r.m.Unlock()
	h.OnError(recognition.ErrorCodeAudioCapture)
	h.OnEnd()
	return nil
}

func (r *crashingRecognizer) Stop() {}

func (r *crashingRecognizer) Abort() {}

func (r *crashingRecognizer) startCount() int {
	r.m.Lock()
	defer r.m.Unlock()
	return r.starts
}

func TestSessionEndingDuringStart(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	rz := &crashingRecognizer{}
	r := newTestRunnable(rec, rz, &mockProber{})
	cancel := startRunnable(t, r)
	defer cancel()

	// The session ends before Start returns, the state must come back to idle
	r.startListening()
	assert.Equal(t, idleState, r.State())

	// A new session can still be opened
	r.startListening()
	assert.Equal(t, 2, rz.startCount())
}

func TestUnsupportedRecognizer(t *testing.T) {
	// Create runnable without a recognizer
	rec := &recorder{}
	r := newTestRunnable(rec, nil, nil)
	cancel := startRunnable(t, r)
	defer cancel()

	// Listening degrades to a no-op with an unsupported event
	r.startListening()
	assert.Equal(t, idleState, r.State())
	assert.Len(t, rec.byName(EventUnsupportedMessage), 1)
}
