package recognition

import (
	"context"
	"sync"
	"time"

	"github.com/asticode/go-astilog"
	astipcm "github.com/asticode/go-astitools/pcm"
	"github.com/pkg/errors"
)

// Stream represents an audio input stream
type Stream interface {
	BitDepth() int
	MaxSilenceAudioLevel() float64
	Read() ([]int32, error)
	SampleRate() int
	Start() error
	Stop() error
}

// Engine is a single-shot Recognizer: it captures audio from a stream,
// detects one utterance through silence detection, parses it and ends the
// session. A new session must be started explicitly for the next utterance.
type Engine struct {
	aborted bool
	cancel  context.CancelFunc
	ctx     context.Context
	m       *sync.Mutex // Locks aborted, cancel and ctx
	o       EngineOptions
	p       Parser
	s       Stream
}

type EngineOptions struct {
	NoSpeechTimeout time.Duration `toml:"no_speech_timeout"`
}

// NewEngine creates a new engine
func NewEngine(s Stream, p Parser, o EngineOptions) *Engine {
	// Default timeout
	if o.NoSpeechTimeout <= 0 {
		o.NoSpeechTimeout = 8 * time.Second
	}
	return &Engine{
		m: &sync.Mutex{},
		o: o,
		p: p,
		s: s,
	}
}

// Start starts a recognition session. Starting while a session is in flight
// is an error.
func (e *Engine) Start(h Handler) (err error) {
	// Lock
	e.m.Lock()
	defer e.m.Unlock()

	// Session is in flight
	if e.ctx != nil && e.ctx.Err() == nil {
		err = errors.New("recognition: session already in flight")
		return
	}

	// Create context
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.aborted = false

	// Run in a goroutine
	go e.run(e.ctx, h)
	return
}

// Stop ends the current session. It's idempotent.
func (e *Engine) Stop() {
	e.m.Lock()
	defer e.m.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Abort ends the current session and reports it as aborted
func (e *Engine) Abort() {
	e.m.Lock()
	defer e.m.Unlock()
	if e.cancel != nil && e.ctx.Err() == nil {
		e.aborted = true
		e.cancel()
	}
}

func (e *Engine) isAborted() bool {
	e.m.Lock()
	defer e.m.Unlock()
	return e.aborted
}

func (e *Engine) run(ctx context.Context, h Handler) {
	// Make sure the end is always signaled
	defer h.OnEnd()

	// Start stream
	if err := e.s.Start(); err != nil {
		astilog.Error(errors.Wrap(err, "recognition: starting stream failed"))
		h.OnError(ErrorCodeAudioCapture)
		return
	}

	// Make sure to stop the stream
	defer func() {
		if err := e.s.Stop(); err != nil {
			astilog.Error(errors.Wrap(err, "recognition: stopping stream failed"))
		}
	}()

	// Create the silence detector of this session
	sd := astipcm.NewSilenceDetector(astipcm.SilenceDetectorOptions{
		MaxSilenceAudioLevel: e.s.MaxSilenceAudioLevel(),
		SampleRate:           e.s.SampleRate(),
	})

	// Signal start
	h.OnStart()

	// Read
	start := time.Now()
	for {
		// Check context
		if ctx.Err() != nil {
			if e.isAborted() {
				h.OnError(ErrorCodeAborted)
			}
			return
		}

		// Check no-speech timeout
		if time.Since(start) > e.o.NoSpeechTimeout {
			h.OnError(ErrorCodeNoSpeech)
			return
		}

		// Read samples
		b, err := e.s.Read()
		if err != nil {
			// The session was ended while blocked on a read
			if ctx.Err() != nil {
				if e.isAborted() {
					h.OnError(ErrorCodeAborted)
				}
				return
			}
			astilog.Error(errors.Wrap(err, "recognition: reading stream failed"))
			h.OnError(ErrorCodeAudioCapture)
			return
		}

		// Add samples to silence detector and retrieve speech samples
		bi := make([]int, len(b))
		for i, s := range b {
			bi[i] = int(s)
		}
		speechSamples := sd.Add(bi)

		// No speech samples yet
		if len(speechSamples) == 0 {
			continue
		}

		// Normalize samples
		ss := astipcm.Normalize(speechSamples[0], e.s.BitDepth())
		ss32 := make([]int32, len(ss))
		for i, s := range ss {
			ss32[i] = int32(s)
		}

		// Parse the first detected utterance, the session is single-shot
		text, confidence, err := e.p.Parse(ss32, e.s.SampleRate(), e.s.BitDepth())
		if err != nil {
			astilog.Error(errors.Wrap(err, "recognition: parsing speech failed"))
			h.OnError(Code(err))
			return
		}

		// Nothing was recognized
		if text == "" {
			h.OnError(ErrorCodeNoSpeech)
			return
		}

		// Signal result
		h.OnResult(text, confidence, true)
		return
	}
}
