package recognition

import (
	"context"

	"github.com/pkg/errors"
)

// Error codes reported by recognizers
const (
	ErrorCodeAborted      = "aborted"
	ErrorCodeAudioCapture = "audio-capture"
	ErrorCodeNetwork      = "network"
	ErrorCodeNoSpeech     = "no-speech"
	ErrorCodeNotAllowed   = "not-allowed"
)

// Handler receives recognition lifecycle events. Callbacks are invoked from
// the recognizer's own goroutine.
type Handler interface {
	OnEnd()
	OnError(code string)
	OnResult(transcript string, confidence float64, isFinal bool)
	OnStart()
}

// Recognizer represents a speech to text backend. Only one recognition
// session may be in flight at a time.
type Recognizer interface {
	Abort()
	Start(h Handler) error
	Stop()
}

// Prober probes whether the microphone can be captured before a session is
// started
type Prober interface {
	Probe(ctx context.Context) error
}

// Parser converts the samples of a detected utterance into text
type Parser interface {
	Parse(samples []int32, sampleRate, significantBits int) (text string, confidence float64, err error)
}

// Error carries a recognition error code alongside its cause
type Error struct {
	code string
	err  error
}

func NewError(code string, err error) *Error {
	return &Error{
		code: code,
		err:  err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.err != nil {
		return e.code + ": " + e.err.Error()
	}
	return e.code
}

// Code returns the error code of an error, or the generic raw message when
// the error carries none
func Code(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.code
	}
	return err.Error()
}
