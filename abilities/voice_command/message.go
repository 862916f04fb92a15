package voice_command

import (
	"encoding/json"

	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

// Message names
const (
	listenStartMessage           = "voice_command.listen.start"
	listenStopMessage            = "voice_command.listen.stop"
	EventErrorMessage            = "event.voice_command.error"
	EventListeningStartedMessage = "event.voice_command.listening.started"
	EventListeningStoppedMessage = "event.voice_command.listening.stopped"
	EventMatchedMessage          = "event.voice_command.matched"
	EventTranscriptMessage       = "event.voice_command.transcript"
	EventUnmatchedMessage        = "event.voice_command.unmatched"
	EventUnsupportedMessage      = "event.voice_command.unsupported"
)

// Transcript is a recognition result forwarded to the UI
type Transcript struct {
	Confidence float64 `json:"confidence"`
	Final      bool    `json:"final"`
	Text       string  `json:"text"`
}

// Matched is a recognized command forwarded to the host
type Matched struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Transcript  string `json:"transcript"`
}

// ErrorEvent describes a recognition failure
type ErrorEvent struct {
	Code  string `json:"code"`
	Fatal bool   `json:"fatal"`
	Guide *Guide `json:"guide,omitempty"`
	Retry bool   `json:"retry"`
}

func newMessage(from accessvoice.Identifier, to *accessvoice.Identifier, name string) *accessvoice.Message {
	m := accessvoice.NewMessage()
	m.From = from
	m.Name = name
	m.To = to
	return m
}

func NewListenStartMessage(from accessvoice.Identifier, to *accessvoice.Identifier) *accessvoice.Message {
	return newMessage(from, to, listenStartMessage)
}

func NewListenStopMessage(from accessvoice.Identifier, to *accessvoice.Identifier) *accessvoice.Message {
	return newMessage(from, to, listenStopMessage)
}

func newPayloadMessage(from accessvoice.Identifier, to *accessvoice.Identifier, name string, payload interface{}) (m *accessvoice.Message, err error) {
	// Create message
	m = newMessage(from, to, name)

	// Marshal payload
	if m.Payload, err = json.Marshal(payload); err != nil {
		err = errors.Wrap(err, "voice_command: marshaling payload failed")
		return
	}
	return
}

func ParseEventMatchedPayload(m *accessvoice.Message) (c Matched, err error) {
	if m.Name != EventMatchedMessage {
		err = errors.Errorf("voice_command: invalid name %s, requested %s", m.Name, EventMatchedMessage)
		return
	}
	if err = json.Unmarshal(m.Payload, &c); err != nil {
		err = errors.Wrap(err, "voice_command: unmarshaling failed")
	}
	return
}

func ParseEventTranscriptPayload(m *accessvoice.Message) (t Transcript, err error) {
	if err = json.Unmarshal(m.Payload, &t); err != nil {
		err = errors.Wrap(err, "voice_command: unmarshaling failed")
	}
	return
}

func ParseEventErrorPayload(m *accessvoice.Message) (e ErrorEvent, err error) {
	if err = json.Unmarshal(m.Payload, &e); err != nil {
		err = errors.Wrap(err, "voice_command: unmarshaling failed")
	}
	return
}
