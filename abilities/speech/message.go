package speech

import (
	"encoding/json"

	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/speech/speaker"
)

// Message names
const (
	pauseMessage        = "speech.pause"
	resumeMessage       = "speech.resume"
	sayMessage          = "speech.say"
	stopMessage         = "speech.stop"
	EventEndedMessage   = "event.speech.ended"
	EventStartedMessage = "event.speech.started"
)

// Say represents one speech request
type Say struct {
	Options speaker.SayOptions `json:"options"`
	Text    string             `json:"text"`
}

func newMessage(from accessvoice.Identifier, to *accessvoice.Identifier, name string) *accessvoice.Message {
	m := accessvoice.NewMessage()
	m.From = from
	m.Name = name
	m.To = to
	return m
}

func NewSayMessage(from accessvoice.Identifier, to *accessvoice.Identifier, s Say) (m *accessvoice.Message, err error) {
	// Create message
	m = newMessage(from, to, sayMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(s); err != nil {
		err = errors.Wrap(err, "speech: marshaling payload failed")
		return
	}
	return
}

func parseSayPayload(m *accessvoice.Message) (s Say, err error) {
	if err = json.Unmarshal(m.Payload, &s); err != nil {
		err = errors.Wrap(err, "speech: unmarshaling failed")
	}
	return
}

func NewStopMessage(from accessvoice.Identifier, to *accessvoice.Identifier) *accessvoice.Message {
	return newMessage(from, to, stopMessage)
}

func NewPauseMessage(from accessvoice.Identifier, to *accessvoice.Identifier) *accessvoice.Message {
	return newMessage(from, to, pauseMessage)
}

func NewResumeMessage(from accessvoice.Identifier, to *accessvoice.Identifier) *accessvoice.Message {
	return newMessage(from, to, resumeMessage)
}

func newEventMessage(from accessvoice.Identifier, name, text string) (m *accessvoice.Message, err error) {
	// Create message
	m = newMessage(from, &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}, name)

	// Marshal payload
	if m.Payload, err = json.Marshal(text); err != nil {
		err = errors.Wrap(err, "speech: marshaling payload failed")
		return
	}
	return
}

func ParseEventPayload(m *accessvoice.Message) (text string, err error) {
	if err = json.Unmarshal(m.Payload, &text); err != nil {
		err = errors.Wrap(err, "speech: unmarshaling failed")
	}
	return
}
