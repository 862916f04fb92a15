package accessvoice

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Identifier types
const (
	IndexIdentifierType    = "index"
	RunnableIdentifierType = "runnable"
	UIIdentifierType       = "ui"
	WorkerIdentifierType   = "worker"
)

// Message names
const (
	CmdRunnableStartMessage        = "cmd.runnable.start"
	CmdRunnableStopMessage         = "cmd.runnable.stop"
	CmdPreferenceSetMessage        = "cmd.preference.set"
	CmdUIPingMessage               = "cmd.ui.ping"
	CmdWorkerRegisterMessage       = "cmd.worker.register"
	EventPreferenceUpdatedMessage  = "event.preference.updated"
	EventRunnableCrashedMessage    = "event.runnable.crashed"
	EventRunnableStartedMessage    = "event.runnable.started"
	EventRunnableStoppedMessage    = "event.runnable.stopped"
	EventUIDisconnectedMessage     = "event.ui.disconnected"
	EventUINavigateMessage         = "event.ui.navigate"
	EventUIWelcomeMessage          = "event.ui.welcome"
	EventWorkerDisconnectedMessage = "event.worker.disconnected"
	EventWorkerRegisteredMessage   = "event.worker.registered"
	EventWorkerWelcomeMessage      = "event.worker.welcome"
)

type Message struct {
	From    Identifier      `json:"from"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
	To      *Identifier     `json:"to,omitempty"`
}

type Identifier struct {
	Name   *string `json:"name,omitempty"`
	Type   string  `json:"type"`
	Worker *string `json:"worker,omitempty"`
}

// NewIndexIdentifier creates an index identifier
func NewIndexIdentifier() *Identifier {
	return &Identifier{Type: IndexIdentifierType}
}

// NewRunnableIdentifier creates a runnable identifier
func NewRunnableIdentifier(runnable string) *Identifier {
	return &Identifier{
		Name: StrPtr(runnable),
		Type: RunnableIdentifierType,
	}
}

// NewWorkerRunnableIdentifier creates a runnable identifier qualified with its worker
func NewWorkerRunnableIdentifier(runnable, worker string) *Identifier {
	return &Identifier{
		Name:   StrPtr(runnable),
		Type:   RunnableIdentifierType,
		Worker: StrPtr(worker),
	}
}

// NewUIIdentifier creates a ui identifier
func NewUIIdentifier(name string) *Identifier {
	return &Identifier{
		Name: StrPtr(name),
		Type: UIIdentifierType,
	}
}

// NewWorkerIdentifier creates a worker identifier
func NewWorkerIdentifier(worker string) *Identifier {
	return &Identifier{
		Name: StrPtr(worker),
		Type: WorkerIdentifierType,
	}
}

// StrPtr returns a pointer to the string
func StrPtr(s string) *string { return &s }

// WorkerName returns the name of the worker an identifier belongs to
func (i Identifier) WorkerName() string {
	switch i.Type {
	case RunnableIdentifierType:
		if i.Worker != nil {
			return *i.Worker
		}
	case WorkerIdentifierType:
		if i.Name != nil {
			return *i.Name
		}
	}
	return ""
}

// Clone clones the identifier
func (i Identifier) Clone() (o *Identifier) {
	o = &Identifier{Type: i.Type}
	if i.Name != nil {
		o.Name = StrPtr(*i.Name)
	}
	if i.Worker != nil {
		o.Worker = StrPtr(*i.Worker)
	}
	return
}

func NewMessage() *Message {
	return &Message{}
}

func newMessage(from Identifier, to *Identifier, name string) *Message {
	m := NewMessage()
	m.From = from
	m.Name = name
	m.To = to
	return m
}

// Clone clones the message
func (m Message) Clone() (o *Message) {
	o = newMessage(*m.From.Clone(), nil, m.Name)
	if m.To != nil {
		o.To = m.To.Clone()
	}
	if len(m.Payload) > 0 {
		o.Payload = make(json.RawMessage, len(m.Payload))
		copy(o.Payload, m.Payload)
	}
	return
}

func checkName(m *Message, name string) (err error) {
	if m.Name != name {
		err = fmt.Errorf("accessvoice: invalid name %s, requested %s", m.Name, name)
	}
	return
}

type Worker struct {
	Name      string                `json:"name"`
	Runnables []RunnableDescription `json:"runnables,omitempty"`
}

type RunnableDescription struct {
	Description string `json:"description"`
	Name        string `json:"name"`
	Status      string `json:"status"`
}

type WelcomeUI struct {
	Name    string   `json:"name"`
	Workers []Worker `json:"workers,omitempty"`
}

// Preference represents a persisted preference as a stringified primitive
type Preference struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func NewCmdWorkerRegisterMessage(from Identifier, to *Identifier, w Worker) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, CmdWorkerRegisterMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(w); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseCmdWorkerRegisterPayload(m *Message) (w Worker, err error) {
	// Check name
	if err = checkName(m, CmdWorkerRegisterMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &w); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

// NewEventWorkerWelcomeMessage welcomes a worker with the persisted
// preferences so that its runnables start out with the right flags
func NewEventWorkerWelcomeMessage(from Identifier, to *Identifier, ps []Preference) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventWorkerWelcomeMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(ps); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseEventWorkerWelcomePayload(m *Message) (ps []Preference, err error) {
	// Check name
	if err = checkName(m, EventWorkerWelcomeMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &ps); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewEventWorkerRegisteredMessage(from Identifier, to *Identifier, w Worker) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventWorkerRegisteredMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(w); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseEventWorkerRegisteredPayload(m *Message) (w Worker, err error) {
	// Check name
	if err = checkName(m, EventWorkerRegisteredMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &w); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewEventWorkerDisconnectedMessage(from Identifier, to *Identifier, worker string) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventWorkerDisconnectedMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(worker); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseEventWorkerDisconnectedPayload(m *Message) (worker string, err error) {
	// Check name
	if err = checkName(m, EventWorkerDisconnectedMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &worker); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewEventUIWelcomeMessage(from Identifier, to *Identifier, name string, ws []Worker) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventUIWelcomeMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(WelcomeUI{
		Name:    name,
		Workers: ws,
	}); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func NewEventUIDisconnectedMessage(from Identifier, to *Identifier, name string) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventUIDisconnectedMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(name); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseEventUIDisconnectedPayload(m *Message) (name string, err error) {
	// Check name
	if err = checkName(m, EventUIDisconnectedMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &name); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewEventUINavigateMessage(from Identifier, to *Identifier, target string) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventUINavigateMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(target); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseEventUINavigatePayload(m *Message) (target string, err error) {
	// Check name
	if err = checkName(m, EventUINavigateMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &target); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewCmdRunnableStartMessage(from Identifier, to *Identifier, runnable string) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, CmdRunnableStartMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(runnable); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseCmdRunnableStartPayload(m *Message) (runnable string, err error) {
	// Check name
	if err = checkName(m, CmdRunnableStartMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &runnable); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewCmdRunnableStopMessage(from Identifier, to *Identifier, runnable string) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, CmdRunnableStopMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(runnable); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseCmdRunnableStopPayload(m *Message) (runnable string, err error) {
	// Check name
	if err = checkName(m, CmdRunnableStopMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &runnable); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewEventRunnableStartedMessage(from Identifier, to *Identifier) *Message {
	return newMessage(from, to, EventRunnableStartedMessage)
}

func NewEventRunnableStoppedMessage(from Identifier, to *Identifier) *Message {
	return newMessage(from, to, EventRunnableStoppedMessage)
}

func NewEventRunnableCrashedMessage(from Identifier, to *Identifier) *Message {
	return newMessage(from, to, EventRunnableCrashedMessage)
}

func NewCmdPreferenceSetMessage(from Identifier, to *Identifier, p Preference) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, CmdPreferenceSetMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(p); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseCmdPreferenceSetPayload(m *Message) (p Preference, err error) {
	// Check name
	if err = checkName(m, CmdPreferenceSetMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &p); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}

func NewEventPreferenceUpdatedMessage(from Identifier, to *Identifier, p Preference) (m *Message, err error) {
	// Create message
	m = newMessage(from, to, EventPreferenceUpdatedMessage)

	// Marshal payload
	if m.Payload, err = json.Marshal(p); err != nil {
		err = errors.Wrap(err, "accessvoice: marshaling payload failed")
		return
	}
	return
}

func ParseEventPreferenceUpdatedPayload(m *Message) (p Preference, err error) {
	// Check name
	if err = checkName(m, EventPreferenceUpdatedMessage); err != nil {
		return
	}

	// Unmarshal
	if err = json.Unmarshal(m.Payload, &p); err != nil {
		err = errors.Wrap(err, "accessvoice: unmarshaling failed")
	}
	return
}
