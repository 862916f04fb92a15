package announcer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

// Message names
const (
	announceMessage          = "announcer.announce"
	EventAnnouncementMessage = "event.announcer.announcement"
	EventClearedMessage      = "event.announcer.cleared"
)

// Priorities
const (
	AssertivePriority = "assertive"
	PolitePriority    = "polite"
)

// Delay between clearing the live region and setting the new text so that
// screen readers re-announce repeated content
const clearDelay = 100 * time.Millisecond

// Announcement represents a live-region announcement
type Announcement struct {
	Priority string `json:"priority"`
	Text     string `json:"text"`
}

// Runnable relays announcements to the UI live-region channel
type Runnable struct {
	*accessvoice.BaseOperatable
	*accessvoice.BaseRunnable
	ctx context.Context
	m   *sync.Mutex // Locks ctx
}

func NewRunnable(name string) (r *Runnable) {
	// Create runnable
	r = &Runnable{
		BaseOperatable: accessvoice.NewBaseOperatable(),
		m:              &sync.Mutex{},
	}
	r.BaseRunnable = accessvoice.NewBaseRunnable(accessvoice.BaseRunnableOptions{
		Metadata: accessvoice.Metadata{
			Description: "Announces messages to screen readers through the UI live region",
			Name:        name,
		},
		OnStart: r.onStart,
	})

	// Add routes
	r.AddRoute("/announce", http.MethodPost, r.handleAnnounce)
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

func NewAnnounceMessage(from accessvoice.Identifier, to *accessvoice.Identifier, a Announcement) (m *accessvoice.Message, err error) {
	// Create message
	m = accessvoice.NewMessage()
	m.From = from
	m.Name = announceMessage
	m.To = to

	// Marshal payload
	if m.Payload, err = json.Marshal(a); err != nil {
		err = errors.Wrap(err, "announcer: marshaling payload failed")
		return
	}
	return
}

func parseAnnouncePayload(m *accessvoice.Message) (a Announcement, err error) {
	if err = json.Unmarshal(m.Payload, &a); err != nil {
		err = errors.Wrap(err, "announcer: unmarshaling failed")
	}
	return
}

func ParseEventAnnouncementPayload(m *accessvoice.Message) (a Announcement, err error) {
	if err = json.Unmarshal(m.Payload, &a); err != nil {
		err = errors.Wrap(err, "announcer: unmarshaling failed")
	}
	return
}

func (r *Runnable) OnMessage(m *accessvoice.Message) (err error) {
	switch m.Name {
	case announceMessage:
		if err = r.onAnnounce(m); err != nil {
			err = errors.Wrap(err, "announcer: on announce failed")
			return
		}
	}
	return
}

func (r *Runnable) onAnnounce(m *accessvoice.Message) (err error) {
	// Parse payload
	var a Announcement
	if a, err = parseAnnouncePayload(m); err != nil {
		err = errors.Wrap(err, "announcer: parsing payload failed")
		return
	}

	// Announce
	r.announce(a)
	return
}

func (r *Runnable) handleAnnounce(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	// Unmarshal
	var a Announcement
	if err := json.NewDecoder(req.Body).Decode(&a); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "announcer: unmarshaling failed"))
		return
	}

	// Announce
	r.announce(a)
}

// announce clears the live region and sets the new text after a short delay.
// Clearing first makes screen readers announce repeated text again.
func (r *Runnable) announce(a Announcement) {
	// Check status
	if r.Status() != accessvoice.RunningStatus {
		return
	}

	// Default priority
	if a.Priority == "" {
		a.Priority = PolitePriority
	}

	// Get context
	r.m.Lock()
	ctx := r.ctx
	r.m.Unlock()

	// The status flips to running slightly before the context is stored
	if ctx == nil {
		return
	}

	// Clear the live region
	r.dispatchEvent(EventClearedMessage, Announcement{Priority: a.Priority})

	// Set the new text after the delay
	go func() {
		t := time.NewTimer(clearDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.dispatchEvent(EventAnnouncementMessage, a)
		}
	}()
}

func (r *Runnable) dispatchEvent(name string, a Announcement) {
	// Create message
	m := accessvoice.NewMessage()
	m.From = *accessvoice.NewRunnableIdentifier(r.Metadata().Name)
	m.Name = name
	m.To = &accessvoice.Identifier{Type: accessvoice.UIIdentifierType}

	// Marshal payload
	var err error
	if m.Payload, err = json.Marshal(a); err != nil {
		astilog.Error(errors.Wrap(err, "announcer: marshaling payload failed"))
		return
	}

	// Dispatch
	r.Dispatch(m)
}
