package announcer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	accessvoice "github.com/accesswork/go-accessvoice"
)

func TestAnnounceClearsThenSets(t *testing.T) {
	// Create runnable
	r := NewRunnable("Announcer")
	var m sync.Mutex
	var ms []*accessvoice.Message
	r.SetDispatchFunc(func(msg *accessvoice.Message) {
		m.Lock()
		defer m.Unlock()
		ms = append(ms, msg)
	})

	// Start
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)
	for idx := 0; idx < 100 && r.Status() != accessvoice.RunningStatus; idx++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, accessvoice.RunningStatus, r.Status())

	// Announce
	r.announce(Announcement{Text: "saved"})

	// The clear event is dispatched immediately, the text follows after the
	// delay
	m.Lock()
	assert.Len(t, ms, 1)
	assert.Equal(t, EventClearedMessage, ms[0].Name)
	m.Unlock()
	for idx := 0; idx < 100; idx++ {
		m.Lock()
		n := len(ms)
		m.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	m.Lock()
	defer m.Unlock()
	assert.Len(t, ms, 2)
	assert.Equal(t, EventAnnouncementMessage, ms[1].Name)
	a, err := ParseEventAnnouncementPayload(ms[1])
	assert.NoError(t, err)
	assert.Equal(t, "saved", a.Text)

	// The default priority is polite
	assert.Equal(t, PolitePriority, a.Priority)

	// Events target the UI
	assert.Equal(t, accessvoice.UIIdentifierType, ms[1].To.Type)
}

func TestAnnounceBeforeContextStored(t *testing.T) {
	// Create runnable
	r := NewRunnable("Announcer")
	var m sync.Mutex
	var ms []*accessvoice.Message
	r.SetDispatchFunc(func(msg *accessvoice.Message) {
		m.Lock()
		defer m.Unlock()
		ms = append(ms, msg)
	})

	// Start
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)
	for idx := 0; idx < 100 && r.Status() != accessvoice.RunningStatus; idx++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, accessvoice.RunningStatus, r.Status())

	// The status flips to running slightly before the start hook stores the
	// context, an announcement in that window must be dropped instead of
	// panicking
	r.m.Lock()
	r.ctx = nil
	r.m.Unlock()
	r.announce(Announcement{Text: "too early"})
	time.Sleep(2 * clearDelay)
	m.Lock()
	defer m.Unlock()
	assert.Empty(t, ms)
}
