package speech

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/abilities/speech/speaker"
)

type mockSpeaker struct {
	cancelled []string
	completed []string
	m         sync.Mutex
	release   chan struct{}
	started   chan string
}

func newMockSpeaker() *mockSpeaker {
	return &mockSpeaker{
		release: make(chan struct{}),
		started: make(chan string, 10),
	}
}

func (s *mockSpeaker) Say(ctx context.Context, text string, o speaker.SayOptions) error {
	s.started <- text
	select {
	case <-ctx.Done():
		s.m.Lock()
		s.cancelled = append(s.cancelled, text)
		s.m.Unlock()
		return ctx.Err()
	case <-s.release:
		s.m.Lock()
		s.completed = append(s.completed, text)
		s.m.Unlock()
		return nil
	}
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

func TestSayLastWriteWins(t *testing.T) {
	// Create runnable
	s := newMockSpeaker()
	r := NewRunnable("Speech", s, RunnableOptions{})

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// First utterance is in flight
	r.say(Say{Text: "first"})
	assert.Equal(t, "first", <-s.started)
	assert.True(t, r.IsSpeaking())

	// Second utterance supersedes it
	r.say(Say{Text: "second"})
	assert.Equal(t, "second", <-s.started)

	// Release the speaker, only the second utterance completes
	close(s.release)
	for idx := 0; idx < 100 && r.IsSpeaking(); idx++ {
		time.Sleep(10 * time.Millisecond)
	}
	s.m.Lock()
	defer s.m.Unlock()
	assert.Equal(t, []string{"first"}, s.cancelled)
	assert.Equal(t, []string{"second"}, s.completed)
}

func TestSayDispatchesAnnouncement(t *testing.T) {
	// Create runnable
	s := newMockSpeaker()
	r := NewRunnable("Speech", s, RunnableOptions{Announcer: "Announcer"})

	// Record dispatched messages
	var m sync.Mutex
	var ms []*accessvoice.Message
	r.SetDispatchFunc(func(msg *accessvoice.Message) {
		m.Lock()
		defer m.Unlock()
		ms = append(ms, msg)
	})

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// Say
	close(s.release)
	r.say(Say{Text: "hello"})
	<-s.started
	for idx := 0; idx < 100 && r.IsSpeaking(); idx++ {
		time.Sleep(10 * time.Millisecond)
	}

	// The started event and the polite announcement were dispatched
	m.Lock()
	defer m.Unlock()
	var names []string
	for _, msg := range ms {
		names = append(names, msg.Name)
	}
	assert.Contains(t, names, EventStartedMessage)
	assert.Contains(t, names, "announcer.announce")
	assert.Contains(t, names, EventEndedMessage)
}

func TestSayBeforeContextStored(t *testing.T) {
	// Create runnable
	s := newMockSpeaker()
	r := NewRunnable("Speech", s, RunnableOptions{})
	cancel := startRunnable(t, r)
	defer cancel()

	// The status flips to running slightly before the start hook stores the
	// context, a say in that window must be dropped instead of panicking
	r.m.Lock()
	ctx := r.ctx
	r.ctx = nil
	r.m.Unlock()
	r.say(Say{Text: "too early"})
	assert.False(t, r.IsSpeaking())

	// Once the context is stored, speaking works
	r.m.Lock()
	r.ctx = ctx
	r.m.Unlock()
	close(s.release)
	r.say(Say{Text: "hello"})
	assert.Equal(t, "hello", <-s.started)
}

func TestSayWithoutSpeaker(t *testing.T) {
	// No speaker means speaking is a no-op
	r := NewRunnable("Speech", nil, RunnableOptions{})
	cancel := startRunnable(t, r)
	defer cancel()
	r.say(Say{Text: "hello"})
	assert.False(t, r.IsSpeaking())
}

func TestStopIsIdempotent(t *testing.T) {
	s := newMockSpeaker()
	r := NewRunnable("Speech", s, RunnableOptions{})
	cancel := startRunnable(t, r)
	defer cancel()

	// Stop with nothing in flight
	r.stop()

	// Stop an in-flight utterance twice
	r.say(Say{Text: "first"})
	<-s.started
	r.stop()
	r.stop()
	for idx := 0; idx < 100 && r.IsSpeaking(); idx++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, r.IsSpeaking())
}
