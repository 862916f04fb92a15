package accessvoice

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatchConditions(t *testing.T) {
	m := newMessage(Identifier{Type: UIIdentifierType}, NewWorkerIdentifier("worker-1"), "event.test")
	assert.True(t, DispatchConditions{}.match(m))
	assert.True(t, DispatchConditions{Name: StrPtr("event.test")}.match(m))
	assert.False(t, DispatchConditions{Name: StrPtr("event.other")}.match(m))
	assert.True(t, DispatchConditions{Names: map[string]bool{"event.test": true}}.match(m))
	assert.False(t, DispatchConditions{Names: map[string]bool{"event.other": true}}.match(m))
	assert.True(t, DispatchConditions{From: &Identifier{Type: UIIdentifierType}}.match(m))
	assert.False(t, DispatchConditions{From: &Identifier{Type: WorkerIdentifierType}}.match(m))
	assert.True(t, DispatchConditions{To: &Identifier{Type: WorkerIdentifierType}}.match(m))
	assert.True(t, DispatchConditions{To: NewWorkerIdentifier("worker-1")}.match(m))
	assert.False(t, DispatchConditions{To: NewWorkerIdentifier("worker-2")}.match(m))
	assert.False(t, DispatchConditions{To: &Identifier{Type: UIIdentifierType}}.match(newMessage(Identifier{Type: UIIdentifierType}, nil, "event.test")))
}

func TestDispatcher(t *testing.T) {
	// Create dispatcher
	d := NewDispatcher()

	// Add handlers
	var mu sync.Mutex
	var names []string
	wg := sync.WaitGroup{}
	wg.Add(2)
	d.On(DispatchConditions{Name: StrPtr("event.test")}, func(m *Message) error {
		defer wg.Done()
		mu.Lock()
		defer mu.Unlock()
		names = append(names, "matched")
		return nil
	})
	d.On(DispatchConditions{}, func(m *Message) error {
		defer wg.Done()
		mu.Lock()
		defer mu.Unlock()
		names = append(names, "all")
		return nil
	})
	d.On(DispatchConditions{Name: StrPtr("event.other")}, func(m *Message) error {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, "unmatched")
		return nil
	})

	// Dispatch
	d.Dispatch(newMessage(Identifier{Type: IndexIdentifierType}, nil, "event.test"))

	// Wait
	c := make(chan struct{})
	go func() {
		wg.Wait()
		close(c)
	}()
	select {
	case <-c:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handlers")
	}

	// Check
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, names, 2)
	assert.NotContains(t, names, "unmatched")
}
