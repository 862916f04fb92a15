package accessvoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifierWorkerName(t *testing.T) {
	assert.Equal(t, "worker-1", NewWorkerIdentifier("worker-1").WorkerName())
	assert.Equal(t, "worker-1", NewWorkerRunnableIdentifier("Speech", "worker-1").WorkerName())
	assert.Equal(t, "", NewRunnableIdentifier("Speech").WorkerName())
	assert.Equal(t, "", NewIndexIdentifier().WorkerName())
}

func TestMessageClone(t *testing.T) {
	m, err := NewEventPreferenceUpdatedMessage(Identifier{Type: IndexIdentifierType}, NewWorkerIdentifier("worker-1"), Preference{Name: "highContrast", Value: "true"})
	assert.NoError(t, err)
	c := m.Clone()
	assert.Equal(t, m, c)

	// Mutating the clone must not touch the original
	c.To = NewWorkerIdentifier("worker-2")
	assert.Equal(t, "worker-1", *m.To.Name)
}

func TestPreferenceUpdatedMessage(t *testing.T) {
	m, err := NewEventPreferenceUpdatedMessage(Identifier{Type: IndexIdentifierType}, nil, Preference{Name: "voiceReading", Value: "true"})
	assert.NoError(t, err)
	p, err := ParseEventPreferenceUpdatedPayload(m)
	assert.NoError(t, err)
	assert.Equal(t, Preference{Name: "voiceReading", Value: "true"}, p)

	// Wrong name
	m.Name = "event.other"
	_, err = ParseEventPreferenceUpdatedPayload(m)
	assert.Error(t, err)
}
