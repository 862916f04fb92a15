package voice_reading

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/preferences"
)

type recorder struct {
	m  sync.Mutex
	ms []*accessvoice.Message
}

func (r *recorder) dispatch(m *accessvoice.Message) {
	r.m.Lock()
	defer r.m.Unlock()
	r.ms = append(r.ms, m)
}

func (r *recorder) names() (names []string) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, m := range r.ms {
		names = append(names, m.Name)
	}
	return
}

func (r *recorder) payloads(name string) (ps []string) {
	r.m.Lock()
	defer r.m.Unlock()
	for _, m := range r.ms {
		if m.Name == name {
			ps = append(ps, string(m.Payload))
		}
	}
	return
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

func TestToggle(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	r := NewRunnable("Voice reading", RunnableOptions{
		SoundFeedback: "Sound",
		Speech:        "Speech",
	})
	r.SetDispatchFunc(rec.dispatch)

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// Enabling speaks a confirmation, plays the success cue and persists
	r.toggle()
	assert.True(t, r.Enabled())
	names := rec.names()
	assert.Contains(t, names, "speech.say")
	assert.Contains(t, names, accessvoice.CmdPreferenceSetMessage)
	assert.Contains(t, names, EventToggledMessage)
	cues := rec.payloads("sound_feedback.play")
	assert.Len(t, cues, 1)
	assert.Contains(t, cues[0], "success")
	ps := rec.payloads("speech.say")
	assert.Len(t, ps, 1)
	assert.Contains(t, ps[0], "Voice reading enabled")

	// Disabling plays the toggle cue and cuts the in-flight speech instead
	// of speaking
	r.toggle()
	assert.False(t, r.Enabled())
	assert.Contains(t, rec.names(), "speech.stop")
	cues = rec.payloads("sound_feedback.play")
	assert.Len(t, cues, 2)
	assert.Contains(t, cues[1], "toggle")
	assert.Len(t, rec.payloads("speech.say"), 1)
}

func TestAnnounceAction(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	r := NewRunnable("Voice reading", RunnableOptions{
		Enabled: true,
		Speech:  "Speech",
	})
	r.SetDispatchFunc(rec.dispatch)

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// Known event keys map to sentences
	r.announceAction("highContrast:on")
	r.announceAction("task:completed")

	// Unknown keys are read verbatim
	r.announceAction("something else")

	ps := rec.payloads("speech.say")
	assert.Len(t, ps, 3)
	assert.Contains(t, ps[0], "High contrast mode enabled")
	assert.Contains(t, ps[1], "Task completed")
	assert.Contains(t, ps[2], "something else")
}

func TestAnnounceActionDisabled(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	r := NewRunnable("Voice reading", RunnableOptions{Speech: "Speech"})
	r.SetDispatchFunc(rec.dispatch)

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// Disabled means nothing is spoken
	r.announceAction("task:completed")
	r.readText("hello")
	assert.Empty(t, rec.payloads("speech.say"))
}

func TestPreferenceAnnounce(t *testing.T) {
	// Create runnable
	rec := &recorder{}
	r := NewRunnable("Voice reading", RunnableOptions{
		Enabled:       true,
		SoundFeedback: "Sound",
		Speech:        "Speech",
	})
	r.SetDispatchFunc(rec.dispatch)

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// A high contrast toggle is accompanied by its cue and sentence
	m, err := accessvoice.NewEventPreferenceUpdatedMessage(*accessvoice.NewIndexIdentifier(), nil, accessvoice.Preference{
		Name:  preferences.HighContrastKey,
		Value: "true",
	})
	assert.NoError(t, err)
	assert.NoError(t, r.OnMessage(m))
	assert.Contains(t, rec.names(), "sound_feedback.play")
	ps := rec.payloads("speech.say")
	assert.Len(t, ps, 1)
	assert.Contains(t, ps[0], "High contrast mode enabled")

	// Dark mode off
	m, err = accessvoice.NewEventPreferenceUpdatedMessage(*accessvoice.NewIndexIdentifier(), nil, accessvoice.Preference{
		Name:  preferences.DarkModeKey,
		Value: "false",
	})
	assert.NoError(t, err)
	assert.NoError(t, r.OnMessage(m))
	ps = rec.payloads("speech.say")
	assert.Len(t, ps, 2)
	assert.Contains(t, ps[1], "Dark mode disabled")
}

func TestPreferenceSync(t *testing.T) {
	// Create runnable
	r := NewRunnable("Voice reading", RunnableOptions{Speech: "Speech"})
	cancel := startRunnable(t, r)
	defer cancel()

	// A preference event flips the flag
	m, err := accessvoice.NewEventPreferenceUpdatedMessage(*accessvoice.NewIndexIdentifier(), nil, accessvoice.Preference{
		Name:  preferences.VoiceReadingKey,
		Value: "true",
	})
	assert.NoError(t, err)
	assert.NoError(t, r.OnMessage(m))
	assert.True(t, r.Enabled())

	// Other preferences are ignored
	m, err = accessvoice.NewEventPreferenceUpdatedMessage(*accessvoice.NewIndexIdentifier(), nil, accessvoice.Preference{
		Name:  preferences.HighContrastKey,
		Value: "false",
	})
	assert.NoError(t, err)
	assert.NoError(t, r.OnMessage(m))
	assert.True(t, r.Enabled())
}
