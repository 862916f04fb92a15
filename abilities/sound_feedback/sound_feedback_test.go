package sound_feedback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	accessvoice "github.com/accesswork/go-accessvoice"
	"github.com/accesswork/go-accessvoice/preferences"
)

func TestSuccessRecipe(t *testing.T) {
	r := RecipeFor(KindSuccess)
	assert.Len(t, r.Tones, 2)
	assert.Equal(t, 523.25, r.Tones[0].Frequency)
	assert.Equal(t, time.Duration(0), r.Tones[0].Delay)
	assert.Equal(t, 659.25, r.Tones[1].Frequency)
	assert.Equal(t, 100*time.Millisecond, r.Tones[1].Delay)
	assert.Equal(t, 100*time.Millisecond, r.Tones[1].Duration)
}

func TestRecipeForUnknownKind(t *testing.T) {
	r := RecipeFor("unknown")
	assert.Len(t, r.Tones, 1)
	assert.Equal(t, float64(440), r.Tones[0].Frequency)
	assert.Equal(t, 100*time.Millisecond, r.Tones[0].Duration)
}

func TestRender(t *testing.T) {
	// The success cue spans 200ms: two 100ms tones, the second delayed 100ms
	samples := Render(RecipeFor(KindSuccess), 44100)
	assert.Len(t, samples, 8820)

	// The error cue spans 200ms too
	samples = Render(RecipeFor(KindError), 44100)
	assert.Len(t, samples, 8820)

	// A tone actually carries signal
	var silent = true
	for _, s := range samples {
		if s != 0 {
			silent = false
			break
		}
	}
	assert.False(t, silent)
}

type mockPlayer struct {
	closed int
	m      sync.Mutex
	played [][]int32
}

func (p *mockPlayer) SampleRate() int { return 44100 }

func (p *mockPlayer) Close() error {
	p.m.Lock()
	defer p.m.Unlock()
	p.closed++
	return nil
}

func (p *mockPlayer) Play(samples []int32) error {
	p.m.Lock()
	defer p.m.Unlock()
	p.played = append(p.played, samples)
	return nil
}

func (p *mockPlayer) playedCount() int {
	p.m.Lock()
	defer p.m.Unlock()
	return len(p.played)
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

func TestDisabledConstructsNoPlayer(t *testing.T) {
	// Create runnable
	var constructed int
	r := NewRunnable("Sound", func() (Player, error) {
		constructed++
		return &mockPlayer{}, nil
	}, RunnableOptions{Enabled: false})

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// Disabled means the player is never constructed
	r.play(KindClick)
	assert.Equal(t, 0, constructed)
}

func TestPlayAndRelease(t *testing.T) {
	// Create runnable
	p := &mockPlayer{}
	var constructed int
	r := NewRunnable("Sound", func() (Player, error) {
		constructed++
		return p, nil
	}, RunnableOptions{Enabled: true})

	// Start
	cancel := startRunnable(t, r)
	defer cancel()

	// Play constructs the player once
	r.play(KindClick)
	r.play(KindToggle)
	assert.Equal(t, 1, constructed)
	for idx := 0; idx < 100 && p.playedCount() < 2; idx++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 2, p.playedCount())

	// Disabling through a preference event releases the player
	m, err := accessvoice.NewEventPreferenceUpdatedMessage(*accessvoice.NewIndexIdentifier(), nil, accessvoice.Preference{
		Name:  preferences.SoundEffectsKey,
		Value: "false",
	})
	assert.NoError(t, err)
	assert.NoError(t, r.OnMessage(m))
	assert.False(t, r.Enabled())
	p.m.Lock()
	assert.Equal(t, 1, p.closed)
	p.m.Unlock()

	// Disabled again means no playback
	r.play(KindClick)
	assert.Equal(t, 1, constructed)
}
