package sound_feedback

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/accesswork/go-accessvoice/recognition/portaudio"
)

// Player plays mono samples on an output device
type Player interface {
	Close() error
	Play(samples []int32) error
	SampleRate() int
}

// PlayerFunc constructs a player. It's only invoked once sound effects are
// enabled, never before.
type PlayerFunc func() (Player, error)

// playbackPlayer plays cues on a portaudio output stream. Device writes are
// serialized, overlapping cues queue up.
type playbackPlayer struct {
	m  *sync.Mutex
	pb *portaudio.Playback
}

// NewPlaybackPlayer creates a player writing to a portaudio playback stream
func NewPlaybackPlayer(pb *portaudio.Playback) Player {
	return &playbackPlayer{
		m:  &sync.Mutex{},
		pb: pb,
	}
}

func (p *playbackPlayer) SampleRate() int { return p.pb.SampleRate() }

func (p *playbackPlayer) Close() error { return p.pb.Close() }

func (p *playbackPlayer) Play(samples []int32) (err error) {
	// Lock
	p.m.Lock()
	defer p.m.Unlock()

	// Start stream
	if err = p.pb.Start(); err != nil {
		err = errors.Wrap(err, "sound_feedback: starting playback failed")
		return
	}

	// Make sure the stream is stopped
	defer func() {
		if errS := p.pb.Stop(); errS != nil && err == nil {
			err = errors.Wrap(errS, "sound_feedback: stopping playback failed")
		}
	}()

	// Write samples
	if err = p.pb.Write(samples); err != nil {
		err = errors.Wrap(err, "sound_feedback: writing samples failed")
		return
	}
	return
}
