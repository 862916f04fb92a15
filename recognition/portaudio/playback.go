package portaudio

import (
	"github.com/asticode/go-astilog"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Playback is an output stream writing to the default output device
type Playback struct {
	b []int32
	o PlaybackOptions
	s *portaudio.Stream
}

type PlaybackOptions struct {
	BufferLength      int `toml:"buffer_length"`
	NumOutputChannels int `toml:"num_output_channels"`
	SampleRate        int `toml:"sample_rate"`
}

func (p *PortAudio) NewDefaultPlayback(o PlaybackOptions) (pb *Playback, err error) {
	// Default options
	if o.BufferLength == 0 {
		o.BufferLength = 1024
	}
	if o.NumOutputChannels == 0 {
		o.NumOutputChannels = 1
	}
	if o.SampleRate == 0 {
		o.SampleRate = 44100
	}

	// Create playback
	pb = &Playback{
		b: make([]int32, o.BufferLength),
		o: o,
	}

	// Log
	astilog.Debugf("portaudio: opening default playback %p", pb)

	// Open default stream
	if pb.s, err = portaudio.OpenDefaultStream(0, pb.o.NumOutputChannels, float64(pb.o.SampleRate), len(pb.b), pb.b); err != nil {
		err = errors.Wrapf(err, "portaudio: opening default playback %p failed", pb)
		return
	}
	return
}

func (pb *Playback) SampleRate() int { return pb.o.SampleRate }

func (pb *Playback) Close() (err error) {
	// Log
	astilog.Debugf("portaudio: closing playback %p", pb)

	// Close
	if err = pb.s.Close(); err != nil {
		err = errors.Wrapf(err, "portaudio: closing playback %p failed", pb)
		return
	}
	return
}

func (pb *Playback) Start() (err error) {
	// Log
	astilog.Debugf("portaudio: starting playback %p", pb)

	// Start
	if err = pb.s.Start(); err != nil {
		err = errors.Wrapf(err, "portaudio: starting playback %p failed", pb)
		return
	}
	return
}

func (pb *Playback) Stop() (err error) {
	// Log
	astilog.Debugf("portaudio: stopping playback %p", pb)

	// Stop
	if err = pb.s.Stop(); err != nil {
		err = errors.Wrapf(err, "portaudio: stopping playback %p failed", pb)
		return
	}
	return
}

// Write writes samples to the output device buffer by buffer. The last
// buffer is padded with silence.
func (pb *Playback) Write(samples []int32) (err error) {
	for len(samples) > 0 {
		// Fill buffer
		n := copy(pb.b, samples)
		for idx := n; idx < len(pb.b); idx++ {
			pb.b[idx] = 0
		}
		samples = samples[n:]

		// Write
		if err = pb.s.Write(); err != nil {
			err = errors.Wrapf(err, "portaudio: writing to playback %p failed", pb)
			return
		}
	}
	return
}
