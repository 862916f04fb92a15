package portaudio

import (
	"context"

	"github.com/asticode/go-astilog"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/accesswork/go-accessvoice/recognition"
)

// Probe implements the recognition.Prober interface. It opens and closes the
// default input device to check that the microphone can actually be captured
// before a session is started.
func (p *PortAudio) Probe(ctx context.Context) (err error) {
	// Check context
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// Log
	astilog.Debug("portaudio: probing default input device")

	// Open default stream
	b := make([]int32, 64)
	var s *portaudio.Stream
	if s, err = portaudio.OpenDefaultStream(1, 0, 16000, len(b), b); err != nil {
		err = recognition.NewError(recognition.ErrorCodeNotAllowed, errors.Wrap(err, "portaudio: opening default input device failed"))
		return
	}

	// Close
	if err = s.Close(); err != nil {
		err = errors.Wrap(err, "portaudio: closing probe stream failed")
		return
	}
	return
}
