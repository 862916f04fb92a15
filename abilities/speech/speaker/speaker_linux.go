package speaker

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asticode/go-astilog"
	"github.com/pkg/errors"
)

// Init initializes the speaker
func (s *Speaker) Init() error { return nil }

// Close implements the io.Closer interface
func (s *Speaker) Close() error { return nil }

// Say says words through espeak. Cancelling the context kills the process,
// which is how an in-flight utterance gets superseded.
func (s *Speaker) Say(ctx context.Context, i string, o SayOptions) (err error) {
	// Apply defaults
	o = o.withDefaults()

	// Init args
	var args []string
	if v := s.voice(o); len(v) > 0 {
		args = append(args, "-v", v)
	}
	args = append(args, "-s", strconv.Itoa(clampInt(int(175*o.Rate), 80, 450)))
	args = append(args, "-p", strconv.Itoa(clampInt(int(50*o.Pitch), 0, 99)))
	args = append(args, "-a", strconv.Itoa(clampInt(int(100*o.Volume), 0, 200)))
	args = append(args, i)

	// Binary path
	var name = "espeak"
	if len(s.o.BinaryDirPath) > 0 {
		name = filepath.Join(s.o.BinaryDirPath, name)
	}

	// Init cmd
	cmd := exec.CommandContext(ctx, name, args...)

	// Exec
	astilog.Debugf("speaker: executing %s", strings.Join(cmd.Args, " "))
	var b []byte
	if b, err = cmd.CombinedOutput(); err != nil {
		// The utterance was cancelled
		if ctx.Err() != nil {
			err = ctx.Err()
			return
		}
		err = errors.Wrapf(err, "speaker: running %s failed with combined output %s", strings.Join(cmd.Args, " "), b)
		return
	}
	return
}

func (s *Speaker) voice(o SayOptions) string {
	if len(s.o.Voice) > 0 {
		return s.o.Voice
	}
	return o.Lang
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
