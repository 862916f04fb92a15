package speaker

import (
	"context"

	"github.com/asticode/go-astilog"
	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"github.com/pkg/errors"
)

// SAPI SpeechVoiceSpeakFlags
const (
	svsfLagsAsync           = 1
	svsfPurgeBeforeSpeaking = 2
)

// Init initializes the speaker
func (s *Speaker) Init() (err error) {
	// Initialize ole
	astilog.Debug("speaker: initializing ole")
	if err = ole.CoInitialize(0); err != nil {
		err = errors.Wrap(err, "speaker: initializing ole failed")
		return
	}

	// Create SAPI.SpVoice object
	astilog.Debug("speaker: creating SAPI.SpVoice ole object")
	if s.windowsIUnknown, err = oleutil.CreateObject("SAPI.SpVoice"); err != nil {
		err = errors.Wrap(err, "speaker: creating SAPI.SpVoice ole object failed")
		return
	}

	// Get IDispatch
	astilog.Debug("speaker: getting ole IDispatch")
	if s.windowsIDispatch, err = s.windowsIUnknown.QueryInterface(ole.IID_IDispatch); err != nil {
		err = errors.Wrap(err, "speaker: getting ole IDispatch failed")
		return
	}
	return
}

// Close implements the io.Closer interface
func (s *Speaker) Close() (err error) {
	// Release IDispatch
	astilog.Debug("speaker: releasing IDispatch")
	s.windowsIDispatch.Release()

	// Release IUnknown
	astilog.Debug("speaker: releasing IUnknown")
	s.windowsIUnknown.Release()

	// Uninitialize ole
	astilog.Debug("speaker: uninitializing ole")
	ole.CoUninitialize()
	return
}

// Say says words through SAPI. Speaking is asynchronous with
// purge-before-speak so that a new utterance supersedes the previous one.
func (s *Speaker) Say(ctx context.Context, i string, o SayOptions) (err error) {
	// Init has not been executed
	if s.windowsIDispatch == nil {
		err = errors.New("speaker: the Init() method should be called before running anything else")
		return
	}

	// Apply defaults
	o = o.withDefaults()

	// Shape the voice. SAPI rates go from -10 to 10, volumes from 0 to 100.
	if _, err = oleutil.PutProperty(s.windowsIDispatch, "Rate", clampInt(int((o.Rate-1)*10), -10, 10)); err != nil {
		err = errors.Wrap(err, "speaker: setting Rate on IDispatch failed")
		return
	}
	if _, err = oleutil.PutProperty(s.windowsIDispatch, "Volume", clampInt(int(o.Volume*100), 0, 100)); err != nil {
		err = errors.Wrap(err, "speaker: setting Volume on IDispatch failed")
		return
	}

	// Say
	var v *ole.VARIANT
	if v, err = oleutil.CallMethod(s.windowsIDispatch, "Speak", i, svsfLagsAsync|svsfPurgeBeforeSpeaking); err != nil {
		err = errors.Wrap(err, "speaker: calling Speak on IDispatch failed")
		return
	}

	// Clear variant
	if err = v.Clear(); err != nil {
		err = errors.Wrap(err, "speaker: clearing variant failed")
		return
	}

	// Wait until the utterance is done or the context is cancelled
	for {
		// Check context
		if ctx.Err() != nil {
			// Purge the in-flight utterance
			if v, err = oleutil.CallMethod(s.windowsIDispatch, "Speak", "", svsfLagsAsync|svsfPurgeBeforeSpeaking); err != nil {
				err = errors.Wrap(err, "speaker: purging utterance failed")
				return
			}
			if err = v.Clear(); err != nil {
				err = errors.Wrap(err, "speaker: clearing variant failed")
				return
			}
			err = ctx.Err()
			return
		}

		// Wait
		if v, err = oleutil.CallMethod(s.windowsIDispatch, "WaitUntilDone", 100); err != nil {
			err = errors.Wrap(err, "speaker: calling WaitUntilDone on IDispatch failed")
			return
		}
		done := v.Value().(bool)
		if err = v.Clear(); err != nil {
			err = errors.Wrap(err, "speaker: clearing variant failed")
			return
		}
		if done {
			return
		}
	}
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
