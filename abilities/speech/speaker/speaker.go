package speaker

import "github.com/go-ole/go-ole"

// Speaker synthesizes text into spoken voice output using the platform's
// speech facility
type Speaker struct {
	o Options

	// Windows
	windowsIDispatch *ole.IDispatch
	windowsIUnknown  *ole.IUnknown
}

type Options struct {
	BinaryDirPath string `toml:"binary_dir_path"`
	Voice         string `toml:"voice"`
}

// SayOptions shape one utterance
type SayOptions struct {
	Lang   string  `json:"lang,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// Default utterance shaping
const (
	defaultPitch  = 1
	defaultRate   = 0.9
	defaultVolume = 1
)

func (o SayOptions) withDefaults() SayOptions {
	if o.Pitch <= 0 {
		o.Pitch = defaultPitch
	}
	if o.Rate <= 0 {
		o.Rate = defaultRate
	}
	if o.Volume <= 0 {
		o.Volume = defaultVolume
	}
	return o
}

// New creates a new speaker
func New(o Options) *Speaker {
	return &Speaker{o: o}
}
