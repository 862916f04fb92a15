package sound_feedback

import "time"

// Cue kinds
const (
	KindClick        = "click"
	KindError        = "error"
	KindNotification = "notification"
	KindSuccess      = "success"
	KindToggle       = "toggle"
)

// Waveforms
const (
	SawtoothWaveform = "sawtooth"
	SineWaveform     = "sine"
)

// Tone is one oscillator burst with an attack-then-exponential-decay gain
// envelope
type Tone struct {
	Delay     time.Duration `json:"delay"`
	Duration  time.Duration `json:"duration"`
	Frequency float64       `json:"frequency"`
	Gain      float64       `json:"gain"`
	Waveform  string        `json:"waveform"`
}

// Recipe is the set of tones making up one cue
type Recipe struct {
	Kind  string `json:"kind"`
	Tones []Tone `json:"tones"`
}

var recipes = []Recipe{
	{Kind: KindClick, Tones: []Tone{
		{Duration: 50 * time.Millisecond, Frequency: 800, Gain: 0.1, Waveform: SineWaveform},
	}},
	{Kind: KindToggle, Tones: []Tone{
		{Duration: 100 * time.Millisecond, Frequency: 600, Gain: 0.15, Waveform: SineWaveform},
	}},
	{Kind: KindSuccess, Tones: []Tone{
		{Duration: 100 * time.Millisecond, Frequency: 523.25, Gain: 0.1, Waveform: SineWaveform},
		{Delay: 100 * time.Millisecond, Duration: 100 * time.Millisecond, Frequency: 659.25, Gain: 0.1, Waveform: SineWaveform},
	}},
	{Kind: KindError, Tones: []Tone{
		{Duration: 200 * time.Millisecond, Frequency: 200, Gain: 0.1, Waveform: SawtoothWaveform},
	}},
	{Kind: KindNotification, Tones: []Tone{
		{Duration: 150 * time.Millisecond, Frequency: 1000, Gain: 0.08, Waveform: SineWaveform},
	}},
}

// defaultRecipe is played for unknown kinds
var defaultRecipe = Recipe{Tones: []Tone{
	{Duration: 100 * time.Millisecond, Frequency: 440, Gain: 0.1, Waveform: SineWaveform},
}}

// RecipeFor returns the recipe of a kind, falling back to the default tone
func RecipeFor(kind string) Recipe {
	for _, r := range recipes {
		if r.Kind == kind {
			return r
		}
	}
	r := defaultRecipe
	r.Kind = kind
	return r
}

// Recipes returns all cue recipes
func Recipes() []Recipe { return recipes }
