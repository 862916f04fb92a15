package sound_feedback

import (
	"math"
	"time"
)

// Envelope floor the gain decays to at the end of a tone
const envelopeFloor = 0.01

// Render synthesizes a recipe into mono samples. Tones are mixed additively
// so delayed tones may overlap with earlier ones.
func Render(r Recipe, sampleRate int) (samples []int32) {
	// Get total duration
	var total time.Duration
	for _, t := range r.Tones {
		if end := t.Delay + t.Duration; end > total {
			total = end
		}
	}

	// Allocate samples
	out := make([]float64, int(float64(sampleRate)*total.Seconds()))

	// Mix tones
	for _, t := range r.Tones {
		mix(out, t, sampleRate)
	}

	// Convert to 32 bit signed samples
	samples = make([]int32, len(out))
	for idx, v := range out {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		samples[idx] = int32(v * math.MaxInt32)
	}
	return
}

func mix(out []float64, t Tone, sampleRate int) {
	start := int(float64(sampleRate) * t.Delay.Seconds())
	n := int(float64(sampleRate) * t.Duration.Seconds())
	for idx := 0; idx < n && start+idx < len(out); idx++ {
		at := float64(idx) / float64(sampleRate)
		out[start+idx] += oscillate(t.Waveform, t.Frequency, at) * envelope(t.Gain, at/t.Duration.Seconds())
	}
}

// envelope starts at the gain and ramps exponentially down to the floor over
// the tone's duration
func envelope(gain, progress float64) float64 {
	if gain <= 0 {
		return 0
	}
	return gain * math.Pow(envelopeFloor/gain, progress)
}

func oscillate(waveform string, frequency, at float64) float64 {
	switch waveform {
	case SawtoothWaveform:
		p := frequency * at
		return 2 * (p - math.Floor(p+0.5))
	default:
		return math.Sin(2 * math.Pi * frequency * at)
	}
}
