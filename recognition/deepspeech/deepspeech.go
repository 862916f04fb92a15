package deepspeech

import (
	"os"

	"github.com/asticode/go-astideepspeech"
	"github.com/asticode/go-astilog"
	astipcm "github.com/asticode/go-astitools/pcm"
	"github.com/pkg/errors"
)

// DeepSpeech model input format
const (
	modelSampleRate = 16000
	modelBitDepth   = 16
)

// Parser parses speech locally through a DeepSpeech model
type Parser struct {
	m *astideepspeech.Model
	o Options
}

type Options struct {
	AlphabetConfigPath   string  `toml:"alphabet_config_path"`
	BeamWidth            int     `toml:"beam_width"`
	LMPath               string  `toml:"lm_path"`
	LMWeight             float64 `toml:"lm_weight"`
	ModelPath            string  `toml:"model_path"`
	NCep                 int     `toml:"ncep"`
	NContext             int     `toml:"ncontext"`
	TriePath             string  `toml:"trie_path"`
	ValidWordCountWeight float64 `toml:"valid_word_count_weight"`
	WordCountWeight      float64 `toml:"word_count_weight"`
}

// New creates a new parser
func New(o Options) (p *Parser) {
	// Create parser
	p = &Parser{o: o}

	// Only do the following if the model exists
	if _, err := os.Stat(o.ModelPath); err == nil {
		// Create model
		p.m = astideepspeech.New(o.ModelPath, o.NCep, o.NContext, o.AlphabetConfigPath, o.BeamWidth)

		// Enable decoder with lm
		if len(o.LMPath) > 0 {
			p.m.EnableDecoderWithLM(o.AlphabetConfigPath, o.LMPath, o.TriePath, o.LMWeight, o.WordCountWeight, o.ValidWordCountWeight)
		}
	} else {
		astilog.Debugf("deepspeech: %s doesn't exist, skipping model creation", o.ModelPath)
	}
	return
}

// Close implements the io.Closer interface
func (p *Parser) Close() error {
	// Close model
	if p.m != nil {
		astilog.Debug("deepspeech: closing model")
		if err := p.m.Close(); err != nil {
			astilog.Error(errors.Wrap(err, "deepspeech: closing model failed"))
		}
	}
	return nil
}

// Parse implements the recognition.Parser interface. DeepSpeech doesn't
// score its output, confidence is reported as 1.
func (p *Parser) Parse(samples []int32, sampleRate, significantBits int) (text string, confidence float64, err error) {
	// Model has not been set
	if p.m == nil {
		return
	}

	// Create sample rate converter
	var samples16 []int16
	c := astipcm.NewSampleRateConverter(float64(sampleRate), modelSampleRate, func(s int32) (err error) {
		// Convert bit depth
		if s, err = astipcm.ConvertBitDepth(s, significantBits, modelBitDepth); err != nil {
			err = errors.Wrap(err, "deepspeech: converting bit depth failed")
			return
		}

		// Append sample
		samples16 = append(samples16, int16(s))
		return
	})

	// Loop through samples
	for _, s := range samples {
		if err = c.Add(s); err != nil {
			err = errors.Wrap(err, "deepspeech: adding sample to sample rate converter failed")
			return
		}
	}

	// Speech to text
	text = p.m.SpeechToText(samples16, len(samples16), modelSampleRate)
	confidence = 1
	return
}
