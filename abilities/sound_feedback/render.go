package sound_feedback

import (
	"io"
	"net/http"
	"time"

	"github.com/asticode/go-astichartjs"
	astiptr "github.com/asticode/go-astitools/ptr"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	accessvoice "github.com/accesswork/go-accessvoice"
)

// Render output format
const (
	renderSampleRate = 44100
	renderBitDepth   = 32
	audioFormatPCM   = 1
)

// handleRender serves a cue as a wav file
func (r *Runnable) handleRender(rw http.ResponseWriter, req *http.Request, p httprouter.Params) {
	// Render samples
	samples := Render(RecipeFor(p.ByName("kind")), renderSampleRate)

	// Convert samples
	data := make([]int, len(samples))
	for idx, s := range samples {
		data[idx] = int(s)
	}

	// Encode wav
	w := &seekBuffer{}
	e := wav.NewEncoder(w, renderSampleRate, renderBitDepth, 1, audioFormatPCM)
	if err := e.Write(&audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  renderSampleRate,
		},
		SourceBitDepth: renderBitDepth,
	}); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusInternalServerError, errors.Wrap(err, "sound_feedback: writing wav samples failed"))
		return
	}
	if err := e.Close(); err != nil {
		accessvoice.WriteHTTPError(rw, http.StatusInternalServerError, errors.Wrap(err, "sound_feedback: closing wav encoder failed"))
		return
	}

	// Write response
	rw.Header().Set("Content-Type", "audio/wav")
	rw.Write(w.b)
}

// References describe the recipe envelopes as charts
type References struct {
	Charts []astichartjs.Chart `json:"charts"`
}

// handleReferences serves one gain-envelope chart per recipe
func (r *Runnable) handleReferences(rw http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	var o References
	for _, recipe := range Recipes() {
		o.Charts = append(o.Charts, recipeChart(recipe))
	}
	accessvoice.WriteHTTPData(rw, o)
}

func recipeChart(recipe Recipe) (c astichartjs.Chart) {
	// Create chart
	c = astichartjs.Chart{
		Data: &astichartjs.Data{},
		Options: &astichartjs.Options{
			Scales: &astichartjs.Scales{
				XAxes: []astichartjs.Axis{
					{
						Position: astichartjs.ChartAxisPositionsBottom,
						ScaleLabel: &astichartjs.ScaleLabel{
							Display:     astiptr.Bool(true),
							LabelString: "Duration (ms)",
						},
						Type: astichartjs.ChartAxisTypesLinear,
					},
				},
				YAxes: []astichartjs.Axis{
					{
						ScaleLabel: &astichartjs.ScaleLabel{
							Display:     astiptr.Bool(true),
							LabelString: "Gain",
						},
					},
				},
			},
			Title: &astichartjs.Title{Display: astiptr.Bool(true)},
		},
		Type: astichartjs.ChartTypeLine,
	}

	// Add one dataset per tone
	for _, t := range recipe.Tones {
		d := astichartjs.Dataset{
			BackgroundColor: astichartjs.ChartBackgroundColorGreen,
			BorderColor:     astichartjs.ChartBorderColorGreen,
			Label:           recipe.Kind,
		}
		const step = 5 * time.Millisecond
		for at := time.Duration(0); at <= t.Duration; at += step {
			d.Data = append(d.Data, astichartjs.DataPoint{
				X: float64((t.Delay + at) / time.Millisecond),
				Y: envelope(t.Gain, at.Seconds()/t.Duration.Seconds()),
			})
		}
		c.Data.Datasets = append(c.Data.Datasets, d)
	}
	return
}

// seekBuffer is an in-memory io.WriteSeeker so that the wav encoder doesn't
// need a temporary file
type seekBuffer struct {
	b   []byte
	off int64
}

func (w *seekBuffer) Write(p []byte) (n int, err error) {
	if need := w.off + int64(len(p)); need > int64(len(w.b)) {
		b := make([]byte, need)
		copy(b, w.b)
		w.b = b
	}
	n = copy(w.b[w.off:], p)
	w.off += int64(n)
	return
}

func (w *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		w.off = offset
	case io.SeekCurrent:
		w.off += offset
	case io.SeekEnd:
		w.off = int64(len(w.b)) + offset
	}
	if w.off < 0 {
		return 0, errors.New("sound_feedback: negative seek offset")
	}
	return w.off, nil
}
