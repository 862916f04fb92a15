package whisperd

import (
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/accesswork/go-accessvoice/recognition"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// Audio formats
const (
	audioFormatPCM = 1
)

// Parser parses speech through a whisper-like HTTP inference server that
// accepts a multipart "file" field and returns JSON
// {"text": "...", "confidence": 0.9}.
type Parser struct {
	c *http.Client
	o Options
}

type Options struct {
	Endpoint string        `toml:"endpoint"`
	Timeout  time.Duration `toml:"timeout"`
}

// New creates a new parser
func New(o Options) *Parser {
	// Default endpoint
	if o.Endpoint == "" {
		o.Endpoint = "http://127.0.0.1:7070/inference"
	}

	// Default timeout
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	return &Parser{
		c: &http.Client{Timeout: o.Timeout},
		o: o,
	}
}

type response struct {
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// Parse implements the recognition.Parser interface
func (p *Parser) Parse(samples []int32, sampleRate, significantBits int) (text string, confidence float64, err error) {
	// Encode samples to wav
	var ws []byte
	if ws, err = encodeWav(samples, sampleRate, significantBits); err != nil {
		err = errors.Wrap(err, "whisperd: encoding wav failed")
		return
	}

	// Build multipart form with field name "file"
	var b bytes.Buffer
	mw := multipart.NewWriter(&b)
	var fw io.Writer
	if fw, err = mw.CreateFormFile("file", "speech.wav"); err != nil {
		err = errors.Wrap(err, "whisperd: creating form file failed")
		return
	}
	if _, err = fw.Write(ws); err != nil {
		err = errors.Wrap(err, "whisperd: writing form file failed")
		return
	}
	if err = mw.Close(); err != nil {
		err = errors.Wrap(err, "whisperd: closing multipart writer failed")
		return
	}

	// Create request
	var req *http.Request
	if req, err = http.NewRequest(http.MethodPost, p.o.Endpoint, &b); err != nil {
		err = errors.Wrap(err, "whisperd: creating request failed")
		return
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// Send request
	var resp *http.Response
	if resp, err = p.c.Do(req); err != nil {
		err = recognition.NewError(recognition.ErrorCodeNetwork, errors.Wrapf(err, "whisperd: posting to %s failed", p.o.Endpoint))
		return
	}
	defer resp.Body.Close()

	// Read body
	var body []byte
	if body, err = ioutil.ReadAll(resp.Body); err != nil {
		err = recognition.NewError(recognition.ErrorCodeNetwork, errors.Wrap(err, "whisperd: reading response body failed"))
		return
	}

	// Check status code
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = recognition.NewError(recognition.ErrorCodeNetwork, errors.Errorf("whisperd: server returned status %d: %s", resp.StatusCode, body))
		return
	}

	// Unmarshal
	var r response
	if err = json.Unmarshal(body, &r); err != nil {
		err = errors.Wrap(err, "whisperd: unmarshaling response failed")
		return
	}

	// Default confidence when the server provides none
	text = r.Text
	confidence = r.Confidence
	if confidence == 0 {
		confidence = 1
	}
	return
}

// wavBuffer is an in-memory io.WriteSeeker so that the wav encoder doesn't
// need a temporary file
type wavBuffer struct {
	b   []byte
	off int64
}

func (w *wavBuffer) Write(p []byte) (n int, err error) {
	// Grow buffer
	if need := w.off + int64(len(p)); need > int64(len(w.b)) {
		b := make([]byte, need)
		copy(b, w.b)
		w.b = b
	}

	// Write at offset
	n = copy(w.b[w.off:], p)
	w.off += int64(n)
	return
}

func (w *wavBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		w.off = offset
	case io.SeekCurrent:
		w.off += offset
	case io.SeekEnd:
		w.off = int64(len(w.b)) + offset
	}
	if w.off < 0 {
		return 0, errors.New("whisperd: negative seek offset")
	}
	return w.off, nil
}

func encodeWav(samples []int32, sampleRate, significantBits int) (b []byte, err error) {
	// Convert samples
	data := make([]int, len(samples))
	for idx, s := range samples {
		data[idx] = int(s)
	}

	// Create encoder
	w := &wavBuffer{}
	e := wav.NewEncoder(w, sampleRate, significantBits, 1, audioFormatPCM)

	// Write
	if err = e.Write(&audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: significantBits,
	}); err != nil {
		err = errors.Wrap(err, "whisperd: writing wav samples failed")
		return
	}

	// Close encoder
	if err = e.Close(); err != nil {
		err = errors.Wrap(err, "whisperd: closing wav encoder failed")
		return
	}
	b = w.b
	return
}
