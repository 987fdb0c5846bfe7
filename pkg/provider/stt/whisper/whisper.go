// Package whisper provides whisper.cpp-backed stt.Recognizer implementations:
// an HTTP client for a running whisper-server binary (POST /inference), and a
// native CGO binding (see native.go) that loads the model in-process.
//
// Both operate on completed utterances; segmentation has already happened
// upstream in the pipeline by the time Transcribe is called.
package whisper

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voxtally/voxtally/pkg/provider/stt"
)

const (
	// bitsPerSample is fixed at 16 for the signed little-endian PCM audio
	// that whisper.cpp expects.
	bitsPerSample = 16

	defaultLanguage = "zh"
)

// Compile-time assertion that Recognizer implements stt.Recognizer.
var _ stt.Recognizer = (*Recognizer)(nil)

// Option is a functional option for configuring a Recognizer.
type Option func(*Recognizer)

// WithModel sets the model identifier forwarded to the whisper-server
// (e.g., "base", "small"). When empty the server uses whichever model it was
// started with — this is the default.
func WithModel(model string) Option {
	return func(r *Recognizer) { r.model = model }
}

// WithLanguage sets the language code sent to the server (e.g., "zh", "en").
// Defaults to "zh".
func WithLanguage(lang string) Option {
	return func(r *Recognizer) { r.language = lang }
}

// WithHTTPClient replaces the default HTTP client. Useful in tests.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Recognizer) { r.httpClient = c }
}

// Recognizer implements stt.Recognizer against a whisper-server HTTP endpoint.
// It is stateless between calls and safe for concurrent use.
type Recognizer struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Recognizer that connects to the whisper-server at serverURL
// (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Recognizer, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	r := &Recognizer{
		serverURL:  serverURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Transcribe encodes pcm as a WAV file and POSTs it to the whisper-server
// /inference endpoint as multipart/form-data.
func (r *Recognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (stt.Result, error) {
	if len(pcm) == 0 {
		return stt.Result{}, errors.New("whisper: empty audio buffer")
	}

	wav := encodeWAV(pcm, sampleRate)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: write wav data: %w", err)
	}
	if r.language != "" {
		if err := mw.WriteField("language", r.language); err != nil {
			return stt.Result{}, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if r.model != "" {
		if err := mw.WriteField("model", r.model); err != nil {
			return stt.Result{}, fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serverURL+"/inference", &body)
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stt.Result{}, fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: read response body: %w", err)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	return stt.Result{Text: strings.TrimSpace(parsed.Text)}, nil
}

// encodeWAV wraps raw 16-bit signed little-endian mono PCM data in a standard
// RIFF/WAV container suitable for multipart upload.
func encodeWAV(pcm []byte, sampleRate int) []byte {
	const channels = 1
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}
