// This file contains the NativeRecognizer implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/voxtally/voxtally/pkg/provider/stt"
)

// Compile-time assertion that NativeRecognizer satisfies stt.Recognizer.
var _ stt.Recognizer = (*NativeRecognizer)(nil)

// NativeRecognizer implements stt.Recognizer using the whisper.cpp Go
// bindings (CGO), eliminating HTTP overhead entirely. The model is loaded
// once at construction and shared across calls; each Transcribe creates its
// own whisper context, so concurrent calls do not interfere.
type NativeRecognizer struct {
	model    whisperlib.Model
	language string
}

// NativeOption is a functional option for configuring a NativeRecognizer.
type NativeOption func(*NativeRecognizer)

// WithNativeLanguage sets the language code for transcription (e.g., "zh",
// "en"). Defaults to "zh".
func WithNativeLanguage(lang string) NativeOption {
	return func(r *NativeRecognizer) { r.language = lang }
}

// NewNative creates a NativeRecognizer that loads the whisper.cpp model from
// the given file path. The caller must call Close when the recognizer is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeRecognizer, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	r := &NativeRecognizer{model: model, language: defaultLanguage}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Close releases the whisper model.
func (r *NativeRecognizer) Close() error {
	if r.model != nil {
		return r.model.Close()
	}
	return nil
}

// Transcribe converts pcm to float32 samples, runs whisper.cpp inference on a
// fresh context, and returns the concatenated segment text. ctx is checked
// before inference starts; whisper.cpp itself cannot be interrupted mid-run,
// so the dispatcher's timeout bounds the wait, not the computation.
func (r *NativeRecognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (stt.Result, error) {
	if err := ctx.Err(); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	if len(pcm) == 0 {
		return stt.Result{}, errors.New("whisper: empty audio buffer")
	}
	_ = sampleRate // whisper.cpp expects 16 kHz input; the pipeline captures at that rate

	samples := pcmToFloat32(pcm)

	// Each whisper context is NOT thread-safe, but the model can be shared.
	wctx, err := r.model.NewContext()
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(r.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", r.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stt.Result{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return stt.Result{Text: strings.Join(parts, " ")}, nil
}

// pcmToFloat32 converts 16-bit signed little-endian mono PCM to the
// normalized float32 samples whisper.cpp consumes.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:i*2+2]))) / 32768.0
	}
	return out
}
