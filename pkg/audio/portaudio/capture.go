// Package portaudio implements audio.FrameSource on top of a PortAudio input
// stream. The capture loop runs on its own goroutine driven by the device's
// callback cadence; it never blocks on downstream consumers — when the frame
// channel is full the frame is dropped and counted, because stalling the
// audio thread loses more audio than skipping one buffer.
package portaudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/voxtally/voxtally/internal/resilience"
	"github.com/voxtally/voxtally/pkg/audio"
)

// Compile-time assertion that Source implements audio.FrameSource.
var _ audio.FrameSource = (*Source)(nil)

// Config holds capture parameters for a PortAudio source.
type Config struct {
	// SampleRate in Hz. Default: 16000.
	SampleRate int

	// FrameSizeMs is the hop size — the duration of each emitted frame in
	// milliseconds. Default: 20.
	FrameSizeMs int

	// DeviceName selects a specific input device by name. Empty selects the
	// system default input.
	DeviceName string

	// AcquireAttempts bounds device acquisition retries before Start gives up
	// with audio.ErrDeviceUnavailable. Default: 3.
	AcquireAttempts int
}

// Source captures mono 16-bit PCM frames from a PortAudio input stream.
// All methods are safe for concurrent use.
type Source struct {
	cfg Config

	mu      sync.Mutex
	stream  *portaudio.Stream
	frames  chan audio.Frame
	stopped chan struct{}
	running bool
	closed  bool
	inited  bool
}

// New creates a Source with the given configuration. PortAudio itself is not
// initialised until Start.
func New(cfg Config) *Source {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.FrameSizeMs <= 0 {
		cfg.FrameSizeMs = 20
	}
	if cfg.AcquireAttempts <= 0 {
		cfg.AcquireAttempts = 3
	}
	return &Source{cfg: cfg}
}

// Start acquires the input device and begins delivering frames. Acquisition
// is retried with backoff; if every attempt fails the error wraps
// audio.ErrDeviceUnavailable and the pipeline cannot start.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("portaudio: source is closed")
	}
	if s.running {
		return errors.New("portaudio: source already running")
	}

	if !s.inited {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio: initialize: %w", err)
		}
		s.inited = true
	}

	samplesPerFrame := s.cfg.SampleRate * s.cfg.FrameSizeMs / 1000
	buffer := make([]int16, samplesPerFrame)

	var stream *portaudio.Stream
	err := resilience.Retry(ctx, resilience.RetryConfig{
		Name:     "audio device acquisition",
		Attempts: s.cfg.AcquireAttempts,
	}, func() error {
		var openErr error
		stream, openErr = s.open(buffer)
		return openErr
	})
	if err != nil {
		return fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: start stream: %v", audio.ErrDeviceUnavailable, err)
	}

	s.stream = stream
	s.frames = make(chan audio.Frame, 64)
	s.stopped = make(chan struct{})
	s.running = true

	go s.captureLoop(ctx, stream, buffer, s.frames, s.stopped)

	slog.Info("portaudio: capture started",
		"sample_rate", s.cfg.SampleRate,
		"frame_ms", s.cfg.FrameSizeMs,
		"device", s.deviceLabel(),
	)
	return nil
}

// open opens a PortAudio stream on the configured device, falling back to the
// default input when the named device is not found.
func (s *Source) open(buffer []int16) (*portaudio.Stream, error) {
	if s.cfg.DeviceName != "" && s.cfg.DeviceName != "default" {
		device, err := findInputDevice(s.cfg.DeviceName)
		if err == nil {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: 1,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      float64(s.cfg.SampleRate),
				FramesPerBuffer: len(buffer),
			}
			return portaudio.OpenStream(params, buffer)
		}
		slog.Warn("portaudio: configured device not found, using default input",
			"device", s.cfg.DeviceName, "error", err)
	}
	return portaudio.OpenDefaultStream(1, 0, float64(s.cfg.SampleRate), len(buffer), buffer)
}

// captureLoop reads buffers from the stream until stopped. A single failed
// read is a glitch: the frame is skipped and the loop continues.
func (s *Source) captureLoop(ctx context.Context, stream *portaudio.Stream, buffer []int16, out chan<- audio.Frame, stopped <-chan struct{}) {
	defer close(out)

	var (
		seq     uint64
		elapsed time.Duration
		dropped uint64
	)
	frameDur := time.Duration(s.cfg.FrameSizeMs) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopped:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			select {
			case <-stopped:
				return
			default:
			}
			slog.Debug("portaudio: read glitch, frame skipped", "seq", seq, "error", err)
			continue
		}

		frame := audio.Frame{
			Data:       int16ToBytes(buffer),
			SampleRate: s.cfg.SampleRate,
			Seq:        seq,
			Timestamp:  elapsed,
		}
		seq++
		elapsed += frameDur

		select {
		case out <- frame:
		default:
			dropped++
			if dropped%100 == 1 {
				slog.Warn("portaudio: consumer too slow, dropping frames", "dropped", dropped)
			}
		}
	}
}

// Stop halts capture, closes the frame channel, and releases the stream.
// The source may be started again afterwards.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopped)

	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			slog.Warn("portaudio: stream stop", "error", err)
		}
		if err := s.stream.Close(); err != nil {
			return fmt.Errorf("portaudio: close stream: %w", err)
		}
		s.stream = nil
	}
	return nil
}

// Frames returns the delivery channel. Valid after Start.
func (s *Source) Frames() <-chan audio.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close stops capture and terminates PortAudio. The source cannot be
// restarted afterwards. Calling Close more than once is safe.
func (s *Source) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.inited {
		s.inited = false
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("portaudio: terminate: %w", err)
		}
	}
	return nil
}

func (s *Source) deviceLabel() string {
	if s.cfg.DeviceName == "" {
		return "default"
	}
	return s.cfg.DeviceName
}

// findInputDevice locates an input-capable PortAudio device by name.
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}

// int16ToBytes copies samples into a fresh little-endian byte slice. The
// PortAudio buffer is reused between reads, so the copy is mandatory.
func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}
