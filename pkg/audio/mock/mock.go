// Package mock provides a scripted audio.FrameSource for pipeline tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/voxtally/voxtally/pkg/audio"
)

// Compile-time assertion that Source implements audio.FrameSource.
var _ audio.FrameSource = (*Source)(nil)

// Source is a FrameSource that replays a pre-scripted sequence of PCM frames.
// Frames are delivered as fast as the consumer can read them; Seq and
// Timestamp are assigned in order.
type Source struct {
	// Script holds the PCM payloads to deliver, in order.
	Script [][]byte

	// SampleRate applied to every emitted frame. Defaults to 16000.
	SampleRate int

	// StartErr, when non-nil, is returned by Start without emitting frames.
	StartErr error

	mu      sync.Mutex
	frames  chan audio.Frame
	stopped chan struct{}
	started bool
}

// Start begins replaying the script on a fresh frame channel.
func (s *Source) Start(ctx context.Context) error {
	if s.StartErr != nil {
		return s.StartErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	s.frames = make(chan audio.Frame, len(s.Script)+1)
	s.stopped = make(chan struct{})

	rate := s.SampleRate
	if rate <= 0 {
		rate = 16000
	}

	go func() {
		defer close(s.frames)
		var elapsed time.Duration
		for i, pcm := range s.Script {
			f := audio.Frame{
				Data:       pcm,
				SampleRate: rate,
				Seq:        uint64(i),
				Timestamp:  elapsed,
			}
			elapsed += f.Duration()
			select {
			case s.frames <- f:
			case <-ctx.Done():
				return
			case <-s.stopped:
				return
			}
		}
		// Keep the channel open until stopped so the pipeline does not see a
		// premature end-of-stream.
		select {
		case <-ctx.Done():
		case <-s.stopped:
		}
	}()
	return nil
}

// Frames returns the replay channel. Valid after Start.
func (s *Source) Frames() <-chan audio.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Stop ends the replay and closes the frame channel.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	close(s.stopped)
	return nil
}

// Close is equivalent to Stop for the mock.
func (s *Source) Close() error { return s.Stop() }
