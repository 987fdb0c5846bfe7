package audio

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable is returned by FrameSource.Start when the capture
// device cannot be acquired even after bounded retries. It is the only fatal
// error in the capture path; everything downstream recovers locally.
var ErrDeviceUnavailable = errors.New("audio: capture device unavailable")

// FrameSource delivers a lazy, infinite sequence of PCM frames from a capture
// device until explicitly stopped. A source is restartable: Start may be
// called again after Stop. The device handle is exclusively owned by the
// source — no other component touches it.
//
// Implementations must be safe for concurrent use. The frame channel is
// closed when the source stops, either via Stop or because the context passed
// to Start was cancelled.
type FrameSource interface {
	// Start acquires the device and begins delivering frames on the channel
	// returned by Frames. Device acquisition failures are retried with
	// backoff before ErrDeviceUnavailable is returned. A transient read
	// failure after a successful Start drops a single frame and continues —
	// it is never fatal.
	Start(ctx context.Context) error

	// Frames returns the channel on which captured frames are delivered.
	// Frames carry strictly increasing Seq values.
	Frames() <-chan Frame

	// Stop halts capture and closes the frame channel. The source may be
	// started again afterwards. Calling Stop on a stopped source is a no-op.
	Stop() error

	// Close releases the device permanently. After Close the source cannot
	// be restarted. Calling Close more than once is safe and returns nil.
	Close() error
}
