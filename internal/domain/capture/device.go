package capture

import (
	"context"
	"errors"
)

var (
	// ErrDeviceUnavailable means the input device could not be opened:
	// permission denied, no device, or already in use.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrInvalidState is returned when an operation does not apply to the
	// session's current state.
	ErrInvalidState = errors.New("invalid capture session state")
	// ErrBufferFull is returned for a chunk that would push the session past
	// its byte limit. The chunk is not recorded and the session stops.
	ErrBufferFull = errors.New("capture buffer full")
)

// Device grants exclusive access to a combined video and audio input.
type Device interface {
	// Acquire opens the device. Failures must wrap ErrDeviceUnavailable.
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is an opened device producing media chunks.
type Stream interface {
	// OnChunk registers the callback that receives chunks in capture order.
	// Chunks delivered before registration are not replayed. A non-nil error
	// from fn means the chunk was not recorded.
	OnChunk(fn func(chunk []byte) error)
	// MediaType is the container type of the produced chunks, e.g. video/webm.
	MediaType() string
	// Release closes the device. No callbacks are delivered after it returns.
	Release() error
}
