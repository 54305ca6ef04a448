package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"jan-server/services/consent-api/internal/domain/capture"
)

// DefaultMediaType is reported by push devices created without one.
const DefaultMediaType = "video/webm"

// Pool bounds how many push devices may be recording at once.
type Pool struct {
	capacity int64
	slots    *semaphore.Weighted
	active   atomic.Int64
}

func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		capacity: int64(capacity),
		slots:    semaphore.NewWeighted(int64(capacity)),
	}
}

// Capacity returns the configured number of slots.
func (p *Pool) Capacity() int {
	return int(p.capacity)
}

// Active returns the number of slots in use.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

func (p *Pool) tryTake() bool {
	if !p.slots.TryAcquire(1) {
		return false
	}
	p.active.Add(1)
	return true
}

func (p *Pool) give() {
	p.active.Add(-1)
	p.slots.Release(1)
}

// NewPushDevice returns a device that takes a pool slot when acquired.
func (p *Pool) NewPushDevice(mediaType string) *PushDevice {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		mediaType = DefaultMediaType
	}
	return &PushDevice{pool: p, mediaType: mediaType}
}

// PushDevice is a device whose chunks are fed by the caller, one exclusive
// acquisition per device.
type PushDevice struct {
	pool      *Pool
	mediaType string

	mu       sync.Mutex
	acquired bool
	released bool
	fn       func([]byte) error
}

// Acquire takes a pool slot. It fails when the device is already in use or
// the pool is full.
func (d *PushDevice) Acquire(ctx context.Context) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrDeviceUnavailable, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.acquired {
		return nil, fmt.Errorf("%w: device already in use", capture.ErrDeviceUnavailable)
	}
	if !d.pool.tryTake() {
		return nil, fmt.Errorf("%w: all %d capture slots are busy", capture.ErrDeviceUnavailable, d.pool.capacity)
	}
	d.acquired = true
	return d, nil
}

func (d *PushDevice) OnChunk(fn func([]byte) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fn = fn
}

func (d *PushDevice) MediaType() string {
	return d.mediaType
}

// Feed delivers one chunk to the registered callback. Feeds are serialized,
// so chunks arrive in call order. A rejected chunk returns the callback's
// error.
func (d *PushDevice) Feed(chunk []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.acquired || d.released {
		return fmt.Errorf("%w: device is not recording", capture.ErrInvalidState)
	}
	if d.fn == nil {
		return nil
	}
	return d.fn(chunk)
}

// Release frees the pool slot. It is safe to call more than once.
func (d *PushDevice) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.acquired || d.released {
		return nil
	}
	d.released = true
	d.fn = nil
	d.pool.give()
	return nil
}
