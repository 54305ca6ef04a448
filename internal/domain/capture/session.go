package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDuration is the countdown applied when Options.Duration is unset.
const DefaultDuration = 30 * time.Second

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// StopReason records which path finalized a session.
type StopReason string

const (
	StopExplicit StopReason = "stopped"
	StopTimeout  StopReason = "timeout"
	StopLimit    StopReason = "limit"
	StopAborted  StopReason = "aborted"
)

// Blob is the finalized output of one session.
type Blob struct {
	SessionID string
	Data      []byte
	MediaType string
	Chunks    int
	Duration  time.Duration
	Reason    StopReason
}

// Size returns the payload length in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}

// Options tunes a Session.
type Options struct {
	// Duration is the countdown after which the session stops on its own.
	Duration time.Duration
	// MaxBytes bounds the chunk buffer. Zero means unbounded.
	MaxBytes int64
	Logger   zerolog.Logger
}

// Session is one capture lifecycle: Idle -> Recording -> Completed.
// A completed session cannot be restarted.
type Session struct {
	id       string
	device   Device
	duration time.Duration
	maxBytes int64
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	stream    Stream
	mediaType string
	chunks    [][]byte
	size      int64
	full      bool
	startedAt time.Time
	endedAt   time.Time
	timer     *time.Timer
	blob      *Blob
	reason    StopReason
	done      chan struct{}
}

// NewSession creates an idle session bound to device.
func NewSession(id string, device Device, opts Options) *Session {
	duration := opts.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Session{
		id:       id,
		device:   device,
		duration: duration,
		maxBytes: opts.MaxBytes,
		log:      opts.Logger.With().Str("component", "capture-session").Str("session_id", id).Logger(),
		done:     make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start acquires the device and begins recording. On acquisition failure the
// session stays idle and Start may be called again.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidState, state)
	}

	stream, err := s.device.Acquire(ctx)
	if err != nil {
		s.mu.Unlock()
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		s.log.Warn().Err(err).Msg("device acquisition failed")
		return err
	}

	s.stream = stream
	s.mediaType = stream.MediaType()
	s.state = StateRecording
	s.startedAt = time.Now()
	s.timer = time.AfterFunc(s.duration, func() {
		if _, ok := s.finish(StopTimeout); ok {
			s.log.Info().Msg("countdown elapsed, recording stopped")
		}
	})
	s.mu.Unlock()

	// Registered outside the lock: a device may deliver synchronously.
	stream.OnChunk(s.appendChunk)

	s.log.Info().Dur("duration", s.duration).Str("media_type", s.mediaType).Msg("recording started")
	return nil
}

// Stop finalizes a recording session and returns its blob. It is a no-op
// returning (nil, false) when the session is not recording, including when a
// concurrent stop or the countdown already finalized it.
func (s *Session) Stop() (*Blob, bool) {
	return s.finish(StopExplicit)
}

// Abort tears the session down without producing a blob.
func (s *Session) Abort() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.state = StateCompleted
		s.reason = StopAborted
		s.endedAt = time.Now()
		s.mu.Unlock()
		close(s.done)
		return
	}
	s.mu.Unlock()
	s.finish(StopAborted)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining returns the time left on the countdown.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateIdle:
		return s.duration
	case StateRecording:
		left := s.duration - time.Since(s.startedAt)
		if left < 0 {
			return 0
		}
		return left
	default:
		return 0
	}
}

// Done is closed once the session reaches Completed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Blob returns the finalized blob, or nil before completion or after Abort.
func (s *Session) Blob() *Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob
}

// Reason returns how the session ended; empty until completion.
func (s *Session) Reason() StopReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// BufferedBytes returns the number of bytes captured so far.
func (s *Session) BufferedBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *Session) appendChunk(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.mu.Lock()
	if s.state != StateRecording {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: chunk for %s session", ErrInvalidState, state)
	}
	if s.full {
		s.mu.Unlock()
		return fmt.Errorf("%w: session is stopping", ErrBufferFull)
	}
	if s.maxBytes > 0 && s.size+int64(len(chunk)) > s.maxBytes {
		// Later chunks are refused too until finish runs, so the blob stays a prefix.
		s.full = true
		size := s.size
		s.mu.Unlock()
		s.log.Warn().Int64("max_bytes", s.maxBytes).Msg("recording buffer full, stopping")
		// Release may wait for the goroutine delivering this chunk.
		go s.finish(StopLimit)
		return fmt.Errorf("%w: %d buffered + %d bytes exceeds limit of %d", ErrBufferFull, size, len(chunk), s.maxBytes)
	}
	owned := make([]byte, len(chunk))
	copy(owned, chunk)
	s.chunks = append(s.chunks, owned)
	s.size += int64(len(owned))
	s.mu.Unlock()
	return nil
}

// finish moves a recording session to Completed exactly once.
func (s *Session) finish(reason StopReason) (*Blob, bool) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return nil, false
	}
	if s.full && reason != StopAborted {
		reason = StopLimit
	}
	s.state = StateCompleted
	s.reason = reason
	s.endedAt = time.Now()
	if s.timer != nil {
		s.timer.Stop()
	}
	stream := s.stream
	s.stream = nil
	chunks := s.chunks
	s.chunks = nil

	var blob *Blob
	if reason != StopAborted {
		blob = &Blob{
			SessionID: s.id,
			Data:      bytes.Join(chunks, nil),
			MediaType: s.mediaType,
			Chunks:    len(chunks),
			Duration:  s.endedAt.Sub(s.startedAt),
			Reason:    reason,
		}
	}
	s.blob = blob
	s.mu.Unlock()

	if err := stream.Release(); err != nil {
		s.log.Warn().Err(err).Msg("device release failed")
	}
	close(s.done)

	s.log.Info().
		Str("reason", string(reason)).
		Int("chunks", len(chunks)).
		Int64("bytes", blob.Size()).
		Msg("recording finalized")

	return blob, blob != nil
}
