package ledger

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Appender appends a single entry to the ledger.
type Appender interface {
	Append(ctx context.Context, entry Entry) error
}

type appendRequest struct {
	ctx    context.Context
	entry  Entry
	result chan error
}

// Writer funnels every append in the process through one goroutine so the
// read-modify-write cycles of the underlying Appender never overlap.
type Writer struct {
	appender Appender
	requests chan appendRequest
	closing  atomic.Bool
	finished chan struct{}
	log      zerolog.Logger
}

// NewWriter creates a writer with room for queueSize pending appends.
// Run must be started for appends to make progress.
func NewWriter(appender Appender, queueSize int, log zerolog.Logger) *Writer {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Writer{
		appender: appender,
		requests: make(chan appendRequest, queueSize),
		finished: make(chan struct{}),
		log:      log.With().Str("component", "ledger-writer").Logger(),
	}
}

// Run processes queued appends until ctx is cancelled, then drains what is
// already queued and returns. Run must be called at most once.
func (w *Writer) Run(ctx context.Context) error {
	defer close(w.finished)
	w.log.Info().Int("queue_size", cap(w.requests)).Msg("ledger writer started")

	for {
		select {
		case req := <-w.requests:
			w.handle(req)
		case <-ctx.Done():
			w.closing.Store(true)
			for {
				select {
				case req := <-w.requests:
					w.handle(req)
				default:
					w.log.Info().Msg("ledger writer stopped")
					return nil
				}
			}
		}
	}
}

// Append queues entry and waits for it to be written. ctx bounds the wait for
// a queue slot and is handed to the underlying append; once queued, the caller
// waits for the outcome even if ctx ends.
func (w *Writer) Append(ctx context.Context, entry Entry) error {
	if w.closing.Load() {
		return fmt.Errorf("%w: ledger writer is shutting down", ErrWriteFailed)
	}

	req := appendRequest{
		ctx:    ctx,
		entry:  entry,
		result: make(chan error, 1),
	}

	select {
	case w.requests <- req:
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for ledger writer: %w", ErrWriteFailed, ctx.Err())
	case <-w.finished:
		return fmt.Errorf("%w: ledger writer is shut down", ErrWriteFailed)
	}

	select {
	case err := <-req.result:
		return err
	case <-w.finished:
		select {
		case err := <-req.result:
			return err
		default:
			return fmt.Errorf("%w: ledger writer stopped before the entry was written", ErrWriteFailed)
		}
	}
}

func (w *Writer) handle(req appendRequest) {
	err := w.appender.Append(req.ctx, req.entry)
	if err != nil {
		w.log.Error().Err(err).Str("recording_key", req.entry.RecordingKey).Msg("ledger append failed")
	}
	req.result <- err
}
