package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/domain/capture"
	"jan-server/services/consent-api/internal/domain/recording"
	"jan-server/services/consent-api/utils/sessionid"
)

var (
	// ErrSessionNotFound is returned for unknown or evicted session ids.
	ErrSessionNotFound = errors.New("capture session not found")
	// ErrClosed is returned once the pipeline has shut down.
	ErrClosed = errors.New("capture pipeline closed")
)

// Outcomes reported to the Observer when a session is done.
const (
	OutcomeUploaded      = "uploaded"
	OutcomeLedgerWarning = "ledger_warning"
	OutcomeEmpty         = "empty"
	OutcomeFailed        = "failed"
	OutcomeAborted       = "aborted"
)

// FeedableDevice is a capture device whose chunks are pushed by the caller.
type FeedableDevice interface {
	capture.Device
	Feed(chunk []byte) error
}

// DeviceFactory returns a fresh device for one session.
type DeviceFactory func(mediaType string) FeedableDevice

// Submitter takes ownership of a finalized recording.
type Submitter interface {
	Submit(ctx context.Context, req recording.UploadRequest) (*recording.Result, error)
}

// Observer receives session lifecycle events.
type Observer interface {
	SessionStarted()
	SessionFinished(outcome string)
}

type nopObserver struct{}

func (nopObserver) SessionStarted()        {}
func (nopObserver) SessionFinished(string) {}

// Options tunes the pipeline.
type Options struct {
	Duration  time.Duration
	MaxBytes  int64
	Retention time.Duration
	Observer  Observer
	Logger    zerolog.Logger
}

// StartRequest opens a new capture session.
type StartRequest struct {
	Campaign  string
	Language  string
	MediaType string
}

// Status is a point-in-time view of a session.
type Status struct {
	ID            string
	State         capture.State
	Campaign      string
	Language      string
	MediaType     string
	Remaining     time.Duration
	BufferedBytes int64
	Reason        capture.StopReason
	CreatedAt     time.Time
	// Finished is true once the blob has been handed off and the outcome is known.
	Finished bool
	Result   *recording.Result
	Err      error
}

type entry struct {
	session   *capture.Session
	device    FeedableDevice
	campaign  string
	language  string
	mediaType string
	createdAt time.Time

	finished   chan struct{}
	result     *recording.Result
	err        error
	finishedAt time.Time
}

// Pipeline owns live capture sessions and hands every finalized blob to the
// submitter exactly once.
type Pipeline struct {
	devices   DeviceFactory
	submitter Submitter
	opts      Options
	observer  Observer
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
	watchers sync.WaitGroup
}

func New(devices DeviceFactory, submitter Submitter, opts Options) *Pipeline {
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Pipeline{
		devices:   devices,
		submitter: submitter,
		opts:      opts,
		observer:  observer,
		log:       opts.Logger.With().Str("component", "capture-pipeline").Logger(),
		now:       time.Now,
		sessions:  make(map[string]*entry),
	}
}

// StartSession acquires a device and starts recording. Device failures wrap
// capture.ErrDeviceUnavailable and leave nothing registered.
func (p *Pipeline) StartSession(ctx context.Context, req StartRequest) (Status, error) {
	p.evictExpired()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return Status{}, ErrClosed
	}

	id := sessionid.New()
	device := p.devices(req.MediaType)
	session := capture.NewSession(id, device, capture.Options{
		Duration: p.opts.Duration,
		MaxBytes: p.opts.MaxBytes,
		Logger:   p.opts.Logger,
	})
	if err := session.Start(ctx); err != nil {
		return Status{}, err
	}

	e := &entry{
		session:   session,
		device:    device,
		campaign:  strings.TrimSpace(req.Campaign),
		language:  req.Language,
		mediaType: req.MediaType,
		createdAt: p.now(),
		finished:  make(chan struct{}),
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		session.Abort()
		return Status{}, ErrClosed
	}
	p.sessions[id] = e
	p.watchers.Add(1)
	p.mu.Unlock()

	p.observer.SessionStarted()
	go p.watch(id, e)

	p.log.Info().Str("session_id", id).Str("campaign", e.campaign).Str("language", e.language).Msg("capture session started")
	return p.status(id, e), nil
}

// PushChunk appends one chunk to a recording session.
func (p *Pipeline) PushChunk(id string, chunk []byte) error {
	e, err := p.lookup(id)
	if err != nil {
		return err
	}
	if state := e.session.State(); state != capture.StateRecording {
		return fmt.Errorf("%w: session is %s", capture.ErrInvalidState, state)
	}
	return e.device.Feed(chunk)
}

// StopSession finalizes the session, if still recording, and waits for the
// upload outcome or ctx.
func (p *Pipeline) StopSession(ctx context.Context, id string) (Status, error) {
	e, err := p.lookup(id)
	if err != nil {
		return Status{}, err
	}
	e.session.Stop()

	select {
	case <-e.finished:
	case <-ctx.Done():
		return p.status(id, e), ctx.Err()
	}
	return p.status(id, e), nil
}

// Wait blocks until the session outcome is known or ctx is done.
func (p *Pipeline) Wait(ctx context.Context, id string) (Status, error) {
	e, err := p.lookup(id)
	if err != nil {
		return Status{}, err
	}
	select {
	case <-e.finished:
		return p.status(id, e), nil
	case <-ctx.Done():
		return p.status(id, e), ctx.Err()
	}
}

// Status returns the current view of a session.
func (p *Pipeline) Status(id string) (Status, error) {
	e, err := p.lookup(id)
	if err != nil {
		return Status{}, err
	}
	return p.status(id, e), nil
}

// Abort discards a session without uploading.
func (p *Pipeline) Abort(id string) error {
	e, err := p.lookup(id)
	if err != nil {
		return err
	}
	e.session.Abort()
	return nil
}

// Active returns the number of sessions still recording.
func (p *Pipeline) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.sessions {
		if e.session.State() == capture.StateRecording {
			n++
		}
	}
	return n
}

// RunJanitor evicts finished sessions older than the retention window until
// ctx is done.
func (p *Pipeline) RunJanitor(ctx context.Context) error {
	interval := p.opts.Retention / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.evictExpired()
		}
	}
}

// Close stops every recording session, uploads what was captured and waits
// for all outcomes or ctx.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	live := make([]*entry, 0, len(p.sessions))
	for _, e := range p.sessions {
		live = append(live, e)
	}
	p.mu.Unlock()

	for _, e := range live {
		e.session.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.watchers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) watch(id string, e *entry) {
	defer p.watchers.Done()
	<-e.session.Done()

	var (
		result  *recording.Result
		err     error
		outcome string
	)
	blob := e.session.Blob()
	switch {
	case blob == nil:
		err = fmt.Errorf("%w: %s", capture.ErrInvalidState, capture.StopAborted)
		outcome = OutcomeAborted
	default:
		req := recording.RequestFromBlob(blob, e.campaign)
		result, err = p.submitter.Submit(context.Background(), req)
		switch {
		case errors.Is(err, recording.ErrMissingPayload):
			outcome = OutcomeEmpty
		case err != nil:
			outcome = OutcomeFailed
		case result.LedgerWarning != nil:
			outcome = OutcomeLedgerWarning
		default:
			outcome = OutcomeUploaded
		}
	}

	p.mu.Lock()
	e.result = result
	e.err = err
	e.finishedAt = p.now()
	p.mu.Unlock()
	close(e.finished)

	p.observer.SessionFinished(outcome)

	event := p.log.Info()
	if err != nil {
		event = p.log.Warn().Err(err)
	}
	event.Str("session_id", id).Str("outcome", outcome).Str("reason", string(e.session.Reason())).Msg("capture session finished")
}

func (p *Pipeline) lookup(id string) (*entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

func (p *Pipeline) status(id string, e *entry) Status {
	st := Status{
		ID:            id,
		State:         e.session.State(),
		Campaign:      e.campaign,
		Language:      e.language,
		MediaType:     e.mediaType,
		Remaining:     e.session.Remaining(),
		BufferedBytes: e.session.BufferedBytes(),
		Reason:        e.session.Reason(),
		CreatedAt:     e.createdAt,
	}
	select {
	case <-e.finished:
		p.mu.Lock()
		st.Finished = true
		st.Result = e.result
		st.Err = e.err
		p.mu.Unlock()
	default:
	}
	return st
}

func (p *Pipeline) evictExpired() {
	if p.opts.Retention <= 0 {
		return
	}
	cutoff := p.now().Add(-p.opts.Retention)

	p.mu.Lock()
	defer p.mu.Unlock()
	for id, e := range p.sessions {
		if !e.finishedAt.IsZero() && e.finishedAt.Before(cutoff) {
			delete(p.sessions, id)
		}
	}
}
