package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/domain/capture"
)

const (
	defaultChunkSize = 64 * 1024
	defaultInterval  = 100 * time.Millisecond
)

// FileOptions tunes how a FileDevice replays its file.
type FileOptions struct {
	ChunkSize int
	Interval  time.Duration
	Logger    zerolog.Logger
}

// FileDevice replays a media file as a stream of chunks. It stands in for a
// camera when recording from the command line.
type FileDevice struct {
	path      string
	chunkSize int
	interval  time.Duration
	log       zerolog.Logger

	mu        sync.Mutex
	acquired  bool
	exhausted chan struct{}
}

func NewFileDevice(path string, opts FileOptions) *FileDevice {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &FileDevice{
		path:      path,
		chunkSize: chunkSize,
		interval:  interval,
		log:       opts.Logger.With().Str("component", "file-device").Str("path", path).Logger(),
		exhausted: make(chan struct{}),
	}
}

// Exhausted is closed once the whole file has been delivered or reading
// failed.
func (d *FileDevice) Exhausted() <-chan struct{} {
	return d.exhausted
}

// Acquire opens the file. A missing or unreadable file wraps
// capture.ErrDeviceUnavailable.
func (d *FileDevice) Acquire(ctx context.Context) (capture.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.acquired {
		return nil, fmt.Errorf("%w: %s already in use", capture.ErrDeviceUnavailable, d.path)
	}

	mtype, err := mimetype.DetectFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrDeviceUnavailable, err)
	}
	file, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrDeviceUnavailable, err)
	}
	d.acquired = true

	return &fileStream{
		device:    d,
		file:      file,
		mediaType: mtype.String(),
		start:     make(chan func([]byte) error, 1),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}, nil
}

type fileStream struct {
	device    *FileDevice
	file      *os.File
	mediaType string

	once     sync.Once
	start    chan func([]byte) error
	stop     chan struct{}
	stopped  chan struct{}
	released sync.Once
}

// OnChunk starts the replay loop.
func (s *fileStream) OnChunk(fn func([]byte) error) {
	s.once.Do(func() {
		s.start <- fn
		go s.run()
	})
}

func (s *fileStream) MediaType() string {
	return s.mediaType
}

func (s *fileStream) run() {
	defer close(s.stopped)
	fn := <-s.start
	d := s.device

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	buf := make([]byte, d.chunkSize)
	for {
		n, err := s.file.Read(buf)
		if n > 0 {
			if ferr := fn(buf[:n]); ferr != nil {
				d.log.Debug().Err(ferr).Msg("chunk rejected, replay stopped")
				close(d.exhausted)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.log.Warn().Err(err).Msg("file read failed")
			}
			close(d.exhausted)
			return
		}

		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// Release stops the replay loop and closes the file. Chunks are not
// delivered after it returns.
func (s *fileStream) Release() error {
	var err error
	s.released.Do(func() {
		close(s.stop)
		s.once.Do(func() { close(s.stopped) })
		<-s.stopped
		err = s.file.Close()
	})
	return err
}
