package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/objectstore"
	"jan-server/services/consent-api/internal/infrastructure/metrics"
)

const (
	backendLocal  = "local"
	lockFileName  = ".consent-api.lock"
	tempPrefix    = ".upload-"
	healthProbeID = ".health_check"
)

var (
	errLocalStorageDisabled = errors.New("local storage is not configured; set CONSENT_LOCAL_STORAGE_PATH to enable")
	errInvalidKey           = errors.New("invalid object key")
	// ErrLocked means another process holds the storage directory.
	ErrLocked = errors.New("local storage is locked by another process")
)

// LocalStorage stores objects as files under a base directory.
type LocalStorage struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
	disabled bool
}

// NewLocalStorage creates a new local filesystem storage backend.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("CONSENT_LOCAL_STORAGE_PATH is not set; local storage will be disabled")
		return &LocalStorage{log: logger, disabled: true}, nil
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	storage := &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(strings.TrimSpace(cfg.LocalStorageBaseURL), "/"),
		log:      logger,
	}

	logger.Info().
		Str("path", basePath).
		Str("base_url", storage.baseURL).
		Msg("local storage initialized")

	return storage, nil
}

func (l *LocalStorage) ensureEnabled() error {
	if l.disabled {
		return errLocalStorageDisabled
	}
	return nil
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q", errInvalidKey, key)
	}
	return filepath.Join(l.basePath, clean), nil
}

// Put writes data to a temporary file and renames it into place, so readers
// never observe a partial object.
func (l *LocalStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := l.ensureEnabled(); err != nil {
		return "", err
	}
	start := time.Now()
	location, err := l.put(ctx, key, data)
	metrics.RecordStorageOperation(backendLocal, "put", status(err), time.Since(start).Seconds())
	return location, err
}

func (l *LocalStorage) put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath, err := l.path(key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return "", fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	l.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("object stored")
	return l.location(key, fullPath), nil
}

// Get reads an object. A missing file wraps objectstore.ErrNotFound.
func (l *LocalStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, err
	}
	start := time.Now()
	fullPath, err := l.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		metrics.RecordStorageOperation(backendLocal, "get", "not_found", time.Since(start).Seconds())
		return nil, fmt.Errorf("file not found: %s: %w", key, objectstore.ErrNotFound)
	case err != nil:
		metrics.RecordStorageOperation(backendLocal, "get", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	metrics.RecordStorageOperation(backendLocal, "get", "success", time.Since(start).Seconds())
	return data, nil
}

func (l *LocalStorage) location(key, fullPath string) string {
	if l.baseURL != "" {
		return fmt.Sprintf("%s/%s", l.baseURL, strings.TrimPrefix(filepath.ToSlash(key), "/"))
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}
	return "file://" + filepath.ToSlash(abs)
}

// Health checks if the storage directory is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	if l.disabled {
		return errLocalStorageDisabled
	}
	testFile := filepath.Join(l.basePath, healthProbeID)
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

// LockWriter takes an exclusive lock on the storage directory so a single
// server instance owns the local ledger. The returned func releases it.
func (l *LocalStorage) LockWriter() (func() error, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, err
	}
	lockPath := filepath.Join(l.basePath, lockFileName)
	lock := flock.New(lockPath)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}

	l.log.Info().Str("lock", lockPath).Msg("local storage lock acquired")
	return lock.Unlock, nil
}
