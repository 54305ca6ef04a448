package main

import (
	"context"

	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/consent"
	"jan-server/services/consent-api/internal/domain/ledger"
	"jan-server/services/consent-api/internal/domain/objectstore"
	"jan-server/services/consent-api/internal/domain/pipeline"
	"jan-server/services/consent-api/internal/domain/recording"
	"jan-server/services/consent-api/internal/infrastructure/device"
	"jan-server/services/consent-api/internal/infrastructure/metrics"
	"jan-server/services/consent-api/internal/infrastructure/spreadsheet"
	"jan-server/services/consent-api/internal/infrastructure/storage"
	"jan-server/services/consent-api/internal/interfaces/httpserver"
	"jan-server/services/consent-api/internal/interfaces/httpserver/handlers"
)

// Storage is what the service needs from a storage backend.
type Storage interface {
	objectstore.Store
	httpserver.HealthChecker
}

// StorageLock releases the single-writer lock on local storage.
type StorageLock func() error

// provideStorage creates the appropriate storage backend based on configuration.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Storage, error) {
	if cfg.IsLocalStorage() {
		return storage.NewLocalStorage(cfg, log)
	}
	return storage.NewS3Storage(ctx, cfg, log)
}

// provideStorageLock holds the local storage directory for this process. S3
// has no equivalent, so concurrent instances there are not prevented.
func provideStorageLock(store Storage, log zerolog.Logger) (StorageLock, error) {
	local, ok := store.(*storage.LocalStorage)
	if !ok {
		log.Warn().Msg("ledger appends are serialized in-process only; run a single instance per bucket")
		return func() error { return nil }, nil
	}
	unlock, err := local.LockWriter()
	if err != nil {
		return nil, err
	}
	return StorageLock(unlock), nil
}

func provideLedgerRepository(cfg *config.Config, store Storage, log zerolog.Logger) *ledger.Repository {
	return ledger.NewRepository(store, spreadsheet.NewCodec(), cfg.LedgerKey, log)
}

func provideLedgerWriter(cfg *config.Config, repo *ledger.Repository, log zerolog.Logger) *ledger.Writer {
	return ledger.NewWriter(repo, cfg.LedgerQueueSize, log)
}

func provideRecordingService(cfg *config.Config, store Storage, writer *ledger.Writer, log zerolog.Logger) *recording.Service {
	keys := recording.NewKeyGenerator(cfg.RecordingPrefix)
	return recording.NewService(cfg, store, metrics.InstrumentLedger(writer), keys, log)
}

func providePipeline(cfg *config.Config, service *recording.Service, log zerolog.Logger) *pipeline.Pipeline {
	pool := device.NewPool(cfg.MaxActiveSessions)
	return pipeline.New(func(mediaType string) pipeline.FeedableDevice {
		return pool.NewPushDevice(mediaType)
	}, service, pipeline.Options{
		Duration:  cfg.CaptureDuration,
		MaxBytes:  cfg.MaxRecordingBytes,
		Retention: cfg.SessionRetention,
		Observer:  metrics.CaptureObserver{},
		Logger:    log,
	})
}

func provideCatalog(cfg *config.Config) *consent.Catalog {
	return consent.NewCatalog(cfg.DefaultLanguage)
}

func provideHandlers(cfg *config.Config, service *recording.Service, pipe *pipeline.Pipeline, repo *ledger.Repository, catalog *consent.Catalog, log zerolog.Logger) *handlers.Provider {
	return handlers.NewProvider(cfg, service, pipe, repo, catalog, log)
}

func provideHTTPServer(cfg *config.Config, log zerolog.Logger, provider *handlers.Provider, store Storage) *httpserver.HttpServer {
	return httpserver.New(cfg, log, provider, store)
}
