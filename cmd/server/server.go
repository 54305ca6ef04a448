package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/ledger"
	"jan-server/services/consent-api/internal/domain/pipeline"
	"jan-server/services/consent-api/internal/infrastructure/logger"
	"jan-server/services/consent-api/internal/infrastructure/observability"
	"jan-server/services/consent-api/internal/interfaces/httpserver"
)

type Application struct {
	cfg        *config.Config
	httpServer *httpserver.HttpServer
	ledger     *ledger.Writer
	pipeline   *pipeline.Pipeline
	lock       StorageLock
	log        zerolog.Logger
}

func NewApplication(cfg *config.Config, httpServer *httpserver.HttpServer, writer *ledger.Writer, pipe *pipeline.Pipeline, lock StorageLock, log zerolog.Logger) *Application {
	return &Application{
		cfg:        cfg,
		httpServer: httpServer,
		ledger:     writer,
		pipeline:   pipe,
		lock:       lock,
		log:        log,
	}
}

// Start serves until ctx is cancelled. On the way out, sessions still
// recording are stopped and uploaded before the ledger writer exits.
func (a *Application) Start(ctx context.Context) error {
	writerCtx, stopWriter := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWriter()
	writerDone := make(chan error, 1)
	go func() { writerDone <- a.ledger.Run(writerCtx) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.httpServer.Run(gctx) })
	g.Go(func() error { return a.pipeline.RunJanitor(gctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if cerr := a.pipeline.Close(flushCtx); cerr != nil {
		a.log.Warn().Err(cerr).Int("active", a.pipeline.Active()).Msg("capture sessions not flushed before shutdown")
	}

	stopWriter()
	if werr := <-writerDone; werr != nil {
		a.log.Error().Err(werr).Msg("ledger writer stopped with error")
	}
	if uerr := a.lock(); uerr != nil {
		a.log.Warn().Err(uerr).Msg("release storage lock")
	}
	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	store, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}
	lock, err := provideStorageLock(store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("lock storage")
	}

	ledgerRepository := provideLedgerRepository(cfg, store, log)
	ledgerWriter := provideLedgerWriter(cfg, ledgerRepository, log)
	recordingService := provideRecordingService(cfg, store, ledgerWriter, log)
	capturePipeline := providePipeline(cfg, recordingService, log)
	handlerProvider := provideHandlers(cfg, recordingService, capturePipeline, ledgerRepository, provideCatalog(cfg), log)
	httpServer := provideHTTPServer(cfg, log, handlerProvider, store)

	app := NewApplication(cfg, httpServer, ledgerWriter, capturePipeline, lock, log)
	if err := app.Start(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
