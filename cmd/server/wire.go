//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/infrastructure/logger"
)

var consentSet = wire.NewSet(
	provideStorage,
	provideStorageLock,
	provideLedgerRepository,
	provideLedgerWriter,
	provideRecordingService,
	providePipeline,
	provideCatalog,
	provideHandlers,
	provideHTTPServer,
)

// BuildApplication assembles the consent API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		consentSet,
		NewApplication,
	)
	return nil, nil
}
