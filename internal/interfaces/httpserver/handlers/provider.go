package handlers

import (
	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/consent"
)

// Provider wires HTTP handlers.
type Provider struct {
	Recording *RecordingHandler
	Session   *SessionHandler
	Ledger    *LedgerHandler
	Consent   *ConsentHandler
}

func NewProvider(cfg *config.Config, submitter RecordingSubmitter, sessions SessionManager, entries LedgerReader, catalog *consent.Catalog, log zerolog.Logger) *Provider {
	return &Provider{
		Recording: NewRecordingHandler(cfg, submitter, log),
		Session:   NewSessionHandler(cfg, sessions, catalog, log),
		Ledger:    NewLedgerHandler(cfg, entries, log),
		Consent:   NewConsentHandler(catalog),
	}
}
