package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/ledger"
	"jan-server/services/consent-api/internal/interfaces/httpserver/responses"
	"jan-server/services/consent-api/internal/utils/platformerrors"
)

// LedgerReader lists ledger rows.
type LedgerReader interface {
	Entries(ctx context.Context) ([]ledger.Entry, error)
}

type LedgerHandler struct {
	cfg     *config.Config
	entries LedgerReader
	log     zerolog.Logger
}

func NewLedgerHandler(cfg *config.Config, entries LedgerReader, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		cfg:     cfg,
		entries: entries,
		log:     log.With().Str("component", "ledger-handler").Logger(),
	}
}

// List godoc
// @Summary      List ledger entries
// @Description  Reads the recording ledger document and returns its rows in append order.
// @Tags         ledger
// @Produce      json
// @Success      200  {object}  responses.LedgerResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Router       /v1/ledger [get]
func (h *LedgerHandler) List(c *gin.Context) {
	entries, err := h.entries.Entries(c.Request.Context())
	if err != nil {
		perr := domainError(c.Request.Context(), err, "failed to read ledger")
		platformerrors.LogError(h.log, perr)
		responses.HandleError(c, perr, "failed to read ledger")
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	c.JSON(http.StatusOK, responses.LedgerResponse{
		Key:     h.cfg.LedgerKey,
		Total:   len(entries),
		Entries: entries,
	})
}
