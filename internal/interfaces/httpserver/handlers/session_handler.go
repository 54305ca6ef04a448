package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/capture"
	"jan-server/services/consent-api/internal/domain/consent"
	"jan-server/services/consent-api/internal/domain/pipeline"
	"jan-server/services/consent-api/internal/interfaces/httpserver/requests"
	"jan-server/services/consent-api/internal/interfaces/httpserver/responses"
	"jan-server/services/consent-api/internal/utils/platformerrors"
)

// SessionManager runs server-side capture sessions.
type SessionManager interface {
	StartSession(ctx context.Context, req pipeline.StartRequest) (pipeline.Status, error)
	PushChunk(id string, chunk []byte) error
	StopSession(ctx context.Context, id string) (pipeline.Status, error)
	Status(id string) (pipeline.Status, error)
	Abort(id string) error
}

// SessionHandler exposes capture sessions fed by chunk uploads.
type SessionHandler struct {
	cfg      *config.Config
	sessions SessionManager
	catalog  *consent.Catalog
	log      zerolog.Logger
}

func NewSessionHandler(cfg *config.Config, sessions SessionManager, catalog *consent.Catalog, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		cfg:      cfg,
		sessions: sessions,
		catalog:  catalog,
		log:      log.With().Str("component", "session-handler").Logger(),
	}
}

// Start godoc
// @Summary      Start a capture session
// @Description  Opens a server-side recording session and returns it with the consent script to read.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request          body      requests.StartSessionRequest  false  "Session options"
// @Param        Accept-Language  header    string                        false  "Consent script language preference"
// @Success      201              {object}  responses.SessionResponse
// @Failure      409              {object}  responses.ErrorResponse
// @Router       /v1/sessions [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req requests.StartSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid session request: "+err.Error())
			return
		}
	}

	script := h.catalog.Resolve(req.Language, c.GetHeader("Accept-Language"))
	st, err := h.sessions.StartSession(c.Request.Context(), req.ToDomain(script.Language.Code))
	if err != nil {
		h.fail(c, err, "failed to start capture session")
		return
	}

	resp := responses.NewSessionResponse(st)
	resp.Consent = &script
	c.JSON(http.StatusCreated, resp)
}

// PushChunk godoc
// @Summary      Append a media chunk
// @Description  Appends the raw request body to the session as one chunk. A chunk past the byte limit is rejected and the session stops.
// @Tags         sessions
// @Accept       application/octet-stream
// @Produce      json
// @Param        id   path      string  true  "Session ID (sess_xxx)"
// @Success      202  {object}  responses.SessionResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Failure      413  {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id}/chunks [post]
func (h *SessionHandler) PushChunk(c *gin.Context) {
	id := c.Param("id")

	body := c.Request.Body
	if h.cfg.MaxRecordingBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.cfg.MaxRecordingBytes)
	}
	chunk, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			responses.HandleNewError(c, platformerrors.ErrorTypeTooLarge, "chunk is too large")
			return
		}
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "failed to read chunk")
		return
	}
	if len(chunk) == 0 {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "chunk body is empty")
		return
	}

	if err := h.sessions.PushChunk(id, chunk); err != nil {
		h.fail(c, err, "failed to append chunk")
		return
	}

	st, err := h.sessions.Status(id)
	if err != nil {
		h.fail(c, err, "failed to read session")
		return
	}
	c.JSON(http.StatusAccepted, responses.NewSessionResponse(st))
}

// Stop godoc
// @Summary      Stop a capture session
// @Description  Finalizes the session and waits for the upload outcome.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID (sess_xxx)"
// @Success      200  {object}  responses.SessionResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id}/stop [post]
func (h *SessionHandler) Stop(c *gin.Context) {
	st, err := h.sessions.StopSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to stop capture session")
		return
	}
	if st.Err != nil && !errors.Is(st.Err, capture.ErrInvalidState) {
		h.fail(c, st.Err, "recording upload failed")
		return
	}
	c.JSON(http.StatusOK, responses.NewSessionResponse(st))
}

// Get godoc
// @Summary      Get a capture session
// @Description  Returns the session state, including the result once finished.
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID (sess_xxx)"
// @Success      200  {object}  responses.SessionResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	st, err := h.sessions.Status(c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to read session")
		return
	}
	c.JSON(http.StatusOK, responses.NewSessionResponse(st))
}

// Abort godoc
// @Summary      Abort a capture session
// @Description  Discards the session without uploading.
// @Tags         sessions
// @Param        id   path      string  true  "Session ID (sess_xxx)"
// @Success      204
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/sessions/{id} [delete]
func (h *SessionHandler) Abort(c *gin.Context) {
	if err := h.sessions.Abort(c.Param("id")); err != nil {
		h.fail(c, err, "failed to abort capture session")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) fail(c *gin.Context, err error, message string) {
	perr := domainError(c.Request.Context(), err, message)
	platformerrors.LogError(h.log, perr)
	responses.HandleError(c, perr, message)
}
