package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/recording"
	"jan-server/services/consent-api/internal/infrastructure/metrics"
	"jan-server/services/consent-api/internal/interfaces/httpserver/responses"
	"jan-server/services/consent-api/internal/utils/platformerrors"
)

// RecordingFormField is the multipart field carrying the video.
const RecordingFormField = "video"

// RecordingSubmitter stores finalized recordings.
type RecordingSubmitter interface {
	Submit(ctx context.Context, req recording.UploadRequest) (*recording.Result, error)
}

// RecordingHandler accepts finished recordings from clients that captured
// them locally.
type RecordingHandler struct {
	cfg       *config.Config
	submitter RecordingSubmitter
	log       zerolog.Logger
}

func NewRecordingHandler(cfg *config.Config, submitter RecordingSubmitter, log zerolog.Logger) *RecordingHandler {
	return &RecordingHandler{
		cfg:       cfg,
		submitter: submitter,
		log:       log.With().Str("component", "recording-handler").Logger(),
	}
}

// Upload godoc
// @Summary      Upload a consent recording
// @Description  Stores a multipart "video" file and appends it to the ledger. A ledger failure is reported as ledger_warning.
// @Tags         recordings
// @Accept       multipart/form-data
// @Produce      json
// @Param        video     formData  file    true   "Recorded video"
// @Param        campaign  formData  string  false  "Campaign identifier"
// @Success      201       {object}  responses.RecordingResponse
// @Failure      400       {object}  responses.ErrorResponse
// @Failure      413       {object}  responses.ErrorResponse
// @Failure      502       {object}  responses.ErrorResponse
// @Router       /v1/recordings [post]
func (h *RecordingHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile(RecordingFormField)
	if err != nil {
		metrics.RecordUpload("unknown", "rejected", 0)
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "video file is required")
		return
	}
	defer file.Close()

	if h.cfg.MaxRecordingBytes > 0 && header.Size > h.cfg.MaxRecordingBytes {
		metrics.RecordUpload(header.Header.Get("Content-Type"), "rejected", 0)
		err := fmt.Errorf("%w: %d bytes exceeds limit of %d", recording.ErrPayloadTooLarge, header.Size, h.cfg.MaxRecordingBytes)
		responses.HandleError(c, domainError(ctx, err, "recording is too large"), "recording is too large")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read upload")
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "failed to read video file")
		return
	}

	result, err := h.submitter.Submit(ctx, recording.UploadRequest{
		Data:      data,
		MediaType: header.Header.Get("Content-Type"),
		Campaign:  c.PostForm("campaign"),
		Filename:  header.Filename,
	})
	if err != nil {
		status := "error"
		if errors.Is(err, recording.ErrMissingPayload) || errors.Is(err, recording.ErrPayloadTooLarge) {
			status = "rejected"
		}
		metrics.RecordUpload(header.Header.Get("Content-Type"), status, 0)
		perr := domainError(ctx, err, "recording upload failed")
		platformerrors.LogError(h.log, perr)
		responses.HandleError(c, perr, "recording upload failed")
		return
	}

	metrics.RecordUpload(result.MediaType, "success", result.Bytes)
	c.JSON(http.StatusCreated, responses.NewRecordingResponse(result))
}
