package handlers

import (
	"context"
	"errors"

	"jan-server/services/consent-api/internal/domain/capture"
	"jan-server/services/consent-api/internal/domain/ledger"
	"jan-server/services/consent-api/internal/domain/pipeline"
	"jan-server/services/consent-api/internal/domain/recording"
	"jan-server/services/consent-api/internal/utils/platformerrors"
)

// classify maps domain sentinels onto platform error types.
func classify(err error) platformerrors.ErrorType {
	switch {
	case errors.Is(err, recording.ErrMissingPayload):
		return platformerrors.ErrorTypeValidation
	case errors.Is(err, recording.ErrPayloadTooLarge), errors.Is(err, capture.ErrBufferFull):
		return platformerrors.ErrorTypeTooLarge
	case errors.Is(err, pipeline.ErrSessionNotFound):
		return platformerrors.ErrorTypeNotFound
	case errors.Is(err, capture.ErrDeviceUnavailable), errors.Is(err, capture.ErrInvalidState):
		return platformerrors.ErrorTypeConflict
	case errors.Is(err, pipeline.ErrClosed):
		return platformerrors.ErrorTypeUnavailable
	case errors.Is(err, recording.ErrStorageWriteFailed),
		errors.Is(err, ledger.ErrReadFailed),
		errors.Is(err, ledger.ErrWriteFailed):
		return platformerrors.ErrorTypeExternal
	default:
		return platformerrors.ErrorTypeInternal
	}
}

func domainError(ctx context.Context, err error, message string) *platformerrors.PlatformError {
	return platformerrors.NewError(ctx, platformerrors.LayerHandler, classify(err), message, err)
}
