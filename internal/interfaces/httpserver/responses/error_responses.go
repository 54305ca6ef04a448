package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/consent-api/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError renders err. Platform errors keep their type and UUID; anything
// else is a 500 with the given message.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		errorMessage := platformErr.Message
		if errorMessage == "" {
			errorMessage = message
		}
		reqCtx.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), ErrorResponse{
			Code:      platformErr.UUID,
			Error:     errorMessage,
			Message:   errorCause(platformErr),
			RequestID: platformErr.RequestID,
		})
		return
	}

	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:     message,
		Message:   message,
		RequestID: platformerrors.RequestIDFromContext(reqCtx.Request.Context()),
	})
}

// HandleNewError creates a new typed error at the handler layer and renders it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, errorType, message, nil)
	HandleError(reqCtx, err, message)
}

func errorCause(err *platformerrors.PlatformError) string {
	if err.Err == nil {
		return err.Message
	}
	return err.Err.Error()
}
