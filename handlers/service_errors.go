package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dagengine/dagengine-sub004/services/providers"
	"github.com/dagengine/dagengine-sub004/utils"
)

// HandleServiceError maps adapter errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var (
		unavailable *providers.UnavailableError
		upstream    *providers.UpstreamError
		writeErr    error
	)

	switch {
	case errors.As(err, &unavailable):
		writeErr = utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse{
			Error:   "provider_unavailable",
			Message: err.Error(),
			Details: map[string]interface{}{"provider": unavailable.Provider},
		})

	case errors.As(err, &upstream):
		writeErr = utils.WriteBadGateway(w, err.Error(), map[string]interface{}{
			"provider":    upstream.Provider,
			"status_code": upstream.StatusCode,
			"retryable":   upstream.Retryable(),
		})

	case errors.Is(err, context.DeadlineExceeded):
		writeErr = utils.WriteError(w, http.StatusGatewayTimeout, "Provider did not respond in time", nil)

	case errors.Is(err, context.Canceled):
		// Client went away; nobody is reading the response
		logger.Debug("request cancelled", zap.Error(err))
		return

	case utils.IsValidationError(err):
		HandleValidationError(w, err, logger)
		return

	default:
		logger.Error("unhandled error type", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
