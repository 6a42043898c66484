package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dagengine/dagengine-sub004/middleware"
	"github.com/dagengine/dagengine-sub004/services/providers"
	"github.com/dagengine/dagengine-sub004/utils"
)

// maxRequestBodyBytes bounds POST /api/v1/process bodies.
const maxRequestBodyBytes = 1 << 20

// Processor is the adapter capability the handler depends on
type Processor interface {
	Process(ctx context.Context, prompt string, opts providers.ProcessOptions) (*providers.Response, error)
}

// ProcessRequest is the body of POST /api/v1/process
type ProcessRequest struct {
	Prompt  string                   `json:"prompt" validate:"required"`
	Options providers.ProcessOptions `json:"options"`
}

// ProcessResponse wraps a normalized provider response
type ProcessResponse struct {
	RequestID  string              `json:"request_id"`
	Provider   string              `json:"provider"`
	Structured bool                `json:"structured"`
	Result     *providers.Response `json:"result"`
}

// ProcessHandler exposes the adapter over HTTP
type ProcessHandler struct {
	processor Processor
	logger    *zap.Logger
}

// NewProcessHandler creates a new ProcessHandler
func NewProcessHandler(processor Processor, logger *zap.Logger) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		logger:    logger,
	}
}

// HandleProcess handles POST /api/v1/process
func (h *ProcessHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req ProcessRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = utils.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	h.logger.Debug("processing prompt",
		zap.String("request_id", requestID),
		zap.String("provider", req.Options.Provider),
		zap.String("model", req.Options.Model),
		zap.Int("prompt_len", len(req.Prompt)))

	start := time.Now()
	resp, err := h.processor.Process(ctx, req.Prompt, req.Options)
	if err != nil {
		h.logger.Error("failed to process prompt",
			zap.String("request_id", requestID),
			zap.String("provider", req.Options.Provider),
			zap.Error(err))

		// The router's timeout middleware answers 504 once the request deadline passes
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("prompt processed",
		zap.String("request_id", requestID),
		zap.String("provider", req.Options.Provider),
		zap.Bool("structured", resp.Structured),
		zap.Duration("latency", time.Since(start)))

	if err := utils.WriteOK(w, ProcessResponse{
		RequestID:  requestID,
		Provider:   req.Options.Provider,
		Structured: resp.Structured,
		Result:     resp,
	}); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
