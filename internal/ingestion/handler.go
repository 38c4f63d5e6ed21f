package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
	httperr "github.com/profitlens/profitlens/internal/core/errors"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist facts"
)

// ingestionError carries the structured HTTP error shape from a helper back
// to the orchestrator. Helpers return this instead of writing to
// gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// factBatch is the request body of POST /v1/facts.
type factBatch struct {
	Facts []*v1.Fact `json:"facts"`
}

// IngestHandler handles HTTP POST requests for fact ingestion.
func (s *Service) IngestHandler(c *gin.Context) {
	batch, payloadSize, err := s.parseBatch(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := validateBatch(batch); err != nil {
		writeError(c, err)
		return
	}

	slog.Info("Received fact batch",
		"fact_count", len(batch.Facts),
		"payload_size", payloadSize)

	if err := s.persistBatch(c, batch); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "accepted",
		"accepted": len(batch.Facts),
	})
}

// parseBatch reads the raw request body and binds it into a fact batch.
// Returns the batch and the raw payload size (used for structured logging
// upstream).
func (s *Service) parseBatch(c *gin.Context) (*factBatch, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var batch factBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	return &batch, len(bodyBytes), nil
}

// validateBatch runs per-fact validation. The whole batch is rejected on
// the first invalid fact so callers never end up with partial writes.
func validateBatch(batch *factBatch) *ingestionError {
	if len(batch.Facts) == 0 {
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidFactError,
			message:    "facts must not be empty",
		}
	}
	for i, fact := range batch.Facts {
		if err := fact.Validate(); err != nil {
			slog.Warn("Fact validation failed", "error", err, "index", i, "fact_id", fact.ID)
			return &ingestionError{
				statusCode: http.StatusBadRequest,
				errorType:  httperr.HttpInvalidFactError,
				message:    fmt.Sprintf("fact %d: %s", i, err.Error()),
			}
		}
	}
	return nil
}

// persistBatch saves the batch to the backing store.
func (s *Service) persistBatch(c *gin.Context, batch *factBatch) *ingestionError {
	if err := s.store.SaveFacts(c.Request.Context(), batch.Facts); err != nil {
		slog.Error("Failed to persist fact batch", "error", err, "fact_count", len(batch.Facts))
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
	return nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
