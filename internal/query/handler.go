package query

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/profitlens/profitlens/internal/core/econ"
	httperr "github.com/profitlens/profitlens/internal/core/errors"
)

// RegisterRoutes registers the query API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/economics/query", s.HandleEconomicsQuery)
}

// HandleEconomicsQuery handles POST /v1/economics/query.
func (s *Service) HandleEconomicsQuery(c *gin.Context) {
	var req EconomicsQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid query body",
			Details:   err.Error(),
		})
		return
	}

	queryID := uuid.NewString()
	slog.Info("Received economics query",
		"query_id", queryID,
		"start_date", req.StartDate.String(),
		"end_date", req.EndDate.String(),
		"marketplace_count", len(req.MarketplaceIDs),
	)

	resp, err := s.Query(c.Request.Context(), req)
	if err != nil {
		writeQueryError(c, queryID, err)
		return
	}

	slog.Info("Economics query complete",
		"query_id", queryID,
		"rows", len(resp.Rows),
	)
	c.JSON(http.StatusOK, resp)
}

// writeQueryError maps the validation taxonomy onto structured 400s; all
// remaining failures are internal.
func writeQueryError(c *gin.Context, queryID string, err error) {
	var errorType string
	switch {
	case errors.Is(err, econ.ErrInvalidRange):
		errorType = httperr.HttpInvalidRangeError
	case errors.Is(err, ErrInvalidMarketplace):
		errorType = httperr.HttpInvalidMarketplaceError
	case errors.Is(err, ErrUnsupportedAggregation):
		errorType = httperr.HttpUnsupportedAggregation
	}

	if errorType != "" {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: errorType,
			Message:   "Invalid economics query",
			Details:   err.Error(),
		})
		return
	}

	slog.Error("Economics query failed", "query_id", queryID, "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   "Failed to run economics query",
		Details:   err.Error(),
	})
}
