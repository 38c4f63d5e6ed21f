package query

import (
	v1 "github.com/profitlens/profitlens/internal/api/v1"
	"github.com/profitlens/profitlens/internal/core/econ"
)

// AggregateBy selects the two aggregation dimensions.
type AggregateBy struct {
	Date      econ.DateGranularity    `json:"date"`
	ProductID econ.ProductGranularity `json:"productId"`
}

// EconomicsQueryRequest is the query parameters for one economics query.
// Absent aggregateBy fields default to DAY / MSKU.
type EconomicsQueryRequest struct {
	StartDate                    v1.Date      `json:"startDate" binding:"required"`
	EndDate                      v1.Date      `json:"endDate" binding:"required"`
	MarketplaceIDs               []string     `json:"marketplaceIds"`
	AggregateBy                  *AggregateBy `json:"aggregateBy"`
	IncludeComponentsForFeeTypes []string     `json:"includeComponentsForFeeTypes"`
}

// EconomicsQueryResponse carries the ordered row set plus result-set
// metadata. Retention is nil when no touched field carries a retention
// directive.
type EconomicsQueryResponse struct {
	StartDate          v1.Date                 `json:"startDate"`
	EndDate            v1.Date                 `json:"endDate"`
	DateGranularity    econ.DateGranularity    `json:"dateGranularity"`
	ProductGranularity econ.ProductGranularity `json:"productGranularity"`
	MarketplaceIDs     []string                `json:"marketplaceIds"`
	Rows               []econ.EconomicsRow     `json:"rows"`
	Retention          *econ.RetentionTag      `json:"retention"`
}
