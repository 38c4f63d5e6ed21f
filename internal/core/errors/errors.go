package errors

const (
	HttpInternalError           = "internal_error"
	HttpInvalidJsonError        = "invalid_json"
	HttpInvalidRangeError       = "invalid_range"
	HttpInvalidMarketplaceError = "invalid_marketplace"
	HttpUnsupportedAggregation  = "unsupported_aggregation"
	HttpInvalidFactError        = "invalid_fact"
)

// ErrorResponse is the structured, field-less error body returned for
// query and ingestion failures. No partial rows accompany an error.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
