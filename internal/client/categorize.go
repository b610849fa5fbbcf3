package client

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

const (
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryNetwork          ErrorCategory = "network"
	ErrorCategoryInvalidAPIKey    ErrorCategory = "invalid_api_key"
	ErrorCategoryLocationNotFound ErrorCategory = "location_not_found"
	ErrorCategoryRateLimited      ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx      ErrorCategory = "upstream_5xx"
	ErrorCategoryCircuitOpen      ErrorCategory = "circuit_open"
	ErrorCategoryParsing          ErrorCategory = "parsing"
	ErrorCategoryValidation       ErrorCategory = "validation"
	ErrorCategoryUnknown          ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
// Sentinel errors are matched first, then message heuristics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	switch {
	case errors.Is(err, ErrInvalidAPIKey):
		return ErrorCategoryInvalidAPIKey
	case errors.Is(err, ErrLocationNotFound):
		return ErrorCategoryLocationNotFound
	case errors.Is(err, ErrRateLimited):
		return ErrorCategoryRateLimited
	case errors.Is(err, ErrUpstreamFailure):
		return ErrorCategoryUpstream5xx
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "circuit breaker open"):
		return ErrorCategoryCircuitOpen
	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"):
		return ErrorCategoryNetwork
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "context deadline exceeded"):
		return ErrorCategoryTimeout
	case strings.Contains(errStr, "parse"), strings.Contains(errStr, "unmarshal"):
		return ErrorCategoryParsing
	case strings.Contains(errStr, "invalid"), strings.Contains(errStr, "validation"):
		return ErrorCategoryValidation
	}
	return ErrorCategoryUnknown
}
