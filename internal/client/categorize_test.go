package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrorCategory("")},
		{"deadline exceeded", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled", context.Canceled, ErrorCategoryTimeout},
		{"invalid key sentinel", fmt.Errorf("call: %w", ErrInvalidAPIKey), ErrorCategoryInvalidAPIKey},
		{"location sentinel", fmt.Errorf("call: %w", ErrLocationNotFound), ErrorCategoryLocationNotFound},
		{"rate limited sentinel", ErrRateLimited, ErrorCategoryRateLimited},
		{"upstream sentinel", fmt.Errorf("%w: HTTP 502", ErrUpstreamFailure), ErrorCategoryUpstream5xx},
		{"circuit open text", errors.New("circuit breaker open"), ErrorCategoryCircuitOpen},
		{"connection text", errors.New("connection refused"), ErrorCategoryNetwork},
		{"timeout text", errors.New("request timeout"), ErrorCategoryTimeout},
		{"parse text", errors.New("parse response: bad json"), ErrorCategoryParsing},
		{"unknown", errors.New("something else"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
