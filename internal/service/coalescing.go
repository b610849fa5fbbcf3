package service

import (
	"context"
	"sync"
	"time"

	"github.com/suraksha-edu/risk-assessment-service/internal/models"
)

// inFlightBuild is a single report build that concurrent callers share.
// done is closed exactly once when the build settles.
type inFlightBuild struct {
	done   chan struct{}
	report models.RiskReport
	err    error
}

// reportCoalescer collapses concurrent cache misses for the same location
// into one upstream build. The first caller runs the build; later callers
// block on its completion instead of issuing duplicate provider calls.
type reportCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightBuild
	timeout  time.Duration
}

func newReportCoalescer(timeout time.Duration) *reportCoalescer {
	return &reportCoalescer{
		inFlight: make(map[string]*inFlightBuild),
		timeout:  timeout,
	}
}

// GetOrDo returns the result of an in-flight build for key if one exists,
// otherwise starts fn and publishes its result to all waiters. Waiting is
// bounded by the coalescer timeout and by ctx cancellation; a waiter that
// times out does not abort the build for the others.
func (rc *reportCoalescer) GetOrDo(ctx context.Context, key string, fn func() (models.RiskReport, error)) (models.RiskReport, error) {
	rc.mu.Lock()
	build, exists := rc.inFlight[key]
	if !exists {
		build = &inFlightBuild{done: make(chan struct{})}
		rc.inFlight[key] = build
		rc.mu.Unlock()

		// The build runs in its own goroutine so a leader whose context
		// expires still completes the fetch for the waiters behind it.
		go func() {
			report, err := fn()
			build.report = report
			build.err = err
			close(build.done)

			rc.mu.Lock()
			delete(rc.inFlight, key)
			rc.mu.Unlock()
		}()
	} else {
		rc.mu.Unlock()
	}

	waitCtx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()
	select {
	case <-build.done:
		if build.err != nil {
			return models.RiskReport{}, build.err
		}
		return build.report, nil
	case <-waitCtx.Done():
		return models.RiskReport{}, waitCtx.Err()
	}
}
