// Package health tracks request outcomes in sliding windows and holds the
// process shutdown flag. It is the single source of truth for the /health
// lifecycle states: overload (traffic + denials), degraded (error rate) and
// idle (request volume).
package health

import (
	"sync"
	"sync/atomic"
	"time"
)

var (
	defaultTracker Tracker
	shuttingDown   atomic.Bool
)

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received;
// the health handler reports shutting-down with 503 while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// RecordRequest records any handled request, for idle detection.
func RecordRequest() { defaultTracker.RecordRequest() }

// RecordSuccess records a successful risk/alert/safety request outcome.
func RecordSuccess() { defaultTracker.RecordSuccess() }

// RecordError records a failed request outcome (upstream error, timeout).
func RecordError() { defaultTracker.RecordError() }

// RecordDenied records a rate-limit denial (429).
func RecordDenied() { defaultTracker.RecordDenied() }

// TrafficCount returns outcomes (success + error + denied) within the window.
func TrafficCount(window time.Duration) int { return defaultTracker.TrafficCount(window) }

// DenialCount returns rate-limit denials within the window.
func DenialCount(window time.Duration) int { return defaultTracker.DenialCount(window) }

// RequestCount returns handled requests within the window (idle detection).
func RequestCount(window time.Duration) int { return defaultTracker.RequestCount(window) }

// ErrorRate returns (errors, successes+errors) within the window. Denials
// are excluded: rejecting traffic is not upstream degradation.
func ErrorRate(window time.Duration) (errors, total int) { return defaultTracker.ErrorRate(window) }

// Reset clears all recorded outcomes and the shutdown flag. For tests only.
func Reset() {
	defaultTracker.Reset()
	shuttingDown.Store(false)
}

// Tracker maintains sliding windows of outcome timestamps.
type Tracker struct {
	mu           sync.Mutex
	requestTimes []time.Time
	successTimes []time.Time
	errorTimes   []time.Time
	deniedTimes  []time.Time
}

// maxWindow bounds how long timestamps are retained; callers must not query
// windows longer than this.
const maxWindow = 5 * time.Minute

func (t *Tracker) RecordRequest() { t.record(&t.requestTimes) }
func (t *Tracker) RecordSuccess() { t.record(&t.successTimes) }
func (t *Tracker) RecordError()   { t.record(&t.errorTimes) }
func (t *Tracker) RecordDenied()  { t.record(&t.deniedTimes) }

func (t *Tracker) record(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

// TrafficCount returns outcomes (success + error + denied) within the window.
func (t *Tracker) TrafficCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	return countSince(t.successTimes, cutoff) +
		countSince(t.errorTimes, cutoff) +
		countSince(t.deniedTimes, cutoff)
}

// DenialCount returns denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return countSince(t.deniedTimes, time.Now().Add(-window))
}

// RequestCount returns handled requests within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return countSince(t.requestTimes, time.Now().Add(-window))
}

// ErrorRate returns (errorCount, successCount+errorCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-window)
	errCount := countSince(t.errorTimes, cutoff)
	return errCount, errCount + countSince(t.successTimes, cutoff)
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestTimes = nil
	t.successTimes = nil
	t.errorTimes = nil
	t.deniedTimes = nil
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than maxWindow. Must hold t.mu.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-maxWindow)
	for _, slice := range []*[]time.Time{&t.requestTimes, &t.successTimes, &t.errorTimes, &t.deniedTimes} {
		times := *slice
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
}
