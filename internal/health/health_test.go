package health

import (
	"testing"
	"time"
)

func TestShuttingDownFlag(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if IsShuttingDown() {
		t.Fatal("IsShuttingDown() = true before set")
	}
	SetShuttingDown(true)
	if !IsShuttingDown() {
		t.Fatal("IsShuttingDown() = false after set")
	}
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Fatal("IsShuttingDown() = true after clear")
	}
}

func TestTrafficCount(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RecordSuccess()
	RecordSuccess()
	RecordError()
	RecordDenied()

	if got := TrafficCount(time.Minute); got != 4 {
		t.Errorf("TrafficCount = %d, want 4", got)
	}
	if got := DenialCount(time.Minute); got != 1 {
		t.Errorf("DenialCount = %d, want 1", got)
	}
}

func TestRequestCount(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RecordRequest()
	RecordRequest()
	RecordRequest()

	if got := RequestCount(time.Minute); got != 3 {
		t.Errorf("RequestCount = %d, want 3", got)
	}
}

func TestErrorRate(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RecordSuccess()
	RecordSuccess()
	RecordSuccess()
	RecordError()
	// Denials are not upstream degradation and must not count.
	RecordDenied()

	errCount, total := ErrorRate(time.Minute)
	if errCount != 1 {
		t.Errorf("errors = %d, want 1", errCount)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4 (success + error, denials excluded)", total)
	}
}

func TestErrorRate_Empty(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	errCount, total := ErrorRate(time.Minute)
	if errCount != 0 || total != 0 {
		t.Errorf("ErrorRate = (%d, %d), want (0, 0)", errCount, total)
	}
}

func TestReset(t *testing.T) {
	RecordSuccess()
	RecordError()
	SetShuttingDown(true)
	Reset()

	if TrafficCount(time.Minute) != 0 {
		t.Error("TrafficCount != 0 after Reset")
	}
	if IsShuttingDown() {
		t.Error("shutdown flag survived Reset")
	}
}

func TestTrackerWindowing(t *testing.T) {
	var tr Tracker
	tr.RecordSuccess()

	// A zero-length window excludes the recorded outcome.
	if got := tr.TrafficCount(-time.Second); got != 0 {
		t.Errorf("TrafficCount(-1s) = %d, want 0", got)
	}
	if got := tr.TrafficCount(time.Minute); got != 1 {
		t.Errorf("TrafficCount(1m) = %d, want 1", got)
	}
}
