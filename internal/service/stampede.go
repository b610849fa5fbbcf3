package service

import "sync"

// stampedeTracker counts concurrent cache misses per location. A count
// above 1 means multiple requests missed the same key at once, which is
// the signature of a cache stampede.
type stampedeTracker struct {
	mu           sync.Mutex
	activeMisses map[string]int
}

func newStampedeTracker() *stampedeTracker {
	return &stampedeTracker{activeMisses: make(map[string]int)}
}

// RecordMiss registers a miss for key and returns the concurrent miss
// count including this one. Pair every call with a deferred RecordHit.
func (st *stampedeTracker) RecordMiss(key string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.activeMisses[key]++
	return st.activeMisses[key]
}

// RecordHit marks one outstanding miss for key as resolved.
func (st *stampedeTracker) RecordHit(key string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.activeMisses[key] > 0 {
		st.activeMisses[key]--
		if st.activeMisses[key] == 0 {
			delete(st.activeMisses, key)
		}
	}
}
