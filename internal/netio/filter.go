// Package netio implements the receive and send threads of spec.md
// §4.5: the receive thread classifies datagrams into typed queues and
// never touches the registry; the send thread drains outbound packets
// and preserves per-peer ordering within a tick.
package netio

import (
	"sync"

	"golang.org/x/time/rate"
)

// SequenceFilter tracks each endpoint's last-accepted packet sequence id
// and drops anything at or below it, per spec.md §4.6. A never-seen
// endpoint is always accepted.
type SequenceFilter struct {
	mu   sync.Mutex
	last map[string]uint16
}

// NewSequenceFilter builds an empty filter.
func NewSequenceFilter() *SequenceFilter {
	return &SequenceFilter{last: make(map[string]uint16)}
}

// Accept reports whether seq is newer than the endpoint's last accepted
// sequence id, and records it as the new high-water mark if so.
func (f *SequenceFilter) Accept(endpoint string, seq uint16) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	last, seen := f.last[endpoint]
	if seen && seq <= last {
		return false
	}
	f.last[endpoint] = seq
	return true
}

// Forget drops an endpoint's tracked sequence id, e.g. on disconnect.
func (f *SequenceFilter) Forget(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.last, endpoint)
}

// FloodLimiter rate-limits inbound packets per endpoint using
// golang.org/x/time/rate, so a single abusive peer cannot starve the
// receive thread's queues.
type FloodLimiter struct {
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewFloodLimiter builds a limiter allowing packetsPerSecond sustained,
// burst extra in a spike.
func NewFloodLimiter(packetsPerSecond float64, burst int) *FloodLimiter {
	return &FloodLimiter{
		rate:     rate.Limit(packetsPerSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether endpoint may send another packet right now.
func (f *FloodLimiter) Allow(endpoint string) bool {
	f.mu.Lock()
	lim, ok := f.limiters[endpoint]
	if !ok {
		lim = rate.NewLimiter(f.rate, f.burst)
		f.limiters[endpoint] = lim
	}
	f.mu.Unlock()
	return lim.Allow()
}

// Forget drops an endpoint's limiter state, e.g. on disconnect.
func (f *FloodLimiter) Forget(endpoint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.limiters, endpoint)
}
