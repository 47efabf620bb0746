// Package cloud estimates cloud cover over an overpass footprint by
// sampling points inside it and querying a rate-limited weather provider.
package cloud

import "sync/atomic"

// Breaker is the process-wide circuit breaker for the weather provider.
// Once tripped by a quota-exceeded response it stays open for the rest of
// the run and every subsequent query short-circuits to unavailable.
// It is safe for concurrent use.
type Breaker struct {
	open atomic.Bool
}

// NewBreaker returns a closed breaker.
func NewBreaker() *Breaker {
	return &Breaker{}
}

// Trip opens the breaker.
func (b *Breaker) Trip() {
	b.open.Store(true)
}

// Open reports whether the breaker has been tripped.
func (b *Breaker) Open() bool {
	return b.open.Load()
}
