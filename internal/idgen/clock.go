package idgen

import (
	"sync/atomic"
	"time"
)

// Timestamp is seconds since epoch, the unit every entity's created/
// lastUpdated/event-log timestamp is expressed in (§3).
type Timestamp int64

// Now returns the current wall-clock time truncated to whole seconds. It is
// "monotonic-ish" only in the sense the spec requires: repeated calls in the
// same second return the same value, and the importer overrides it per
// record via WithMockedClock so replay reproduces the original timestamps
// exactly (§4.4 step 5).
func Now() Timestamp {
	if mockedActive.Load() {
		return Timestamp(mockedNow.Load())
	}
	return Timestamp(time.Now().Unix())
}

var (
	mockedActive atomic.Bool
	mockedNow    atomic.Int64
)

// WithMockedClock overrides Now() for the duration of fn. Used exclusively
// by the event-log importer's direct-write path (§4.4 step 5, §9 "thread-
// local current time"), which here is a goroutine-local override achieved
// by serializing import on a single goroutine rather than a true thread-
// local (the importer never runs concurrently with itself).
func WithMockedClock(t Timestamp, fn func()) {
	mockedNow.Store(int64(t))
	mockedActive.Store(true)
	defer mockedActive.Store(false)
	fn()
}

// ClearMockedClock restores the real wall clock. Exposed for tests that
// need to bail out of a WithMockedClock block early.
func ClearMockedClock() {
	mockedActive.Store(false)
}
