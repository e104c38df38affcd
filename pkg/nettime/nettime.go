// Package nettime provides the network-adjusted clock used to timestamp
// signed messages. Storage nodes reject requests whose timestamps drift too
// far from their own, so the local clock is corrected by the last offset
// reported by the network.
package nettime

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// NowMs returns c's time in milliseconds since the epoch.
func NowMs(c Clock) int64 {
	return c.Now().UnixMilli()
}

// NowSeconds returns c's time in whole seconds since the epoch.
func NowSeconds(c Clock) int64 {
	return c.Now().Unix()
}

// NetworkClock is the local clock minus the latest known network offset.
// Safe for concurrent use.
type NetworkClock struct {
	offsetMs atomic.Int64
	known    atomic.Bool
	now      func() time.Time
	logger   *slog.Logger
}

// NewNetworkClock returns a clock with a zero offset. A nil logger falls
// back to slog.Default().
func NewNetworkClock(logger *slog.Logger) *NetworkClock {
	if logger == nil {
		logger = slog.Default()
	}
	return &NetworkClock{now: time.Now, logger: logger}
}

// SetOffset records how far ahead of the network the local clock runs, in
// milliseconds. Negative values mean the local clock is behind.
func (c *NetworkClock) SetOffset(ms int64) {
	c.offsetMs.Store(ms)
	if !c.known.Swap(true) {
		c.logger.Info("first network timestamp offset received", "offset_ms", ms)
	}
}

// Offset returns the current offset in milliseconds, 0 until one is set.
func (c *NetworkClock) Offset() int64 {
	return c.offsetMs.Load()
}

func (c *NetworkClock) Now() time.Time {
	return c.now().Add(-time.Duration(c.offsetMs.Load()) * time.Millisecond)
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (f FixedClock) Now() time.Time { return f.T }
