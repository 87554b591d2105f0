// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"
)

// Await returns the next value sent on ch. The test fails if ch is closed
// or nothing arrives within wait; what names the awaited event in the
// failure message.
func Await[T any](tb testing.TB, ch <-chan T, wait time.Duration, what string) T {
	tb.Helper()
	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	select {
	case v, open := <-ch:
		if !open {
			tb.Fatalf("%s: channel closed", what)
		}
		return v
	case <-deadline.C:
		tb.Fatalf("%s: nothing received within %v", what, wait)
	}
	var zero T
	return zero
}
