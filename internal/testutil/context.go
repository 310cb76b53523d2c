package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds contexts and waits in unit tests.
const DefaultTimeout = 5 * time.Second

// deadlineMargin is left between a context deadline and the test binary's
// own -timeout so failures report from the test rather than a panic dump.
const deadlineMargin = time.Second

// Context returns a context canceled at cleanup that expires after timeout,
// or earlier when the test binary's deadline is closer.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if testDeadline, ok := t.Deadline(); ok {
		if limit := testDeadline.Add(-deadlineMargin); limit.After(time.Now()) && limit.Before(deadline) {
			deadline = limit
		}
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	t.Cleanup(cancel)
	return ctx
}
