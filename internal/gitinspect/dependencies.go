package gitinspect

import (
	"context"
	"time"

	"github.com/duggerlink/dlt/internal/execshell"
)

// GitExecutor captures the read-only git execution surface used by the
// inspector. Queries report command failures through the execution result
// rather than through the returned error.
type GitExecutor interface {
	QueryGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Clock supplies the current time for cache expiry decisions.
type Clock interface {
	Now() time.Time
}

// SystemClock reports the wall-clock time.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
