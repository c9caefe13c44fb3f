package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/botscope/internal/domain"
)

// RetryChecker re-runs unreachable checks. Down outcomes are answers from
// the endpoint and are returned as-is.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) Outcome {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last Outcome
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Status != domain.StatusUnreachable {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				last.Cause = fmt.Sprintf("%s (after %d attempts)", last.Cause, i+1)
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	if attempts > 1 {
		last.Cause = fmt.Sprintf("%s (after %d attempts)", last.Cause, attempts)
	}
	return last
}
