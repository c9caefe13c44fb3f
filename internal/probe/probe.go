package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/botscope/internal/domain"
)

// Outcome is the classified result of one reachability check.
//
// Fields:
//   - Status: up (HTTP 200), down (any other HTTP status) or unreachable
//     (no response obtained).
//   - StatusCode: HTTP status when a response arrived; 0 when unreachable.
//   - Cause: transport error text for unreachable outcomes.
type Outcome struct {
	Status     domain.Status
	StatusCode int
	Cause      string
	Latency    time.Duration
}

func Up(code int) Outcome   { return Outcome{Status: domain.StatusUp, StatusCode: code} }
func Down(code int) Outcome { return Outcome{Status: domain.StatusDown, StatusCode: code} }

func Unreachable(cause string) Outcome {
	return Outcome{Status: domain.StatusUnreachable, Cause: cause}
}

func (o Outcome) String() string {
	switch o.Status {
	case domain.StatusUp, domain.StatusDown:
		return fmt.Sprintf("%s(%d)", o.Status, o.StatusCode)
	default:
		return fmt.Sprintf("%s(%s)", o.Status, o.Cause)
	}
}

// Checker performs a single check for a given target URL. Implementations
// never return errors: every failure is an Outcome.
type Checker interface {
	Check(ctx context.Context, target string) Outcome
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, target string) Outcome

func (f CheckerFunc) Check(ctx context.Context, target string) Outcome { return f(ctx, target) }
