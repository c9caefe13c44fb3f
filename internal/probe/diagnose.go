package probe

import (
	"context"
	"net/url"

	"github.com/hamed0406/botscope/internal/domain"
)

// DiagnosingChecker appends a DNS classification to the cause of
// unreachable outcomes so operators can tell a dead host from a dead name.
type DiagnosingChecker struct {
	Inner Checker
	// Classify returns a DNS class for host. Defaults to CheckDNS.
	Classify func(ctx context.Context, host string) string
}

func NewDiagnosingChecker(inner Checker) *DiagnosingChecker {
	return &DiagnosingChecker{Inner: inner}
}

func (d *DiagnosingChecker) Check(ctx context.Context, target string) Outcome {
	out := d.Inner.Check(ctx, target)
	if out.Status != domain.StatusUnreachable {
		return out
	}
	classify := d.Classify
	if classify == nil {
		classify = func(ctx context.Context, host string) string { return CheckDNS(ctx, host).Class }
	}
	// the check's own deadline may already be spent; give the lookup a fresh one
	class := classify(context.WithoutCancel(ctx), extractHost(target))
	if class != "" {
		out.Cause = out.Cause + " dns=" + class
	}
	return out
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
