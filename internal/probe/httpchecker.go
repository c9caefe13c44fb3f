package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker bounds every request by timeout in addition to any deadline
// carried by the caller's context.
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) Outcome {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Unreachable(err.Error())
	}
	req.Header.Set("User-Agent", "botscope/2")

	resp, err := h.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		out := Unreachable(err.Error())
		out.Latency = latency
		return out
	}
	defer resp.Body.Close()
	// drain a little so keep-alive connections can be reused
	_, _ = io.CopyN(io.Discard, resp.Body, 4<<10)

	out := Down(resp.StatusCode)
	if resp.StatusCode == http.StatusOK {
		out = Up(resp.StatusCode)
	}
	out.Latency = latency
	return out
}
