package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hamed0406/botscope/internal/domain"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("want GET, got %s", r.Method)
		}
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusUp || out.StatusCode != 200 {
		t.Fatalf("want up(200), got %v", out)
	}
	if out.Latency < 0 {
		t.Fatalf("latency should be >= 0, got %v", out.Latency)
	}
}

func TestHTTPChecker_Non200IsDown(t *testing.T) {
	for _, code := range []int{201, 204, 301, 404, 500} {
		code := code
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code == 301 {
				// a redirect without Location is returned to the client as-is
				w.WriteHeader(code)
				return
			}
			http.Error(w, "x", code)
		}))

		out := NewHTTPChecker(2*time.Second).Check(context.Background(), s.URL)
		s.Close()
		if out.Status != domain.StatusDown || out.StatusCode != code {
			t.Fatalf("code %d: want down(%d), got %v", code, code, out)
		}
	}
}

func TestHTTPChecker_TimeoutIsUnreachable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker(50 * time.Millisecond)
	out := chk.Check(context.Background(), s.URL)
	if out.Status != domain.StatusUnreachable {
		t.Fatalf("want unreachable due to timeout, got %v", out)
	}
	if out.StatusCode != 0 {
		t.Fatalf("want status 0 on transport error, got %d", out.StatusCode)
	}
	if out.Cause == "" {
		t.Fatalf("want non-empty cause")
	}
}

func TestHTTPChecker_ContextDeadline(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	out := NewHTTPChecker(5*time.Second).Check(ctx, s.URL)
	if out.Status != domain.StatusUnreachable {
		t.Fatalf("want unreachable when caller deadline expires, got %v", out)
	}
}

func TestHTTPChecker_ConnectionRefused(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := s.URL
	s.Close()

	out := NewHTTPChecker(time.Second).Check(context.Background(), addr)
	if out.Status != domain.StatusUnreachable {
		t.Fatalf("want unreachable, got %v", out)
	}
}

func TestOutcome_String(t *testing.T) {
	if got := Up(200).String(); got != "up(200)" {
		t.Fatalf("got %q", got)
	}
	if got := Unreachable("refused").String(); got != "unreachable(refused)" {
		t.Fatalf("got %q", got)
	}
}
