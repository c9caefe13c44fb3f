package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/events"
	"github.com/hamed0406/botscope/internal/metrics"
	"github.com/hamed0406/botscope/internal/monitor"
	"github.com/hamed0406/botscope/internal/probe"
	"github.com/hamed0406/botscope/internal/registry"
	"github.com/hamed0406/botscope/internal/repo/memory"
)

// ---- test helpers ----

type harness struct {
	h     http.Handler
	ts    *httptest.Server
	mon   *monitor.Monitor
	reg   *registry.Registry
	store *memory.Store
}

func setup(t *testing.T, opts RouterOptions) *harness {
	t.Helper()
	log := zap.NewNop()
	store := memory.New()
	reg := registry.New(log, store)
	rec := events.NewRecorder(32)
	m := metrics.NewCollector()
	mon := monitor.New(log, reg, monitor.Options{
		Heartbeat:         time.Minute,
		DowntimeThreshold: time.Hour,
		Sink:              events.Multi{rec, m},
		Metrics:           m,
	})
	t.Cleanup(mon.Stop)

	srv := NewServer(log, mon, rec, m.Handler())
	h := srv.Router(opts)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &harness{h: h, ts: ts, mon: mon, reg: reg, store: store}
}

func noLimit() RouterOptions { return RouterOptions{RegisterRPM: 0} }

func (h *harness) ping(t *testing.T, name, u string) (int, map[string]string) {
	t.Helper()
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if u != "" {
		q.Set("url", u)
	}
	resp, err := http.Get(h.ts.URL + "/api/ping?" + q.Encode())
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

// ---- tests ----

func TestPing_RegistersAndClassifiesFailures(t *testing.T) {
	h := setup(t, noLimit())

	code, body := h.ping(t, "svc1", "https://example.com")
	if code != http.StatusOK {
		t.Fatalf("want 200, got %d %v", code, body)
	}
	want := `The URL "https://example.com" has been added to the monitored list with the name "svc1"`
	if body["message"] != want {
		t.Fatalf("message = %q", body["message"])
	}

	cases := []struct {
		name, url string
		wantMsg   string
	}{
		{"", "https://x.example.com", msgMissing},
		{"svc2", "", msgMissing},
		{"my svc", "https://x.example.com", msgInvalid},
		{"svc2", "not a url", msgInvalid},
		{"svc2", "https://example.com", msgDuplicateURL},
		{"svc1", "https://other.example.com", msgDuplicateName},
	}
	for _, c := range cases {
		code, body := h.ping(t, c.name, c.url)
		if code != http.StatusBadRequest || body["error"] != c.wantMsg {
			t.Errorf("ping(%q,%q) = %d %q, want 400 %q", c.name, c.url, code, body["error"], c.wantMsg)
		}
	}
	if h.reg.Len() != 1 {
		t.Fatalf("rejected pings must not register, have %d", h.reg.Len())
	}
}

func TestPing_PersistenceFailureIs500(t *testing.T) {
	h := setup(t, noLimit())
	h.store.SetFailure(errors.New("disk full"))

	code, body := h.ping(t, "svc1", "https://example.com")
	if code != http.StatusInternalServerError || body["error"] != msgPersist {
		t.Fatalf("want 500, got %d %v", code, body)
	}
	if h.reg.Has("https://example.com") {
		t.Fatalf("failed write must not register")
	}
}

func TestStatusPage_Shape(t *testing.T) {
	h := setup(t, noLimit())
	ctx := context.Background()
	if _, err := h.mon.Register(ctx, "svc1", "https://example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.mon.Register(ctx, "svc2", "https://fresh.example.com"); err != nil {
		t.Fatal(err)
	}
	e, _ := h.reg.Get("https://example.com")
	h.mon.HandleOutcome(ctx, e, probe.Up(200))

	resp, err := http.Get(h.ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var page struct {
		Message string `json:"message"`
		URLs    []struct {
			Name        string  `json:"name"`
			URL         string  `json:"url"`
			Status      *string `json:"status"`
			LastChecked *string `json:"lastChecked"`
			Uptime      *string `json:"uptime"`
		} `json:"urls"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if page.Message != "Ping bot is up and running" || page.Timestamp == "" || len(page.URLs) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	checked, fresh := page.URLs[0], page.URLs[1]
	if checked.Uptime == nil || *checked.Uptime != "60 seconds" {
		t.Fatalf("uptime = %v", checked.Uptime)
	}
	if checked.Status == nil || *checked.Status != "up" || checked.LastChecked == nil {
		t.Fatalf("checked target incomplete: %+v", checked)
	}
	if fresh.Status != nil || fresh.Uptime != nil || fresh.LastChecked != nil {
		t.Fatalf("unchecked target should be null: %+v", fresh)
	}
}

func TestTargets_AddListRemove(t *testing.T) {
	h := setup(t, noLimit())

	body, _ := json.Marshal(addPayload{Name: "svc1", URL: "https://example.com"})
	resp, err := http.Post(h.ts.URL+"/api/targets", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}

	resp, err = http.Post(h.ts.URL+"/api/targets", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad payload: want 400, got %d", resp.StatusCode)
	}

	resp, err = http.Get(h.ts.URL + "/api/targets")
	if err != nil {
		t.Fatal(err)
	}
	var list []domain.Target
	_ = json.NewDecoder(resp.Body).Decode(&list)
	resp.Body.Close()
	if len(list) != 1 || list[0].Name != "svc1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	del := func(name string) int {
		req, _ := http.NewRequest(http.MethodDelete, h.ts.URL+"/api/targets/"+name, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}
	if code := del("svc1"); code != http.StatusOK {
		t.Fatalf("delete: want 200, got %d", code)
	}
	if code := del("svc1"); code != http.StatusNotFound {
		t.Fatalf("second delete: want 404, got %d", code)
	}
}

func TestTargets_RemoveNameWithSlash(t *testing.T) {
	h := setup(t, noLimit())
	targets := map[string]string{"team/svc": "https://team.example.com", "plain": "https://plain.example.com"}
	for name, u := range targets {
		if code, body := h.ping(t, name, u); code != http.StatusOK {
			t.Fatalf("register %q: %d %v", name, code, body)
		}
	}

	for _, name := range []string{"team/svc", "plain"} {
		req, _ := http.NewRequest(http.MethodDelete, h.ts.URL+"/api/targets/"+url.PathEscape(name), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("delete %q: want 200, got %d", name, resp.StatusCode)
		}
		if _, ok := h.reg.Lookup(name); ok {
			t.Fatalf("%q still registered after delete", name)
		}
	}
}

func TestTargets_RemoveMalformedNameIs400(t *testing.T) {
	h := setup(t, noLimit())
	req := httptest.NewRequest(http.MethodDelete, "/api/targets/placeholder", nil)
	req.URL.RawPath = "/api/targets/bad%zz"
	rr := httptest.NewRecorder()
	h.h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rr.Code)
	}
}

func TestEvents_ListsRecent(t *testing.T) {
	h := setup(t, noLimit())
	ctx := context.Background()
	_, _ = h.mon.Register(ctx, "a", "https://a.example.com")
	_, _ = h.mon.Register(ctx, "b", "https://b.example.com")

	resp, err := http.Get(h.ts.URL + "/api/events?limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var evs []events.Event
	_ = json.NewDecoder(resp.Body).Decode(&evs)
	if len(evs) != 1 || evs[0].Name != "b" || evs[0].Kind != events.KindRegistered {
		t.Fatalf("unexpected events: %+v", evs)
	}
}

func TestRegistrationIsRateLimited(t *testing.T) {
	h := setup(t, RouterOptions{RegisterRPM: 1, RegisterBurst: 1})

	if code, _ := h.ping(t, "svc1", "https://example.com"); code != http.StatusOK {
		t.Fatalf("first: want 200, got %d", code)
	}
	if code, _ := h.ping(t, "svc2", "https://two.example.com"); code != http.StatusTooManyRequests {
		t.Fatalf("second: want 429, got %d", code)
	}

	// reads are not limited
	for i := 0; i < 3; i++ {
		resp, err := http.Get(h.ts.URL + "/api/status")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status: want 200, got %d", resp.StatusCode)
		}
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	h := setup(t, noLimit())
	_, _ = h.mon.Register(context.Background(), "svc1", "https://example.com")

	resp, err := http.Get(h.ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != "ok" {
		t.Fatalf("healthz: %d %q", resp.StatusCode, b)
	}

	resp, err = http.Get(h.ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(b, []byte("botscope_targets 1")) {
		t.Fatalf("metrics missing target gauge:\n%s", b)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := setup(t, RouterOptions{AllowedOrigins: []string{"https://dash.example.com"}})

	req, _ := http.NewRequest(http.MethodOptions, h.ts.URL+"/api/targets", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Fatalf("allow-origin = %q", got)
	}
}
