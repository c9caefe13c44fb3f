package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hamed0406/botscope/internal/domain"
)

type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Code int
	Msg  string
}

func (e *apiError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("API returned status %d", e.Code)
	}
	return e.Msg
}

func (c *client) Add(ctx context.Context, name, rawURL string) (domain.Target, error) {
	body, _ := json.Marshal(map[string]string{"name": name, "url": rawURL})
	var t domain.Target
	err := c.do(ctx, http.MethodPost, "/api/targets", bytes.NewReader(body), &t)
	return t, err
}

func (c *client) List(ctx context.Context) ([]domain.Target, error) {
	var ts []domain.Target
	err := c.do(ctx, http.MethodGet, "/api/targets", nil, &ts)
	return ts, err
}

func (c *client) Remove(ctx context.Context, name string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/targets/"+url.PathEscape(name), nil, &out)
	return out.Message, err
}

func (c *client) Status(ctx context.Context) ([]domain.TargetStatus, error) {
	var ss []domain.TargetStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &ss)
	return ss, err
}

func (c *client) do(ctx context.Context, method, path string, body *bytes.Reader, out any) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.base+path, nil)
	}
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{Code: resp.StatusCode, Msg: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
