package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/domain"
	"github.com/hamed0406/botscope/internal/events"
)

const (
	msgMissing       = `Both the "name" and "url" parameters are required.`
	msgInvalid       = `Invalid format for "name" or "url" parameter. Please ensure there are no spaces in the name and enter a valid URL.`
	msgDuplicateURL  = "The specified URL already exists in the monitored list."
	msgDuplicateName = "The specified name already exists. Please choose another name."
	msgPersist       = "The monitored list could not be saved. Please try again."
	msgNotFound      = "No monitored URL has that name."
)

type statusPage struct {
	Message   string       `json:"message"`
	URLs      []statusLine `json:"urls"`
	Timestamp string       `json:"timestamp"`
}

type statusLine struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Status      *string `json:"status"`
	StatusCode  *int    `json:"statusCode"`
	LastChecked *string `json:"lastChecked"`
	Uptime      *string `json:"uptime"`
}

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	statuses := s.Monitor.Statuses()
	page := statusPage{
		Message:   "Ping bot is up and running",
		URLs:      make([]statusLine, 0, len(statuses)),
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}
	for _, ts := range statuses {
		line := statusLine{Name: ts.Name, URL: ts.URL, StatusCode: ts.StatusCode}
		if ts.Status != domain.StatusUnknown {
			st := string(ts.Status)
			line.Status = &st
		}
		if ts.LastCheckedAt != nil {
			at := ts.LastCheckedAt.UTC().Format(time.RFC3339Nano)
			line.LastChecked = &at
		}
		if ts.UptimeSeconds != nil {
			up := strconv.FormatFloat(*ts.UptimeSeconds, 'f', -1, 64) + " seconds"
			line.Uptime = &up
		}
		page.URLs = append(page.URLs, line)
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name, rawURL := q.Get("name"), q.Get("url")

	t, err := s.Monitor.Register(r.Context(), name, rawURL)
	if err != nil {
		s.writeRegisterError(w, err, name, rawURL)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("The URL %q has been added to the monitored list with the name %q", t.URL, t.Name),
	})
}

type addPayload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	t, err := s.Monitor.Register(r.Context(), p.Name, p.URL)
	if err != nil {
		s.writeRegisterError(w, err, p.Name, p.URL)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	statuses := s.Monitor.Statuses()
	out := make([]domain.Target, 0, len(statuses))
	for _, ts := range statuses {
		out = append(out, domain.Target{Name: ts.Name, URL: ts.URL})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemoveTarget(w http.ResponseWriter, r *http.Request) {
	// chi matches on the escaped path, so names containing '/' arrive encoded
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed target name")
		return
	}
	t, err := s.Monitor.Remove(r.Context(), name)
	switch {
	case errors.Is(err, domain.ErrTargetNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	case err != nil:
		s.Logger.Error("remove_target_failed", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgPersist)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("The URL %q has been removed from the monitored list", t.URL),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Monitor.Statuses())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		writeJSON(w, http.StatusOK, []events.Event{})
		return
	}
	recent := s.Events.Recent()
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 0 && limit < len(recent) {
		recent = recent[len(recent)-limit:]
	}
	if recent == nil {
		recent = []events.Event{}
	}
	writeJSON(w, http.StatusOK, recent)
}

func (s *Server) writeRegisterError(w http.ResponseWriter, err error, name, rawURL string) {
	switch {
	case errors.Is(err, domain.ErrMissingParameter):
		writeError(w, http.StatusBadRequest, msgMissing)
	case errors.Is(err, domain.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, msgInvalid)
	case errors.Is(err, domain.ErrDuplicateURL):
		writeError(w, http.StatusBadRequest, msgDuplicateURL)
	case errors.Is(err, domain.ErrDuplicateName):
		writeError(w, http.StatusBadRequest, msgDuplicateName)
	default:
		s.Logger.Error("register_target_failed",
			zap.String("name", name),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, msgPersist)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
