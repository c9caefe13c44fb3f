package domain

import "time"

// Target is a named URL under health monitoring. Name and URL are each unique
// within a registry.
type Target struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusUp          Status = "up"
	StatusDown        Status = "down"
	StatusUnreachable Status = "unreachable"
)

// Healthy reports whether s counts as a successful heartbeat.
func (s Status) Healthy() bool { return s == StatusUp }

// HealthState is the per-url record kept by the status tracker.
//
// UptimeMS is a lifetime total of successful heartbeats, expressed in
// heartbeat-interval milliseconds. It never decreases.
type HealthState struct {
	Status        Status    `json:"status"`
	StatusCode    int       `json:"status_code,omitempty"`
	Cause         string    `json:"cause,omitempty"`
	UptimeMS      int64     `json:"uptime_ms"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

// TargetStatus is the read model handed to presenters.
type TargetStatus struct {
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Status        Status     `json:"status"`
	StatusCode    *int       `json:"status_code"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	UptimeSeconds *float64   `json:"uptime_seconds"`
}
