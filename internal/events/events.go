package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hamed0406/botscope/internal/domain"
)

type Kind string

const (
	KindRegistered    Kind = "registered"
	KindStatusChanged Kind = "status_changed"
	KindDeleted       Kind = "deleted" // evicted after sustained downtime
	KindRemoved       Kind = "removed" // removed explicitly through the API
)

// Event is a best-effort notification about a target. Delivery failures
// never affect monitoring.
type Event struct {
	ID      string        `json:"id"`
	Kind    Kind          `json:"kind"`
	Name    string        `json:"name,omitempty"`
	URL     string        `json:"url"`
	Status  domain.Status `json:"status,omitempty"`
	Code    int           `json:"code,omitempty"`
	Details string        `json:"details,omitempty"`
	At      time.Time     `json:"at"`
}

func New(kind Kind, target domain.Target, details string) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Name:    target.Name,
		URL:     target.URL,
		Details: details,
		At:      time.Now().UTC(),
	}
}

type Sink interface {
	Publish(ctx context.Context, e Event) error
}

type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Multi delivers to every sink and reports all failures together.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e Event) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Publish(ctx, e))
	}
	return err
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })
