// Package events fans notification events out to subscribers (UI refresh,
// push workers). Delivery is best-effort; callers log and drop failures.
package events

import (
	"context"
	"encoding/json"
	"time"
)

type NotificationEvent struct {
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RelatedID string    `json:"relatedId,omitempty"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

type Publisher interface {
	Publish(ctx context.Context, ev NotificationEvent) error
	Close() error
}

func encode(ev NotificationEvent) ([]byte, error) {
	return json.Marshal(ev)
}

type nopPublisher struct{}

// NewNopPublisher returns a publisher that drops every event.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, NotificationEvent) error { return nil }
func (nopPublisher) Close() error                                     { return nil }
