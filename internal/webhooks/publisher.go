package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dronefeed/internal/store"
)

// Event types a tenant can subscribe to.
const (
	EventTripPlanned   = "trip.planned"
	EventPlanCompleted = "plan.completed"
	EventPlanFailed    = "plan.failed"
)

type Publisher struct {
	Store store.Store
	Log   *slog.Logger
}

func NewPublisher(s store.Store, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{Store: s, Log: log}
}

// Emit enqueues one delivery per subscription of the tenant to eventType.
// It returns the number of deliveries enqueued.
func (p *Publisher) Emit(ctx context.Context, tenantID, eventType string, data any) int {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, tenantID, eventType)
	if err != nil {
		p.Log.Warn("webhook subscriptions lookup failed", slog.String("tenant", tenantID), slog.String("event", eventType), slog.Any("error", err))
		return 0
	}
	if len(subs) == 0 {
		return 0
	}
	now := time.Now()
	payload := map[string]any{
		"id":       fmt.Sprintf("evt_%d", now.UnixNano()),
		"type":     eventType,
		"tenantId": tenantID,
		"ts":       now.UTC().Format(time.RFC3339),
		"data":     data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		p.Log.Error("webhook payload encode failed", slog.String("event", eventType), slog.Any("error", err))
		return 0
	}
	n := 0
	for _, s := range subs {
		if _, err := p.Store.EnqueueWebhook(ctx, tenantID, s.ID, eventType, s.URL, s.Secret, body); err != nil {
			p.Log.Warn("webhook enqueue failed", slog.String("subscription", s.ID), slog.Any("error", err))
			continue
		}
		n++
	}
	return n
}
