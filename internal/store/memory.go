package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"dronefeed/internal/model"
)

// Memory is a simple in-memory store used when no database URL is set.
type Memory struct {
	mu         sync.Mutex
	plans      map[string]model.Plan           // id -> plan
	plansByTen map[string][]string             // tenant -> plan ids, oldest first
	subs       map[string][]model.Subscription // tenant -> subscriptions
	deliveries map[string]*WebhookDelivery     // id -> delivery state
	delivOrder []string                        // delivery ids, oldest first
}

func NewMemory() *Memory {
	return &Memory{
		plans:      map[string]model.Plan{},
		plansByTen: map[string][]string{},
		subs:       map[string][]model.Subscription{},
		deliveries: map[string]*WebhookDelivery{},
	}
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// SavePlan inserts p, assigning an ID when it has none, or replaces the
// stored plan with the same ID.
func (m *Memory) SavePlan(ctx context.Context, p model.Plan) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if old, ok := m.plans[p.ID]; ok {
		if old.TenantID != p.TenantID {
			return model.Plan{}, ErrNotFound
		}
	} else {
		m.plansByTen[p.TenantID] = append(m.plansByTen[p.TenantID], p.ID)
	}
	m.plans[p.ID] = p
	return p, nil
}

func (m *Memory) GetPlan(ctx context.Context, tenantID, id string) (model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok || p.TenantID != tenantID {
		return model.Plan{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, tenantID, cursor string, limit int) ([]model.Plan, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.plansByTen[tenantID]
	start := 0
	if cursor != "" {
		start = slices.Index(ids, cursor) + 1
	}
	limit = clampLimit(limit)
	end := min(start+limit, len(ids))
	out := make([]model.Plan, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, m.plans[id])
	}
	next := ""
	if end < len(ids) {
		next = ids[end-1]
	}
	return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
	m.subs[req.TenantID] = append(m.subs[req.TenantID], s)
	return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs[tenantID] {
		if slices.Contains(s.Events, eventType) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.subs[tenantID]
	start := 0
	if cursor != "" {
		start = slices.IndexFunc(list, func(s model.Subscription) bool { return s.ID == cursor }) + 1
	}
	end := min(start+clampLimit(limit), len(list))
	items := append([]model.Subscription{}, list[start:end]...)
	next := ""
	if end < len(list) {
		next = list[end-1].ID
	}
	return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	arr := m.subs[tenantID]
	out := slices.DeleteFunc(slices.Clone(arr), func(s model.Subscription) bool { return s.ID == id })
	if len(out) == len(arr) {
		return ErrNotFound
	}
	m.subs[tenantID] = out
	return nil
}

func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.deliveries[id] = &WebhookDelivery{
		ID:             id,
		TenantID:       tenantID,
		SubscriptionID: subscriptionID,
		EventType:      eventType,
		URL:            url,
		Secret:         secret,
		Payload:        payload,
		Status:         DeliveryPending,
		NextAttemptAt:  time.Now(),
	}
	m.delivOrder = append(m.delivOrder, id)
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := []WebhookDelivery{}
	for _, id := range m.delivOrder {
		d := m.deliveries[id]
		if d.Due(now) {
			out = append(out, *d)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return ErrNotFound
	}
	d.Attempts++
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	if success {
		d.Status = DeliveryDelivered
		return nil
	}
	d.Status = DeliveryRetry
	d.LastError = lastError
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	} else {
		d.NextAttemptAt = time.Now().Add(time.Minute)
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.deliveries[id]
	if d == nil {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = DeliveryFailed
	d.LastError = lastError
	d.ResponseCode = responseCode
	d.LatencyMs = latencyMs
	return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]WebhookDelivery, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = clampLimit(limit)
	started := cursor == ""
	out := []WebhookDelivery{}
	next := ""
	for _, id := range m.delivOrder {
		if !started {
			started = id == cursor
			continue
		}
		d := m.deliveries[id]
		if d.TenantID != tenantID || (status != "" && d.Status != status) {
			continue
		}
		if len(out) == limit {
			next = out[len(out)-1].ID
			break
		}
		out = append(out, *d)
	}
	return out, next, nil
}
