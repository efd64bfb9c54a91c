package store

import "time"

// Delivery states.
const (
	DeliveryPending   = "pending"
	DeliveryRetry     = "retry"
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

type WebhookDelivery struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	SubscriptionID string    `json:"subscriptionId,omitempty"`
	EventType      string    `json:"eventType"`
	URL            string    `json:"url"`
	Secret         string    `json:"-"`
	Payload        []byte    `json:"-"`
	Status         string    `json:"status"`
	Attempts       int       `json:"attempts"`
	NextAttemptAt  time.Time `json:"nextAttemptAt,omitempty"`
	LastError      string    `json:"lastError,omitempty"`
	ResponseCode   int       `json:"responseCode,omitempty"`
	LatencyMs      int       `json:"latencyMs,omitempty"`
}

// Due reports whether d should be attempted at now.
func (d WebhookDelivery) Due(now time.Time) bool {
	return (d.Status == DeliveryPending || d.Status == DeliveryRetry) && !d.NextAttemptAt.After(now)
}
