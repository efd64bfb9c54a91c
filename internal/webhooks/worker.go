package webhooks

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"dronefeed/internal/config"
	"dronefeed/internal/metrics"
	"dronefeed/internal/store"
)

// Worker polls due deliveries and POSTs them to subscriber URLs.
type Worker struct {
	Store        store.Store
	HTTP         *http.Client
	Log          *slog.Logger
	MaxAttempts  int
	PollInterval time.Duration
	Batch        int
}

func NewWorker(s store.Store, cfg config.WebhookConfig, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	w := &Worker{
		Store:        s,
		HTTP:         &http.Client{Timeout: 5 * time.Second},
		Log:          log,
		MaxAttempts:  cfg.MaxAttempts,
		PollInterval: cfg.PollInterval,
		Batch:        cfg.Batch,
	}
	if w.MaxAttempts <= 0 {
		w.MaxAttempts = 10
	}
	if w.PollInterval <= 0 {
		w.PollInterval = time.Second
	}
	if w.Batch <= 0 {
		w.Batch = 50
	}
	return w
}

// Start polls until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.processOnce(ctx)
			}
		}
	}()
}

func (w *Worker) processOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()
	items, err := w.Store.FetchDueWebhookDeliveries(ctx, w.Batch)
	if err != nil {
		w.Log.Warn("fetch due webhook deliveries", slog.Any("error", err))
		return
	}
	for _, it := range items {
		w.deliver(ctx, it)
	}
}

func (w *Worker) deliver(ctx context.Context, it store.WebhookDelivery) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, it.URL, bytes.NewReader(it.Payload))
	if err != nil {
		_ = w.Store.FailWebhookDelivery(ctx, it.ID, err.Error(), 0, 0)
		metrics.WebhookDeliveries.WithLabelValues(it.EventType, store.DeliveryFailed).Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", it.EventType)
	if it.Secret != "" {
		req.Header.Set("X-Signature", SignHMAC(it.Secret, it.Payload))
	}

	start := time.Now()
	resp, err := w.HTTP.Do(req)
	latency := int(time.Since(start).Milliseconds())
	code := 0
	success := false
	if err == nil {
		code = resp.StatusCode
		_ = resp.Body.Close()
		success = code >= 200 && code < 300
	}
	lastErr := ""
	switch {
	case err != nil:
		lastErr = err.Error()
	case !success:
		lastErr = http.StatusText(code)
	}

	status := store.DeliveryDelivered
	switch {
	case success:
		err = w.Store.MarkWebhookDelivery(ctx, it.ID, true, nil, "", code, latency)
	case it.Attempts+1 >= w.MaxAttempts:
		status = store.DeliveryFailed
		err = w.Store.FailWebhookDelivery(ctx, it.ID, lastErr, code, latency)
	default:
		status = store.DeliveryRetry
		next := time.Now().Add(nextBackoff(it.Attempts))
		err = w.Store.MarkWebhookDelivery(ctx, it.ID, false, &next, lastErr, code, latency)
	}
	if err != nil {
		w.Log.Warn("record webhook delivery", slog.String("id", it.ID), slog.Any("error", err))
	}
	metrics.WebhookDeliveries.WithLabelValues(it.EventType, status).Inc()
	metrics.WebhookLatency.WithLabelValues(it.EventType, status).Observe(float64(latency))
	w.Log.Debug("webhook delivery",
		slog.String("id", it.ID),
		slog.String("event", it.EventType),
		slog.String("status", status),
		slog.Int("code", code),
		slog.Int("latencyMs", latency))
}

func nextBackoff(attempts int) time.Duration {
	attempts = max(0, min(attempts, 10))
	return min(time.Second*time.Duration(1<<attempts), time.Hour)
}
