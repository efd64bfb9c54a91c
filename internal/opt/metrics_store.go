package opt

import (
	"sync"
	"time"
)

// Summary aggregates the solves one tenant ran with one strategy.
type Summary struct {
	Solves       int           `json:"solves"`
	Trips        int           `json:"trips"`
	Credited     int           `json:"credited"`
	Detours      int           `json:"detours"`
	Truncations  int           `json:"truncations"`
	BestScore    float64       `json:"bestScore"`
	LastScore    float64       `json:"lastScore"`
	LastDuration time.Duration `json:"lastDurationNs"`
}

type key struct {
	Tenant   string
	Strategy Strategy
}

var (
	mu    sync.Mutex
	store = map[key]Summary{}
)

// RecordMetrics folds one solve result into the tenant's running summary.
func RecordMetrics(tenant string, r Result) {
	mu.Lock()
	defer mu.Unlock()
	k := key{Tenant: tenant, Strategy: r.Strategy}
	s := store[k]
	if s.Solves == 0 || r.Score > s.BestScore {
		s.BestScore = r.Score
	}
	s.Solves++
	s.Trips += r.Stats.Trips
	s.Credited += r.Stats.Credited
	s.Detours += r.Stats.Detours
	s.Truncations += r.Stats.Truncations
	s.LastScore = r.Score
	s.LastDuration = r.Elapsed
	store[k] = s
}

// GetMetrics returns the tenant's summaries keyed by strategy.
func GetMetrics(tenant string) map[Strategy]Summary {
	mu.Lock()
	defer mu.Unlock()
	out := map[Strategy]Summary{}
	for k, v := range store {
		if k.Tenant == tenant {
			out[k.Strategy] = v
		}
	}
	return out
}
