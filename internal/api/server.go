package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"dronefeed/internal/auth"
	"dronefeed/internal/config"
	"dronefeed/internal/opt"
	"dronefeed/internal/scenario"
	"dronefeed/internal/store"
	"dronefeed/internal/webhooks"
)

type Server struct {
	Store   store.Store
	Pub     *webhooks.Publisher
	Broker  EventBroker
	Log     *slog.Logger
	Cfg     config.Config
	Presets []opt.Preset
	Auth    *auth.Verifier // nil trusts X-Tenant-Id and X-Role

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter // tenant -> solve limiter
	running  sync.WaitGroup
}

// NewServer wires the store, broker and publisher described by cfg. An empty
// database URL keeps plans in memory; an empty Redis URL keeps events in
// process.
func NewServer(cfg config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	var st store.Store
	if strings.TrimSpace(cfg.Database.URL) == "" {
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if cfg.Database.MigrationsDir != "" {
			if err := pg.MigrateDir(cfg.Database.MigrationsDir); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		st = pg
	}

	var broker EventBroker = NewBroker()
	if cfg.Redis.URL != "" {
		rb, err := NewRedisBroker(cfg.Redis.URL)
		if err != nil {
			log.Warn("redis broker unavailable, using in-process events", slog.Any("error", err))
		} else {
			broker = rb
		}
	}

	presets := opt.DefaultPresets()
	if cfg.Planner.PresetsFile != "" {
		ps, err := scenario.LoadPresets(cfg.Planner.PresetsFile)
		if err != nil {
			return nil, err
		}
		presets = ps
	}

	return &Server{
		Store:    st,
		Pub:      webhooks.NewPublisher(st, log),
		Broker:   broker,
		Log:      log,
		Cfg:      cfg,
		Presets:  presets,
		Auth:     auth.NewVerifier(cfg.Auth),
		limiters: map[string]*rate.Limiter{},
	}, nil
}

// allowSolve takes one token from the tenant's solve bucket.
func (s *Server) allowSolve(tenant string) bool {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	l, ok := s.limiters[tenant]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.Cfg.Server.SolveRPS), s.Cfg.Server.SolveBurst)
		s.limiters[tenant] = l
	}
	return l.Allow()
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store, s.Cfg.Webhooks, s.Log)
}

// Wait blocks until every async solve has finished or ctx is done.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
