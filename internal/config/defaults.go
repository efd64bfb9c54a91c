package config

import (
	"time"

	"dronefeed/internal/opt"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.SolveRPS == 0 {
		cfg.Server.SolveRPS = 5
	}
	if cfg.Server.SolveBurst == 0 {
		cfg.Server.SolveBurst = 10
	}

	// Database defaults
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = "db/migrations"
	}

	// Planner defaults
	if cfg.Planner.CruiseAltitude == 0 {
		cfg.Planner.CruiseAltitude = 50
	}
	if cfg.Planner.SafetyMargin == 0 {
		cfg.Planner.SafetyMargin = opt.DefaultSafetyMargin
	}
	if cfg.Planner.MaxDetours == 0 {
		cfg.Planner.MaxDetours = opt.DefaultMaxDetours
	}
	if cfg.Planner.ClusterK == 0 {
		cfg.Planner.ClusterK = opt.DefaultClusterK
	}
	if cfg.Planner.ClusterThreshold == 0 {
		cfg.Planner.ClusterThreshold = opt.DefaultClusterThreshold
	}
	if cfg.Planner.ClusterIterations == 0 {
		cfg.Planner.ClusterIterations = opt.DefaultClusterIterations
	}
	if cfg.Planner.AutoClusterMin == 0 {
		cfg.Planner.AutoClusterMin = opt.DefaultAutoClusterMin
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Webhook defaults
	if cfg.Webhooks.PollInterval == 0 {
		cfg.Webhooks.PollInterval = time.Second
	}
	if cfg.Webhooks.MaxAttempts == 0 {
		cfg.Webhooks.MaxAttempts = 8
	}
	if cfg.Webhooks.Batch == 0 {
		cfg.Webhooks.Batch = 10
	}

	// Auth defaults
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "header"
	}
	if cfg.Auth.TenantClaim == "" {
		cfg.Auth.TenantClaim = "tenant"
	}
	if cfg.Auth.RoleClaim == "" {
		cfg.Auth.RoleClaim = "role"
	}
}

// Options turns the planner section into solver options.
func (p PlannerConfig) Options() opt.Options {
	return opt.Options{
		Seed:              p.Seed,
		SafetyMargin:      p.SafetyMargin,
		MaxDetours:        p.MaxDetours,
		ClusterK:          p.ClusterK,
		ClusterThreshold:  p.ClusterThreshold,
		ClusterIterations: p.ClusterIterations,
		TwoOptPasses:      p.TwoOptPasses,
		AutoClusterMin:    p.AutoClusterMin,
	}
}
