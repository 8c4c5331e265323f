package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/config"
	"github.com/fwojciec/scribe/decision"
	"github.com/fwojciec/scribe/engine"
	"github.com/fwojciec/scribe/prometheus"
	"github.com/fwojciec/scribe/prompt"
	"github.com/fwojciec/scribe/sqlite"
	"go.uber.org/zap"
)

// app holds what every session command needs: configuration, the logger,
// the database and the analysis provider.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *sqlite.DB
	prompts  *prompt.Set
	provider scribe.Provider // nil selects the keyword policy
	metrics  *prometheus.Collector
}

func (a *app) setup(ctx context.Context, flags globalFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.logFile != "" {
		cfg.LogFile = flags.logFile
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger, err = newLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		return err
	}
	a.logger.Info("starting scribe",
		zap.String("version", version),
		zap.String("db_path", cfg.DBPath),
		zap.String("provider", cfg.Provider))

	if a.prompts, err = prompt.Load(cfg.PromptsDir, prompt.WithLogger(a.logger)); err != nil {
		return err
	}
	a.metrics = prometheus.NewCollector()

	a.provider, err = resolveProvider(ctx, cfg.Provider, cfg.Model, cfg.AnthropicAPIKey, cfg.GeminiAPIKey)
	if err != nil {
		return err
	}

	if a.db, err = sqlite.Open(ctx, cfg.DBPath, sqlite.WithLogger(a.logger)); err != nil {
		return fmt.Errorf("open %s: %w", filepath.Clean(cfg.DBPath), err)
	}
	return nil
}

// newPolicy builds a decision policy for one engine. Breaker state and the
// question rng are never shared between sessions.
func (a *app) newPolicy() scribe.Policy {
	return buildPolicy(a.provider, a.cfg, a.prompts, a.metrics, a.logger)
}

// newEngine returns an engine over a fresh store handle.
func (a *app) newEngine(store scribe.Store) *engine.Engine {
	return engine.New(store, a.newPolicy(),
		engine.WithLogger(a.logger),
		engine.WithWindowCapacity(a.cfg.WindowCapacity))
}

// keyword returns the fallback policy, seeded when the config asks for it.
func keyword(seed uint64) *decision.Keyword {
	if seed == 0 {
		return decision.NewKeyword()
	}
	return decision.NewKeyword(decision.WithSeed(seed))
}

func (a *app) Close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.logger != nil {
		// Sync on a file logger can fail on some platforms; not fatal.
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
