package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/adapters/ai"
	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/aimatch"
	"github.com/clubledger/reconcile/internal/domain/categorizer"
	"github.com/clubledger/reconcile/internal/domain/matcher"
	"github.com/clubledger/reconcile/internal/infrastructure/config"
	"github.com/clubledger/reconcile/internal/infrastructure/storage"
)

// App bundles the storage and service shared by every command.
type App struct {
	Store   *storage.Storage
	Service *reconcile.Service
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}

// MatchingConfig converts the configured matching settings.
func MatchingConfig(cfg config.MatchingConfig) matcher.Config {
	mc := matcher.DefaultConfig()
	mc.AmountTolerance = decimal.NewFromFloat(cfg.AmountTolerance)
	mc.DateToleranceDays = cfg.DateToleranceDays
	if cfg.WarningDateGapDays > 0 {
		mc.WarningDateGapDays = cfg.WarningDateGapDays
	}
	mc.AutoMarkCash = cfg.AutoMarkCash
	return mc
}

// NewAIMatcher builds the AI matcher. An empty provider gives a disabled
// matcher.
func NewAIMatcher(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*aimatch.Matcher, error) {
	completer, err := ai.New(ctx, ai.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create AI completer: %w", err)
	}

	mc := aimatch.DefaultConfig()
	mc.BatchSize = cfg.BatchSize
	mc.BatchDelay = cfg.BatchDelay
	return aimatch.NewMatcher(completer, mc, logger), nil
}

// Bootstrap opens the database and wires the reconciliation service.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rules := categorizer.DefaultRules()
	if cfg.Categorization.RulesPath != "" {
		loaded, err := categorizer.LoadRules(cfg.Categorization.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	cache, err := categorizer.NewLRUCache(cfg.Categorization.PatternCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create pattern cache: %w", err)
	}

	aiMatcher, err := NewAIMatcher(ctx, cfg.AI, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}

	svc := reconcile.NewService(store, reconcile.Options{
		Matching:     MatchingConfig(cfg.Matching),
		Rules:        rules,
		PatternCache: cache,
		AI:           aiMatcher,
	}, logger)

	logger.Debug("Service ready",
		"database", cfg.Storage.DatabasePath,
		"ai_enabled", svc.AIEnabled(),
		"rules", cfg.Categorization.RulesPath)
	return &App{Store: store, Service: svc}, nil
}
