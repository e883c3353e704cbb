// Package aimatch asks an external text-completion provider which payable a
// bank transaction settles.
//
// Provider output is untrusted. Every response is parsed strictly and any
// failure, from a network error to an unknown payable id, becomes a Result
// without a suggestion. Callers fall back to heuristic matching.
package aimatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/clubledger/reconcile/internal/domain/model"
)

// Completer sends a prompt to a text-completion provider.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config controls thresholds and batch pacing.
type Config struct {
	SingleThreshold int           // Minimum confidence for Suggest
	BatchThreshold  int           // Minimum confidence for SuggestBatch
	BatchSize       int           // Transactions per provider call
	BatchDelay      time.Duration // Minimum gap between provider calls in a batch
}

// DefaultConfig returns the default thresholds and pacing.
func DefaultConfig() Config {
	return Config{
		SingleThreshold: 50,
		BatchThreshold:  75,
		BatchSize:       3,
		BatchDelay:      2 * time.Second,
	}
}

// Suggestion is a payable the provider believes tx settles.
type Suggestion struct {
	TransactionID string           `json:"transaction_id"`
	PayableID     string           `json:"payable_id"`
	PayableType   model.EntityType `json:"payable_type"`
	Confidence    int              `json:"confidence"`
	Reasoning     string           `json:"reasoning,omitempty"`
	ExtractedInfo map[string]any   `json:"extracted_info,omitempty"`
}

// Result is either a Suggestion or the Reason there is none.
type Result struct {
	Suggestion *Suggestion `json:"suggestion,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Found reports whether r carries a suggestion.
func (r Result) Found() bool {
	return r.Suggestion != nil
}

func noSuggestion(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Matcher builds prompts, calls the provider and validates answers.
type Matcher struct {
	completer Completer
	cfg       Config
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewMatcher creates a matcher. A nil completer disables AI matching: every
// call returns a Result without a suggestion.
func NewMatcher(completer Completer, cfg Config, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.SingleThreshold <= 0 {
		cfg.SingleThreshold = def.SingleThreshold
	}
	if cfg.BatchThreshold <= 0 {
		cfg.BatchThreshold = def.BatchThreshold
	}

	limit := rate.Inf
	if cfg.BatchDelay > 0 {
		limit = rate.Every(cfg.BatchDelay)
	}

	return &Matcher{
		completer: completer,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With(slog.String("component", "aimatch")),
	}
}

// Enabled reports whether a provider is configured.
func (m *Matcher) Enabled() bool {
	return m.completer != nil
}

// Suggest asks for the best payable for one transaction.
func (m *Matcher) Suggest(ctx context.Context, tx *model.Transaction, candidates []model.Payable) Result {
	if !m.Enabled() {
		return noSuggestion("AI matching is not configured")
	}
	if len(candidates) == 0 {
		return noSuggestion("no candidate payables")
	}

	raw, err := m.completer.Complete(ctx, systemPrompt, singlePrompt(tx, candidates))
	if err != nil {
		m.logger.Warn("AI provider call failed", "transaction_id", tx.ID, "error", err)
		return noSuggestion("provider error: %v", err)
	}

	res := parseSingle(raw, tx.ID, indexCandidates(candidates), m.cfg.SingleThreshold)
	m.logResult(tx.ID, res)
	return res
}

// SuggestBatch asks for suggestions for many transactions, BatchSize at a
// time, with at least BatchDelay between provider calls. The result has one
// entry per transaction id. A payable is suggested for at most one
// transaction.
func (m *Matcher) SuggestBatch(ctx context.Context, txs []*model.Transaction, candidates []model.Payable) map[string]Result {
	results := make(map[string]Result, len(txs))
	if !m.Enabled() {
		for _, tx := range txs {
			results[tx.ID] = noSuggestion("AI matching is not configured")
		}
		return results
	}

	index := indexCandidates(candidates)
	used := make(map[string]bool)

	for start := 0; start < len(txs); start += m.cfg.BatchSize {
		chunk := txs[start:min(start+m.cfg.BatchSize, len(txs))]

		if err := m.limiter.Wait(ctx); err != nil {
			for _, tx := range txs[start:] {
				results[tx.ID] = noSuggestion("cancelled: %v", err)
			}
			break
		}

		raw, err := m.completer.Complete(ctx, systemPrompt, batchPrompt(chunk, candidates))
		if err != nil {
			m.logger.Warn("AI provider batch call failed", "size", len(chunk), "error", err)
			for _, tx := range chunk {
				results[tx.ID] = noSuggestion("provider error: %v", err)
			}
			continue
		}

		for i, res := range parseBatch(raw, chunk, index, m.cfg.BatchThreshold) {
			id := chunk[i].ID
			if res.Found() {
				if used[res.Suggestion.PayableID] {
					res = noSuggestion("payable %s already suggested for another transaction", res.Suggestion.PayableID)
				} else {
					used[res.Suggestion.PayableID] = true
				}
			}
			results[id] = res
			m.logResult(id, res)
		}
	}

	return results
}

func (m *Matcher) logResult(txID string, res Result) {
	if res.Found() {
		m.logger.Info("AI suggestion",
			"transaction_id", txID,
			"payable_id", res.Suggestion.PayableID,
			"confidence", res.Suggestion.Confidence)
		return
	}
	m.logger.Debug("No AI suggestion", "transaction_id", txID, "reason", res.Reason)
}

func indexCandidates(candidates []model.Payable) map[string]model.Payable {
	index := make(map[string]model.Payable, len(candidates))
	for _, p := range candidates {
		index[p.PayableID()] = p
	}
	return index
}
