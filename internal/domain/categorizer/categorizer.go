// Package categorizer assigns an accounting category and account code to a
// bank transaction, and learns from categorizations confirmed by users.
package categorizer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/domain/similarity"
)

// Source names which heuristic produced a result.
type Source string

const (
	SourceRule         Source = "rule"
	SourceCounterparty Source = "counterparty"
	SourceAmount       Source = "amount"
)

// Result is a categorization proposal. A zero Confidence means no proposal.
type Result struct {
	Category    string `json:"category,omitempty"`
	AccountCode string `json:"account_code,omitempty"`
	Confidence  int    `json:"confidence"`
	Reason      string `json:"reason,omitempty"`
	Source      Source `json:"source,omitempty"`
}

// Found reports whether the result carries a category.
func (r Result) Found() bool {
	return r.Category != ""
}

// Categorizer evaluates the rule set and the learned pattern store.
type Categorizer struct {
	rules    *RuleSet
	patterns PatternStore
	cache    Cache
	logger   *slog.Logger
	now      func() time.Time
}

// NewCategorizer creates a categorizer. A nil rule set uses DefaultRules and
// a nil cache disables suggestion caching.
func NewCategorizer(rules *RuleSet, patterns PatternStore, cache Cache, logger *slog.Logger) *Categorizer {
	if rules == nil {
		rules = DefaultRules()
	}
	if cache == nil {
		cache = noCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Categorizer{
		rules:    rules,
		patterns: patterns,
		cache:    cache,
		logger:   logger.With(slog.String("component", "categorizer")),
		now:      time.Now,
	}
}

// Categorize runs the three heuristics and keeps the most confident result.
// Ties go to the earlier heuristic: rules, then counterparty, then amount.
func (c *Categorizer) Categorize(tx *model.Transaction) Result {
	candidates := []Result{
		c.matchRules(tx),
		c.matchCounterparty(tx),
		c.matchTypicalAmount(tx),
	}

	var best Result
	for _, r := range candidates {
		if r.Found() && r.Confidence > best.Confidence {
			best = r
		}
	}
	return best
}

func (c *Categorizer) matchRules(tx *model.Transaction) Result {
	text := searchText(tx)
	if text == "" {
		return Result{}
	}

	for _, rule := range c.rules.Rules {
		hit := firstHit(text, rule.Keywords)
		if hit == "" {
			continue
		}

		res := Result{
			Category:    rule.Category,
			AccountCode: rule.AccountCode,
			Confidence:  rule.Confidence,
			Reason:      fmt.Sprintf("keyword %q", hit),
			Source:      SourceRule,
		}

		if rule.IncomeAccountCode != "" || rule.ExpenseAccountCode != "" {
			income, expense := rule.IncomeAccountCode, rule.ExpenseAccountCode
			for _, sec := range rule.Secondary {
				if secHit := firstHit(text, sec.Keywords); secHit != "" {
					income, expense = sec.IncomeAccountCode, sec.ExpenseAccountCode
					res.Confidence += sec.ConfidenceBonus
					res.Reason += fmt.Sprintf(", refined by %q", secHit)
					break
				}
			}
			if tx.IsIncoming() {
				res.AccountCode = income
			} else {
				res.AccountCode = expense
			}
		}

		res.Confidence = min(res.Confidence, 100)
		return res
	}
	return Result{}
}

func (c *Categorizer) matchCounterparty(tx *model.Transaction) Result {
	name := normalizeText(tx.Counterparty)
	if name == "" {
		return Result{}
	}
	for _, kc := range c.rules.Counterparties {
		if containsWords(name, kc.Name) {
			return Result{
				Category:    kc.Category,
				AccountCode: kc.AccountCode,
				Confidence:  kc.Confidence,
				Reason:      fmt.Sprintf("known counterparty %q", kc.Name),
				Source:      SourceCounterparty,
			}
		}
	}
	return Result{}
}

func (c *Categorizer) matchTypicalAmount(tx *model.Transaction) Result {
	amount := tx.Amount.Abs()
	for _, ta := range c.rules.TypicalAmounts {
		if amount.Equal(ta.value) {
			return Result{
				Category:    ta.Category,
				AccountCode: ta.AccountCode,
				Confidence:  ta.Confidence,
				Reason:      fmt.Sprintf("typical amount %s", ta.value.StringFixed(2)),
				Source:      SourceAmount,
			}
		}
	}
	return Result{}
}

// searchText is the normalized counterparty, memo and details.
func searchText(tx *model.Transaction) string {
	return normalizeText(strings.Join([]string{tx.Counterparty, tx.Communication, tx.Details}, " "))
}

func normalizeText(s string) string {
	return similarity.Normalize(s)
}

// firstHit returns the first keyword present in text as whole words.
func firstHit(text string, keywords []string) string {
	for _, kw := range keywords {
		if containsWords(text, kw) {
			return kw
		}
	}
	return ""
}

func containsWords(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
