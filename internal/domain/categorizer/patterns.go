package categorizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/infrastructure/storage"
)

// MaxSuggestions is how many learned patterns a lookup returns.
const MaxSuggestions = 3

// maxKeywords bounds the keyword list stored with a pattern.
const maxKeywords = 10

// PatternStore persists learned patterns.
type PatternStore interface {
	GetPattern(id string) (*model.CategorizationPattern, error)
	SavePattern(p *model.CategorizationPattern) error
	FindPatterns(filter storage.PatternFilter) ([]*model.CategorizationPattern, error)
}

// LearnFromUserInput records a confirmed categorization. The pattern for
// (keyword, rounded amount, account code) is created or has its use count
// incremented.
func (c *Categorizer) LearnFromUserInput(tx *model.Transaction, category, accountCode string) (*model.CategorizationPattern, error) {
	if category == "" || accountCode == "" {
		return nil, errors.New("category and account code are required")
	}

	keyword := c.PrimaryKeyword(tx)
	rounded := RoundAmount(tx.Amount)
	id := PatternKey(keyword, rounded, accountCode)

	pattern, err := c.patterns.GetPattern(id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		pattern = &model.CategorizationPattern{
			ID:             id,
			PrimaryKeyword: keyword,
			Keywords:       keywordList(searchText(tx)),
			RoundedAmount:  rounded,
			Category:       category,
			AccountCode:    accountCode,
		}
	case err != nil:
		return nil, fmt.Errorf("load pattern %s: %w", id, err)
	}

	pattern.Category = category
	pattern.UseCount++
	pattern.LastUsed = c.now().UTC()

	if err := c.patterns.SavePattern(pattern); err != nil {
		return nil, fmt.Errorf("save pattern %s: %w", id, err)
	}
	c.cache.Purge()

	c.logger.Info("Learned categorization",
		"pattern", id,
		"category", category,
		"account_code", accountCode,
		"use_count", pattern.UseCount)
	return pattern, nil
}

// Suggestions returns up to MaxSuggestions learned patterns for tx, most
// used first. Lookups are tried in order and the first non-empty one wins:
// keyword and amount, keyword only, then legacy counterparty patterns.
func (c *Categorizer) Suggestions(tx *model.Transaction) ([]*model.CategorizationPattern, error) {
	keyword := c.PrimaryKeyword(tx)
	rounded := RoundAmount(tx.Amount)
	cacheKey := fmt.Sprintf("%s|%d|%s", keyword, rounded, strings.ToLower(tx.Counterparty))

	if cached, ok := c.cache.Get(cacheKey); ok {
		return clonePatterns(cached), nil
	}

	filters := []storage.PatternFilter{
		{PrimaryKeyword: keyword, RoundedAmount: &rounded},
		{PrimaryKeyword: keyword},
	}
	if tx.Counterparty != "" {
		filters = append(filters, storage.PatternFilter{Counterparty: tx.Counterparty})
	}

	var found []*model.CategorizationPattern
	for _, f := range filters {
		patterns, err := c.patterns.FindPatterns(f)
		if err != nil {
			return nil, fmt.Errorf("find patterns: %w", err)
		}
		if len(patterns) > 0 {
			found = patterns
			break
		}
	}

	if len(found) > MaxSuggestions {
		found = found[:MaxSuggestions]
	}
	c.cache.Add(cacheKey, clonePatterns(found))
	return found, nil
}

// clonePatterns copies patterns so callers never share cached entries.
func clonePatterns(patterns []*model.CategorizationPattern) []*model.CategorizationPattern {
	if patterns == nil {
		return nil
	}
	out := make([]*model.CategorizationPattern, len(patterns))
	for i, p := range patterns {
		out[i] = p.Clone()
	}
	return out
}

// PrimaryKeyword is the first priority keyword found in the transaction
// text, else its first word longer than three characters.
func (c *Categorizer) PrimaryKeyword(tx *model.Transaction) string {
	text := searchText(tx)
	if kw := firstHit(text, c.rules.PriorityKeywords); kw != "" {
		return kw
	}
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) > 3 {
			return w
		}
	}
	return "divers"
}

// RoundAmount buckets an amount: to the unit below 50, to the nearest 10
// up to 200, and to the nearest 50 above.
func RoundAmount(amount decimal.Decimal) int64 {
	a := amount.Abs()
	switch {
	case a.LessThan(decimal.NewFromInt(50)):
		return a.Round(0).IntPart()
	case a.LessThanOrEqual(decimal.NewFromInt(200)):
		return roundTo(a, 10)
	default:
		return roundTo(a, 50)
	}
}

func roundTo(a decimal.Decimal, step int64) int64 {
	s := decimal.NewFromInt(step)
	return a.Div(s).Round(0).Mul(s).IntPart()
}

// PatternKey is the composite id of a pattern.
func PatternKey(keyword string, rounded int64, accountCode string) string {
	return fmt.Sprintf("%s_%d_%s", strings.ReplaceAll(keyword, " ", "-"), rounded, accountCode)
}

func keywordList(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) <= 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}
