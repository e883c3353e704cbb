package model

import "time"

// CategorizationPattern is a learned (keyword, rounded amount) -> category mapping.
//
// Patterns written before the keyword scheme only carry Counterparty; lookups
// fall back to it.
type CategorizationPattern struct {
	ID             string    `json:"id"`
	PrimaryKeyword string    `json:"primary_keyword"`
	Keywords       []string  `json:"keyword_list"`
	RoundedAmount  int64     `json:"rounded_amount"`
	Counterparty   string    `json:"counterparty,omitempty"`
	Category       string    `json:"category"`
	AccountCode    string    `json:"account_code"`
	UseCount       int       `json:"use_count"`
	LastUsed       time.Time `json:"last_used"`
}

// Clone returns a deep copy.
func (p *CategorizationPattern) Clone() *CategorizationPattern {
	c := *p
	if p.Keywords != nil {
		c.Keywords = append([]string(nil), p.Keywords...)
	}
	return &c
}
