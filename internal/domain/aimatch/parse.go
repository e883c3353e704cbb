package aimatch

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/clubledger/reconcile/internal/domain/model"
)

type answer struct {
	TransactionID string         `json:"transaction_id"`
	PayableID     *string        `json:"payable_id"`
	Confidence    *float64       `json:"confidence"`
	Reasoning     string         `json:"reasoning"`
	ExtractedInfo map[string]any `json:"extracted_info"`
}

// cleanModelJSON strips Markdown fences and any text around the JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.Trim(s, "`")
		}
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost object or array.
	open := strings.IndexAny(s, "{[")
	if open == -1 {
		return s
	}
	closer := "}"
	if s[open] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(s, closer); end > open {
		s = s[open : end+1]
	}
	return s
}

// validate turns one answer into a Result.
func validate(a answer, txID string, candidates map[string]model.Payable, threshold int) Result {
	if a.PayableID == nil || strings.TrimSpace(*a.PayableID) == "" || strings.EqualFold(*a.PayableID, "null") {
		return noSuggestion("provider found no matching payable")
	}
	if a.Confidence == nil {
		return noSuggestion("response has no confidence")
	}
	conf := *a.Confidence
	if math.IsNaN(conf) || conf < 0 || conf > 100 {
		return noSuggestion("confidence %v is out of range", conf)
	}

	payableID := strings.TrimSpace(*a.PayableID)
	p, ok := candidates[payableID]
	if !ok {
		return noSuggestion("provider returned unknown payable %q", payableID)
	}

	confidence := int(math.Round(conf))
	if confidence < threshold {
		return noSuggestion("confidence %d is below %d", confidence, threshold)
	}

	return Result{Suggestion: &Suggestion{
		TransactionID: txID,
		PayableID:     payableID,
		PayableType:   p.EntityType(),
		Confidence:    confidence,
		Reasoning:     a.Reasoning,
		ExtractedInfo: a.ExtractedInfo,
	}}
}

func parseSingle(raw, txID string, candidates map[string]model.Payable, threshold int) Result {
	var a answer
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &a); err != nil {
		return noSuggestion("malformed provider response: %v", err)
	}
	if a.TransactionID != "" && a.TransactionID != txID {
		return noSuggestion("response refers to transaction %q", a.TransactionID)
	}
	return validate(a, txID, candidates, threshold)
}

// parseBatch returns one Result per transaction of the chunk, in chunk
// order. Answers for transactions outside the chunk are ignored; the first
// answer per transaction wins.
func parseBatch(raw string, chunk []*model.Transaction, candidates map[string]model.Payable, threshold int) []Result {
	results := make([]Result, len(chunk))

	var answers []answer
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &answers); err != nil {
		for i := range chunk {
			results[i] = noSuggestion("malformed provider response: %v", err)
		}
		return results
	}

	byTx := make(map[string]answer, len(answers))
	for _, a := range answers {
		if _, dup := byTx[a.TransactionID]; !dup {
			byTx[a.TransactionID] = a
		}
	}

	for i, tx := range chunk {
		a, ok := byTx[tx.ID]
		if !ok {
			results[i] = noSuggestion("provider returned nothing for this transaction")
			continue
		}
		results[i] = validate(a, tx.ID, candidates, threshold)
	}
	return results
}
