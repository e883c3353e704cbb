// Package similarity scores how alike a payable and a bank transaction are.
//
// All scorers are pure and return an integer in [0, 100].
//
// Name matching is deliberately order-insensitive: bank counterparty fields
// often read "Surname Firstname", so an inverted name scores 95, just below
// an exact match.
package similarity

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// titles are dropped before comparing names.
var titles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "mme": true, "mlle": true, "m": true,
	"monsieur": true, "madame": true, "mademoiselle": true, "dr": true,
}

// Normalize lowercases s, strips accents, titles, hyphens and punctuation,
// and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == '_' || r == '/' || r == ',' || r == '.':
			return ' '
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if titles[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// NameSimilarity scores two person names.
//
//	100     identical after normalization
//	95      same words in another order
//	90      one contains the other
//	70-90   at least one identical word
//	0-70    only partial word overlap
//	0-50    no word overlap, edit-distance based
func NameSimilarity(a, b string) int {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	wordsA, wordsB := strings.Fields(na), strings.Fields(nb)
	if len(wordsA) > 1 && sameWords(wordsA, wordsB) {
		return 95
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 90
	}

	exact, partial := wordOverlap(wordsA, wordsB)
	maxWords := float64(max(len(wordsA), len(wordsB)))

	if exact > 0 {
		score := 70 + 20*(float64(exact)+0.5*float64(partial))/maxWords
		return clamp(int(math.Round(score)), 70, 90)
	}
	if partial > 0 {
		score := 70 * float64(partial) / maxWords
		return clamp(int(math.Round(score)), 0, 70)
	}

	return characterSimilarity(na, nb)
}

func sameWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// wordOverlap counts words of a that appear verbatim in b, and words that
// only overlap partially (prefix/containment of at least 3 characters).
func wordOverlap(a, b []string) (exact, partial int) {
	used := make([]bool, len(b))
	for _, wa := range a {
		found := false
		for j, wb := range b {
			if !used[j] && wa == wb {
				used[j] = true
				exact++
				found = true
				break
			}
		}
		if found {
			continue
		}
		for j, wb := range b {
			if used[j] || len(wa) < 3 || len(wb) < 3 {
				continue
			}
			if strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				used[j] = true
				partial++
				break
			}
		}
	}
	return exact, partial
}

func characterSimilarity(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	distance := levenshtein.DistanceForStrings(ra, rb, editOptions)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	ratio := 1 - float64(distance)/float64(longest)
	return clamp(int(math.Round(ratio*50)), 0, 50)
}

// DaysBetween returns the absolute number of calendar days between two dates.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int(math.Round(da.Sub(db).Hours() / 24))
	if days < 0 {
		return -days
	}
	return days
}

// DateProximity is a step function over the day gap. A missing date scores 0.
func DateProximity(a, b time.Time) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	switch days := DaysBetween(a, b); {
	case days == 0:
		return 100
	case days <= 3:
		return 90
	case days <= 7:
		return 75
	case days <= 14:
		return 60
	case days <= 30:
		return 40
	case days <= 60:
		return 20
	default:
		return 0
	}
}

var oneCent = decimal.NewFromFloat(0.01)

var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// AmountMatch compares absolute amounts, so an expense of 20 matches a
// -20 debit. Within one cent scores 100; beyond that the score decays by
// 200 points per 100% relative difference.
func AmountMatch(expected, actual decimal.Decimal) int {
	exp, act := expected.Abs(), actual.Abs()
	diff := exp.Sub(act).Abs()
	if diff.LessThanOrEqual(oneCent) {
		return 100
	}
	if exp.IsZero() {
		return 0
	}
	rel, _ := diff.Div(exp).Float64()
	score := 100 - rel*200
	if score <= 0 {
		return 0
	}
	return int(math.Round(score))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
