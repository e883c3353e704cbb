package categorizer

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Rule maps keyword hits in the transaction text to a category.
type Rule struct {
	Category    string   `yaml:"category"`
	AccountCode string   `yaml:"account_code"`
	Keywords    []string `yaml:"keywords"`
	Confidence  int      `yaml:"confidence"`

	// When set, the account code depends on the transaction sign.
	IncomeAccountCode  string `yaml:"income_account_code,omitempty"`
	ExpenseAccountCode string `yaml:"expense_account_code,omitempty"`

	// Secondary keywords refine a sign-dependent account code.
	Secondary []SecondaryRule `yaml:"secondary,omitempty"`
}

// SecondaryRule overrides a rule's sign-dependent codes on a keyword hit.
type SecondaryRule struct {
	Keywords           []string `yaml:"keywords"`
	IncomeAccountCode  string   `yaml:"income_account_code"`
	ExpenseAccountCode string   `yaml:"expense_account_code"`
	ConfidenceBonus    int      `yaml:"confidence_bonus"`
}

// KnownCounterparty is a counterparty with a fixed category.
type KnownCounterparty struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	AccountCode string `yaml:"account_code"`
	Confidence  int    `yaml:"confidence"`
}

// TypicalAmount is an exact recurring fee.
type TypicalAmount struct {
	Amount      string `yaml:"amount"`
	Category    string `yaml:"category"`
	AccountCode string `yaml:"account_code"`
	Confidence  int    `yaml:"confidence"`

	value decimal.Decimal
}

// RuleSet is everything the heuristic categorizer evaluates.
type RuleSet struct {
	Rules          []Rule              `yaml:"rules"`
	Counterparties []KnownCounterparty `yaml:"counterparties"`
	TypicalAmounts []TypicalAmount     `yaml:"typical_amounts"`

	// PriorityKeywords are tried first when deriving a pattern keyword.
	PriorityKeywords []string `yaml:"priority_keywords"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() *RuleSet {
	rs := &RuleSet{
		Rules: []Rule{
			{
				Category:    "cotisation",
				AccountCode: "730000",
				Keywords:    []string{"cotisation", "lifras", "affiliation", "licence"},
				Confidence:  95,
			},
			{
				Category:           "event",
				Keywords:           []string{"sortie", "plongee", "excursion", "weekend", "voyage", "souper", "bbq", "evenement"},
				Confidence:         85,
				IncomeAccountCode:  "704000",
				ExpenseAccountCode: "614000",
				Secondary: []SecondaryRule{
					{Keywords: []string{"souper", "repas", "bbq", "restaurant"}, IncomeAccountCode: "704100", ExpenseAccountCode: "614100", ConfidenceBonus: 5},
					{Keywords: []string{"voyage", "sejour", "hotel", "logement"}, IncomeAccountCode: "704200", ExpenseAccountCode: "614200", ConfidenceBonus: 5},
				},
			},
			{
				Category:    "piscine",
				AccountCode: "613000",
				Keywords:    []string{"piscine", "bassin", "entrainement"},
				Confidence:  85,
			},
			{
				Category:    "assurance",
				AccountCode: "615000",
				Keywords:    []string{"assurance", "ethias", "dkv"},
				Confidence:  90,
			},
			{
				Category:    "frais_bancaires",
				AccountCode: "657000",
				Keywords:    []string{"frais bancaires", "frais de gestion", "tenue de compte", "commission"},
				Confidence:  90,
			},
			{
				Category:    "materiel",
				AccountCode: "604000",
				Keywords:    []string{"materiel", "equipement", "detendeur", "gonflage", "bouteille"},
				Confidence:  80,
			},
			{
				Category:    "subside",
				AccountCode: "736000",
				Keywords:    []string{"subside", "subvention", "adeps"},
				Confidence:  90,
			},
			{
				Category:    "don",
				AccountCode: "732000",
				Keywords:    []string{"don", "sponsoring", "mecenat"},
				Confidence:  80,
			},
		},
		Counterparties: []KnownCounterparty{
			{Name: "lifras", Category: "cotisation", AccountCode: "730000", Confidence: 90},
			{Name: "ethias", Category: "assurance", AccountCode: "615000", Confidence: 90},
			{Name: "adeps", Category: "subside", AccountCode: "736000", Confidence: 90},
			{Name: "bnp paribas fortis", Category: "frais_bancaires", AccountCode: "657000", Confidence: 85},
		},
		TypicalAmounts: []TypicalAmount{
			{Amount: "45.00", Category: "cotisation", AccountCode: "730000", Confidence: 60},
			{Amount: "90.00", Category: "cotisation", AccountCode: "730000", Confidence: 55},
			{Amount: "4.50", Category: "piscine", AccountCode: "613000", Confidence: 50},
			{Amount: "2.50", Category: "frais_bancaires", AccountCode: "657000", Confidence: 50},
		},
		PriorityKeywords: []string{
			"cotisation", "lifras", "piscine", "assurance", "subside", "sortie",
			"plongee", "souper", "voyage", "materiel", "gonflage", "don",
		},
	}
	if err := rs.prepare(); err != nil {
		panic(err)
	}
	return rs
}

// LoadRules reads a rule set from a YAML file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes a YAML rule set.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := rs.prepare(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// prepare normalizes keywords and parses amounts.
func (rs *RuleSet) prepare() error {
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if r.Category == "" {
			return fmt.Errorf("rule %d: category is required", i)
		}
		if r.AccountCode == "" && r.IncomeAccountCode == "" && r.ExpenseAccountCode == "" {
			return fmt.Errorf("rule %q: an account code is required", r.Category)
		}
		r.Keywords = normalizeAll(r.Keywords)
		for j := range r.Secondary {
			r.Secondary[j].Keywords = normalizeAll(r.Secondary[j].Keywords)
		}
	}
	for i := range rs.Counterparties {
		rs.Counterparties[i].Name = normalizeText(rs.Counterparties[i].Name)
	}
	for i := range rs.TypicalAmounts {
		ta := &rs.TypicalAmounts[i]
		v, err := decimal.NewFromString(ta.Amount)
		if err != nil {
			return fmt.Errorf("typical amount %q: %w", ta.Amount, err)
		}
		ta.value = v.Abs()
	}
	rs.PriorityKeywords = normalizeAll(rs.PriorityKeywords)
	return nil
}

func normalizeAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if n := normalizeText(w); n != "" {
			out = append(out, n)
		}
	}
	return out
}
