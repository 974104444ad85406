// internal/ingest/columns.go
package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column keys. Writers emit these as headers.
const (
	colName                    = "nom"
	colAge                     = "age"
	colAnnualIncome            = "revenu_annuel"
	colMonthlyRent             = "loyer"
	colMonthlyExpenses         = "depenses_mensuelles"
	colGoal                    = "objectif"
	colHorizonYears            = "duree_epargne"
	colUserMonthlyContribution = "versement_mensuel_utilisateur"

	colAnnualRate           = "taux_interet"
	colTaxRate              = "fiscalite"
	colMinHorizonYears      = "duree_min"
	colMaxTotalContribution = "versement_max"
)

// column is one logical field and the normalised header spellings that map to it.
type column struct {
	key      string
	aliases  []string
	required bool
}

var personColumns = []column{
	{key: colName, aliases: []string{"nom", "name"}, required: true},
	{key: colAge, aliases: []string{"age"}, required: true},
	{key: colAnnualIncome, aliases: []string{"revenu_annuel", "annual_income"}, required: true},
	{key: colMonthlyRent, aliases: []string{"loyer", "monthly_rent", "rent"}, required: true},
	{key: colMonthlyExpenses, aliases: []string{"depenses_mensuelles", "depenses_mensuelle", "monthly_expenses"}, required: true},
	{key: colGoal, aliases: []string{"objectif", "goal"}, required: true},
	{key: colHorizonYears, aliases: []string{"duree_epargne", "duree", "horizon_years", "horizon"}, required: true},
	{key: colUserMonthlyContribution, aliases: []string{"versement_mensuel_utilisateur", "user_monthly_contribution"}},
}

var productColumns = []column{
	{key: colName, aliases: []string{"nom", "name"}, required: true},
	{key: colAnnualRate, aliases: []string{"taux_interet", "annual_rate", "rate"}, required: true},
	{key: colTaxRate, aliases: []string{"fiscalite", "tax_rate"}, required: true},
	{key: colMinHorizonYears, aliases: []string{"duree_min", "min_horizon_years"}, required: true},
	{key: colMaxTotalContribution, aliases: []string{"versement_max", "max_total_contribution"}},
}

var missingTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
}

// NormalizeHeader folds a header cell to its lookup form: trimmed, lower
// case, accents removed, spaces and dashes turned into underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, folded)
}

// columnIndex maps canonical keys to cell positions.
type columnIndex map[string]int

// resolveColumns matches a header row against the known columns. The first
// header matching an alias wins. It returns the required keys that were not
// found.
func resolveColumns(header []string, columns []column) (columnIndex, []string) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		if _, seen := positions[n]; !seen {
			positions[n] = i
		}
	}

	idx := make(columnIndex, len(columns))
	var missing []string
	for _, c := range columns {
		found := false
		for _, alias := range c.aliases {
			if pos, ok := positions[alias]; ok {
				idx[c.key] = pos
				found = true
				break
			}
		}
		if !found && c.required {
			missing = append(missing, c.key)
		}
	}
	return idx, missing
}

// cell returns the trimmed value of key in row and whether it holds data.
func (idx columnIndex) cell(row []string, key string) (string, bool) {
	pos, ok := idx[key]
	if !ok || pos >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[pos])
	if _, missing := missingTokens[strings.ToLower(v)]; missing {
		return "", false
	}
	return v, true
}

func (idx columnIndex) text(row []string, key string) (string, error) {
	v, ok := idx.cell(row, key)
	if !ok {
		return "", fmt.Errorf("%s is missing", key)
	}
	return v, nil
}

func (idx columnIndex) float(row []string, key string) (float64, error) {
	v, ok := idx.cell(row, key)
	if !ok {
		return 0, fmt.Errorf("%s is missing", key)
	}
	return parseFloat(key, v)
}

// optionalFloat returns nil when the cell is empty or a missing token.
func (idx columnIndex) optionalFloat(row []string, key string) (*float64, error) {
	v, ok := idx.cell(row, key)
	if !ok {
		return nil, nil
	}
	f, err := parseFloat(key, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// integer accepts "10" as well as "10.0", which spreadsheets produce.
func (idx columnIndex) integer(row []string, key string) (int, error) {
	f, err := idx.float(row, key)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be a whole number, got %q", key, strconv.FormatFloat(f, 'f', -1, 64))
	}
	return int(f), nil
}

func parseFloat(key, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: %q is not a finite number", key, v)
	}
	return f, nil
}
