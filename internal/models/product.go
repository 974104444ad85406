// internal/models/product.go
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidPerson  = errors.New("invalid person")
	ErrInvalidProduct = errors.New("invalid savings product")
)

// SavingsProduct describes one product of the catalog. The catalog is shared
// read-only by every suggestion run.
type SavingsProduct struct {
	Name            string  `json:"name" yaml:"name"`
	AnnualRate      float64 `json:"annualRate" yaml:"annual_rate"`
	TaxRate         float64 `json:"taxRate" yaml:"tax_rate"`
	MinHorizonYears int     `json:"minHorizonYears" yaml:"min_horizon_years"`
	// MaxTotalContribution caps the sum of contributions over the horizon.
	// Nil means the product has no cap.
	MaxTotalContribution *float64 `json:"maxTotalContribution,omitempty" yaml:"max_total_contribution,omitempty"`
}

// HasCap reports whether the product limits total contributions.
func (p SavingsProduct) HasCap() bool {
	return p.MaxTotalContribution != nil
}

func (p SavingsProduct) Validate() error {
	var problems []string

	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "name is required")
	}
	if math.IsNaN(p.AnnualRate) || math.IsInf(p.AnnualRate, 0) {
		problems = append(problems, "annual rate must be a finite number")
	}
	if math.IsNaN(p.TaxRate) || p.TaxRate < 0 || p.TaxRate > 1 {
		problems = append(problems, fmt.Sprintf("tax rate must be within [0, 1], got %g", p.TaxRate))
	}
	if p.MinHorizonYears < 0 {
		problems = append(problems, fmt.Sprintf("minimum horizon must be >= 0, got %d", p.MinHorizonYears))
	}
	if p.MaxTotalContribution != nil {
		problems = appendNonNegative(problems, "max total contribution", *p.MaxTotalContribution)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidProduct, p.Name, strings.Join(problems, "; "))
	}
	return nil
}

func (p SavingsProduct) String() string {
	limit := "no contribution cap"
	if p.MaxTotalContribution != nil {
		limit = fmt.Sprintf("contributions capped at %.2f", *p.MaxTotalContribution)
	}
	return fmt.Sprintf("savings product %q: rate %g, tax %g, minimum %d years, %s",
		p.Name, p.AnnualRate, p.TaxRate, p.MinHorizonYears, limit)
}

// Cap returns a pointer usable as MaxTotalContribution.
func Cap(v float64) *float64 {
	return &v
}
