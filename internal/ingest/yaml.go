// internal/ingest/yaml.go
package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "savings-workers/internal/common/errors"
	"savings-workers/internal/models"
)

// productsDocument is the YAML catalog layout:
//
//	products:
//	  - name: Livret A
//	    annual_rate: 0.03
//	    tax_rate: 0
//	    min_horizon_years: 0
//	    max_total_contribution: 22950
type productsDocument struct {
	Products []models.SavingsProduct `yaml:"products"`
}

// productEntry keeps absent keys apart from zero values.
type productEntry struct {
	Name                 *string  `yaml:"name"`
	AnnualRate           *float64 `yaml:"annual_rate"`
	TaxRate              *float64 `yaml:"tax_rate"`
	MinHorizonYears      *int     `yaml:"min_horizon_years"`
	MaxTotalContribution *float64 `yaml:"max_total_contribution"`
}

// product fails when a required key is absent, naming every missing one.
func (e productEntry) product() (models.SavingsProduct, error) {
	var missing []string
	if e.Name == nil {
		missing = append(missing, "name")
	}
	if e.AnnualRate == nil {
		missing = append(missing, "annual_rate")
	}
	if e.TaxRate == nil {
		missing = append(missing, "tax_rate")
	}
	if e.MinHorizonYears == nil {
		missing = append(missing, "min_horizon_years")
	}
	if len(missing) > 0 {
		return models.SavingsProduct{}, fmt.Errorf("%w: %s", errMissingFields, strings.Join(missing, ", "))
	}

	return models.SavingsProduct{
		Name:                 *e.Name,
		AnnualRate:           *e.AnnualRate,
		TaxRate:              *e.TaxRate,
		MinHorizonYears:      *e.MinHorizonYears,
		MaxTotalContribution: e.MaxTotalContribution,
	}, nil
}

var errMissingFields = errors.New("missing required fields")

func readProductsYAML(path string) ([]productEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, openError(path, err)
	}

	var doc struct {
		Products []productEntry `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewInvalidRecordError(path, 0, fmt.Errorf("decode yaml: %w", err))
	}
	return doc.Products, nil
}

func writeProductsYAML(path string, products []models.SavingsProduct) error {
	data, err := yaml.Marshal(productsDocument{Products: products})
	if err != nil {
		return apperrors.NewFileWriteFailedError(path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewFileWriteFailedError(path, err)
	}
	return nil
}
