// Package ingest reads and writes the person and savings product datasets
// in CSV, tab separated text, XLSX and (products only) YAML.
package ingest

import (
	"errors"
	"os"
	"strconv"

	apperrors "savings-workers/internal/common/errors"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/models"
)

// Options tunes how rows are read.
type Options struct {
	// SkipInvalidRows drops rows that fail to parse or validate, with a
	// warning, instead of failing the whole import.
	SkipInvalidRows bool
	Logger          logger.Logger
}

func (o Options) log() logger.Logger {
	if o.Logger == nil {
		return logger.NewNoOpLogger()
	}
	return o.Logger
}

// ReadPersons imports person profiles from path.
func ReadPersons(path string, opts Options) ([]models.Person, error) {
	format, err := prepareRead(path)
	if err != nil {
		return nil, err
	}
	if format == FormatYAML {
		return nil, apperrors.NewUnsupportedFileFormatError(path)
	}

	t, err := readTable(path, format)
	if err != nil {
		return nil, err
	}

	idx, missing := resolveColumns(t.header, personColumns)
	if len(missing) > 0 {
		return nil, apperrors.NewMissingColumnsError(path, missing)
	}

	log := opts.log().WithFields(map[string]interface{}{"file": path})
	persons := make([]models.Person, 0, len(t.rows))
	for i, row := range t.rows {
		p, err := parsePerson(idx, row)
		if err == nil {
			err = p.Validate()
		}
		if err != nil {
			if !opts.SkipInvalidRows {
				return nil, apperrors.NewInvalidRecordError(path, i+1, err)
			}
			log.Warn("Skipping invalid person row", map[string]interface{}{"row": i + 1, "error": err.Error()})
			continue
		}
		persons = append(persons, p)
	}

	log.Info("Persons imported", map[string]interface{}{"count": len(persons), "rows": len(t.rows)})
	return persons, nil
}

// ReadProducts imports the savings product catalog from path. Catalog order
// is the row order.
func ReadProducts(path string, opts Options) ([]models.SavingsProduct, error) {
	format, err := prepareRead(path)
	if err != nil {
		return nil, err
	}

	log := opts.log().WithFields(map[string]interface{}{"file": path})
	var products []models.SavingsProduct
	var rows int

	if format == FormatYAML {
		entries, err := readProductsYAML(path)
		if err != nil {
			return nil, err
		}
		rows = len(entries)
		for i, entry := range entries {
			p, err := entry.product()
			if err == nil {
				err = p.Validate()
			}
			if err != nil {
				if !opts.SkipInvalidRows {
					return nil, apperrors.NewInvalidRecordError(path, i+1, err)
				}
				log.Warn("Skipping invalid product entry", map[string]interface{}{"row": i + 1, "error": err.Error()})
				continue
			}
			products = append(products, p)
		}
	} else {
		t, err := readTable(path, format)
		if err != nil {
			return nil, err
		}
		idx, missing := resolveColumns(t.header, productColumns)
		if len(missing) > 0 {
			return nil, apperrors.NewMissingColumnsError(path, missing)
		}
		rows = len(t.rows)
		for i, row := range t.rows {
			p, err := parseProduct(idx, row)
			if err == nil {
				err = p.Validate()
			}
			if err != nil {
				if !opts.SkipInvalidRows {
					return nil, apperrors.NewInvalidRecordError(path, i+1, err)
				}
				log.Warn("Skipping invalid product row", map[string]interface{}{"row": i + 1, "error": err.Error()})
				continue
			}
			products = append(products, p)
		}
	}

	log.Info("Savings products imported", map[string]interface{}{"count": len(products), "rows": rows})
	return products, nil
}

// WritePersons saves persons to path using the canonical column names.
func WritePersons(path string, persons []models.Person) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == FormatYAML {
		return apperrors.NewUnsupportedFileFormatError(path)
	}

	t := &table{header: []string{
		colName, colAge, colAnnualIncome, colMonthlyRent, colMonthlyExpenses,
		colGoal, colHorizonYears, colUserMonthlyContribution,
	}, numeric: []bool{false, true, true, true, true, true, true, true}}
	for _, p := range persons {
		t.rows = append(t.rows, []string{
			p.Name,
			strconv.Itoa(p.Age),
			formatFloat(p.AnnualIncome),
			formatFloat(p.MonthlyRent),
			formatFloat(p.MonthlyExpenses),
			formatFloat(p.Goal),
			strconv.Itoa(p.HorizonYears),
			formatFloat(p.UserMonthlyContribution),
		})
	}
	return writeTable(path, format, t)
}

// WriteProducts saves the catalog to path. A product without a cap gets an
// empty cap cell.
func WriteProducts(path string, products []models.SavingsProduct) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == FormatYAML {
		return writeProductsYAML(path, products)
	}

	t := &table{header: []string{
		colName, colAnnualRate, colTaxRate, colMinHorizonYears, colMaxTotalContribution,
	}, numeric: []bool{false, true, true, true, true}}
	for _, p := range products {
		limit := ""
		if p.MaxTotalContribution != nil {
			limit = formatFloat(*p.MaxTotalContribution)
		}
		t.rows = append(t.rows, []string{
			p.Name,
			formatFloat(p.AnnualRate),
			formatFloat(p.TaxRate),
			strconv.Itoa(p.MinHorizonYears),
			limit,
		})
	}
	return writeTable(path, format, t)
}

func parsePerson(idx columnIndex, row []string) (models.Person, error) {
	var p models.Person
	var err error

	if p.Name, err = idx.text(row, colName); err != nil {
		return p, err
	}
	if p.Age, err = idx.integer(row, colAge); err != nil {
		return p, err
	}
	if p.AnnualIncome, err = idx.float(row, colAnnualIncome); err != nil {
		return p, err
	}
	if p.MonthlyRent, err = idx.float(row, colMonthlyRent); err != nil {
		return p, err
	}
	if p.MonthlyExpenses, err = idx.float(row, colMonthlyExpenses); err != nil {
		return p, err
	}
	if p.Goal, err = idx.float(row, colGoal); err != nil {
		return p, err
	}
	if p.HorizonYears, err = idx.integer(row, colHorizonYears); err != nil {
		return p, err
	}

	contribution, err := idx.optionalFloat(row, colUserMonthlyContribution)
	if err != nil {
		return p, err
	}
	if contribution != nil {
		p.UserMonthlyContribution = *contribution
	}
	return p, nil
}

func parseProduct(idx columnIndex, row []string) (models.SavingsProduct, error) {
	var p models.SavingsProduct
	var err error

	if p.Name, err = idx.text(row, colName); err != nil {
		return p, err
	}
	if p.AnnualRate, err = idx.float(row, colAnnualRate); err != nil {
		return p, err
	}
	if p.TaxRate, err = idx.float(row, colTaxRate); err != nil {
		return p, err
	}
	if p.MinHorizonYears, err = idx.integer(row, colMinHorizonYears); err != nil {
		return p, err
	}
	p.MaxTotalContribution, err = idx.optionalFloat(row, colMaxTotalContribution)
	return p, err
}

func prepareRead(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", apperrors.NewFileNotFoundError(path, err)
	}
	if info.IsDir() {
		return "", apperrors.NewFileNotFoundError(path, errors.New("path is a directory"))
	}
	return DetectFormat(path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
