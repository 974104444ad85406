package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	apperrors "savings-workers/internal/common/errors"
	"savings-workers/internal/models"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads the catalog table. Rows come back by position then
// name; a NULL max_total_contribution means no cap.
type PostgresSource struct {
	db      *sql.DB
	table   string
	timeout time.Duration
	query   string
}

func NewPostgresSource(db *sql.DB, table string, timeout time.Duration) (*PostgresSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &PostgresSource{
		db:      db,
		table:   table,
		timeout: timeout,
		query: fmt.Sprintf(`
		SELECT name, annual_rate, tax_rate, min_horizon_years, max_total_contribution
		FROM %s
		ORDER BY position, name`, table),
	}, nil
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Products(ctx context.Context) ([]models.SavingsProduct, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, s.mapError(ctx, err)
	}
	defer rows.Close()

	var products []models.SavingsProduct
	for rows.Next() {
		var p models.SavingsProduct
		var limit sql.NullFloat64
		if err := rows.Scan(&p.Name, &p.AnnualRate, &p.TaxRate, &p.MinHorizonYears, &limit); err != nil {
			return nil, apperrors.NewCatalogLoadFailedError(s.Name(), err)
		}
		if limit.Valid {
			p.MaxTotalContribution = models.Cap(limit.Float64)
		}
		if err := p.Validate(); err != nil {
			return nil, apperrors.NewInvalidRecordError(s.table, len(products)+1, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(ctx, err)
	}
	return products, nil
}

func (s *PostgresSource) mapError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(s.table)
	}
	return apperrors.NewCatalogLoadFailedError(s.Name(), err)
}
