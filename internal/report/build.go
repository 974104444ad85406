package report

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"savings-workers/internal/common/metrics"
	"savings-workers/internal/models"
	"savings-workers/internal/savings"
)

// Options controls which outcomes make it into a section.
type Options struct {
	GoalMetOnly bool
	MaxItems    int // <= 0 keeps every outcome
	Parallelism int // <= 0 runs one person at a time
}

// Build runs the suggestion engine for every person and returns one section
// per person in input order. Persons are processed concurrently, at most
// opts.Parallelism at a time.
func Build(ctx context.Context, persons []models.Person, catalog []models.SavingsProduct, opts Options) ([]Section, error) {
	sections := make([]Section, len(persons))

	limit := opts.Parallelism
	if limit <= 0 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range persons {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes, skips := savings.SuggestWithSkips(p, catalog, p.Goal, p.HorizonYears)
			metrics.SavingsOutcomesGenerated.Add(float64(len(outcomes)))
			metrics.RecordSkips(skips.HorizonTooShort, skips.OverCap)

			sections[i] = Section{
				Person:    p,
				Outcomes:  savings.Rank(outcomes, opts.GoalMetOnly, opts.MaxItems),
				Generated: len(outcomes),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sections, nil
}

// Write prints the summary line followed by every section.
func Write(w io.Writer, sections []Section, productCount int) error {
	if err := WriteSummary(w, len(sections), productCount); err != nil {
		return err
	}
	for _, s := range sections {
		if err := WriteSection(w, s); err != nil {
			return err
		}
	}
	return nil
}
