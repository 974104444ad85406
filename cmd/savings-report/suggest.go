package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"savings-workers/internal/catalog"
	"savings-workers/internal/common/config"
	"savings-workers/internal/common/logger"
	"savings-workers/internal/ingest"
	"savings-workers/internal/models"
	"savings-workers/internal/report"
)

const defaultParallelism = 4

type suggestOptions struct {
	personsPath  string
	productsPath string
	all          bool
	maxItems     int
	parallelism  int
	skipInvalid  bool
}

func newSuggestCmd(root *rootOptions) *cobra.Command {
	opts := &suggestOptions{}

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Print the ranked savings outcomes of every person",
		Long: "Loads the persons and the savings catalog, projects every product and contribution " +
			"scenario for each person and prints the outcomes reaching their goal, best first.\n" +
			"Without --products the catalog comes from the source configured with --config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			applyReportConfig(cmd, cfg, opts)
			return runSuggest(cmd, cfg, root.logger(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.personsPath, "persons", "", "persons dataset (.csv, .txt, .xlsx)")
	cmd.Flags().StringVar(&opts.productsPath, "products", "", "savings products dataset (.csv, .txt, .xlsx, .yaml)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "also list outcomes missing the goal")
	cmd.Flags().IntVar(&opts.maxItems, "max", 0, "maximum outcomes per person, 0 for no limit")
	cmd.Flags().IntVar(&opts.parallelism, "parallel", defaultParallelism, "persons processed concurrently")
	cmd.Flags().BoolVar(&opts.skipInvalid, "skip-invalid", false, "drop invalid rows instead of failing")
	_ = cmd.MarkFlagRequired("persons")

	return cmd
}

// applyReportConfig fills the flags left unset from the configuration file.
func applyReportConfig(cmd *cobra.Command, cfg *config.Config, opts *suggestOptions) {
	if cfg == nil {
		return
	}
	flags := cmd.Flags()
	if !flags.Changed("max") {
		opts.maxItems = cfg.Report.MaxItems
	}
	if !flags.Changed("parallel") {
		opts.parallelism = cfg.Report.Parallelism
	}
	if !flags.Changed("skip-invalid") {
		opts.skipInvalid = cfg.Ingestion.SkipInvalidRows
	}
	if !flags.Changed("all") {
		opts.all = !cfg.Report.GoalMetOnly
	}
}

func runSuggest(cmd *cobra.Command, cfg *config.Config, log logger.Logger, opts *suggestOptions) error {
	ctx := cmd.Context()

	readOpts := ingest.Options{SkipInvalidRows: opts.skipInvalid, Logger: log}
	persons, err := ingest.ReadPersons(opts.personsPath, readOpts)
	if err != nil {
		return err
	}

	products, err := loadProducts(ctx, cfg, log, opts, readOpts)
	if err != nil {
		return err
	}

	sections, err := report.Build(ctx, persons, products, report.Options{
		GoalMetOnly: !opts.all,
		MaxItems:    opts.maxItems,
		Parallelism: opts.parallelism,
	})
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), sections, len(products))
}

func loadProducts(ctx context.Context, cfg *config.Config, log logger.Logger, opts *suggestOptions, readOpts ingest.Options) ([]models.SavingsProduct, error) {
	if opts.productsPath != "" {
		return ingest.ReadProducts(opts.productsPath, readOpts)
	}
	if cfg == nil {
		return nil, fmt.Errorf("--products is required when no --config is given")
	}

	src, closeFn, err := catalog.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return catalog.Load(ctx, src)
}
