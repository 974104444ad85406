package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"savings-workers/internal/ingest"
)

const (
	kindPersons  = "persons"
	kindProducts = "products"
)

type convertOptions struct {
	in          string
	out         string
	kind        string
	skipInvalid bool
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Re-save a persons or products dataset in another format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "", "dataset to read")
	cmd.Flags().StringVar(&opts.out, "out", "", "dataset to write, format taken from the extension")
	cmd.Flags().StringVar(&opts.kind, "kind", kindPersons, "dataset kind: persons or products")
	cmd.Flags().BoolVar(&opts.skipInvalid, "skip-invalid", false, "drop invalid rows instead of failing")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runConvert(cmd *cobra.Command, root *rootOptions, opts *convertOptions) error {
	readOpts := ingest.Options{SkipInvalidRows: opts.skipInvalid, Logger: root.logger()}

	var count int
	switch opts.kind {
	case kindPersons:
		persons, err := ingest.ReadPersons(opts.in, readOpts)
		if err != nil {
			return err
		}
		if err := ingest.WritePersons(opts.out, persons); err != nil {
			return err
		}
		count = len(persons)
	case kindProducts:
		products, err := ingest.ReadProducts(opts.in, readOpts)
		if err != nil {
			return err
		}
		if err := ingest.WriteProducts(opts.out, products); err != nil {
			return err
		}
		count = len(products)
	default:
		return fmt.Errorf("--kind must be %s or %s, got %q", kindPersons, kindProducts, opts.kind)
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d %s to %s\n", count, opts.kind, opts.out)
	return err
}
