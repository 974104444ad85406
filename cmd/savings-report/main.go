// cmd/savings-report/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"

	"savings-workers/internal/common/config"
	"savings-workers/internal/common/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "savings-report",
		Short:        "Suggest savings plans for a dataset of persons",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "configuration file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	cmd.AddCommand(newSuggestCmd(opts), newConvertCmd(opts))
	return cmd
}

// loadConfig returns nil when no configuration file was given.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return nil, nil
	}
	return config.LoadFromFile(o.configPath)
}

func (o *rootOptions) logger() logger.Logger {
	return logger.NewStructured(o.logLevel, "console")
}
