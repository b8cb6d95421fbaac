package main

import (
	"context"
	"fmt"
	"os"

	"startupstats/app"
	"startupstats/internal/config"
	"startupstats/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "startupstats",
		Short:         "Exploratory analysis and hypothesis tests for the startup outcomes dataset",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging.Level)
	svc := app.NewAnalysisService(cfg, logger, os.Stdout)
	_, err = svc.Run(ctx)
	return err
}
