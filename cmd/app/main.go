package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"FinScore/internal/di"
	"FinScore/internal/domain/models"
	"FinScore/internal/services/scoring"
	"FinScore/pkg/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var (
	configPath string
	outputDir  string
	noInitial  bool
	cohortFlag string
)

var rootCmd = &cobra.Command{
	Use:     "finscore",
	Short:   "FinScore - financial health scoring and anomaly engine",
	Long:    `FinScore scores quarterly bank indicators against cohort thresholds and flags anomalous score moves per company and dimension.`,
	Version: Version,
	// errors are printed once by main
	SilenceErrors: true,
	SilenceUsage:  true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the indicator table once and print the run summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if outputDir != "" {
			cfg.Output.Dir = outputDir
		}
		app, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		run, err := app.RunOnce(ctx)
		if run != nil {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(run.Summary()); encErr != nil {
				return encErr
			}
		}
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run once, then serve the dashboard query API until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		return app.Serve(!noInitial)
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the status cascade in evaluation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cohorts := models.Cohorts()
		if cohortFlag != "" {
			c, err := models.ParseCohort(cohortFlag)
			if err != nil {
				return err
			}
			cohorts = []models.Cohort{c}
		}
		out := cmd.OutOrStdout()
		for _, c := range cohorts {
			fmt.Fprintf(out, "%s:\n", c)
			for i, s := range scoring.Rules(c) {
				fmt.Fprintf(out, "  %d. %s\n", i+1, s)
			}
		}
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")
	runCmd.Flags().StringVarP(&outputDir, "output", "o", "", "write CSV exports to this directory")
	serveCmd.Flags().BoolVar(&noInitial, "no-initial-run", false, "start serving without evaluating first")
	rulesCmd.Flags().StringVar(&cohortFlag, "cohort", "", "local or global (default both)")

	rootCmd.AddCommand(runCmd, serveCmd, rulesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
