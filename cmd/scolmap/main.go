// Package main provides the scolmap binary entry point.
// Scolmap builds the regional school dataset: it fetches French government
// open data, aggregates election results per commune, and merges everything
// into the JSON artifacts the map frontend consumes.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "scolmap"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath  string
		logLevel    string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "scolmap",
		Short: "Regional school dataset pipeline",
		Long: `Scolmap builds a public dataset of the schools in a French region,
enriched with social and political indicators.

Stages:
- fetch      download and cache the school datasets
- political  aggregate election results per commune
- merge      join the cached school datasets into schools.json
- validate   check the final artifacts offline

Each stage reads and writes JSON artifacts under the configured data
directories, so stages can be re-run independently.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	newStage := func() (*app, error) {
		return newApp(configPath, logLevel, metricsAddr)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "fetch",
		Short: "Download and cache the school datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newStage()
			if err != nil {
				return err
			}
			return a.runFetch()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "political",
		Short: "Aggregate election results per commune",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newStage()
			if err != nil {
				return err
			}
			return a.runPolitical()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "merge",
		Short: "Join the cached school datasets into the final output",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newStage()
			if err != nil {
				return err
			}
			return a.runMerge()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the final artifacts offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newStage()
			if err != nil {
				return err
			}
			return a.runValidate()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
