// Package main provides the cbc command line entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TrevorS/cbc"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cbc",
		Short: "Clustering By Committee for sparse feature vectors",
		Long: `cbc groups sparse, high-dimensional rows (for example term feature
vectors) into clusters without knowing the number of clusters up front.

It finds tight, mutually distinct committees inside each row's nearest
neighbors, then assigns every row to its closest committee (--hard) or to a
set of distinct committees (soft, the default).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cbc v%s (%s)\n", version, commit)
		},
	})

	clusterCmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster rows read from a file",
		Long: `Read one row per line as whitespace-separated feature:weight tokens
(a blank line is an empty row), cluster them, and print each row's committees.
Use --input - to read from standard input.`,
		Args: cobra.NoArgs,
		RunE: runCluster,
	}
	clusterCmd.Flags().StringP("input", "i", "", "Input file of feature:weight rows (- for stdin)")
	clusterCmd.Flags().StringP("config", "c", "", "YAML configuration file")
	clusterCmd.Flags().Bool("hard", false, "Assign every row to exactly one committee")
	clusterCmd.Flags().String("format", "text", "Output format: text or json")
	clusterCmd.Flags().Int("workers", 0, "Worker goroutines (0 = number of CPUs)")
	clusterCmd.Flags().String("linkage", "", "HAC linkage: mean, single or complete")
	clusterCmd.Flags().String("reduction", "", "Soft reduction: none or progressive")
	clusterCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	_ = clusterCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(clusterCmd)

	return rootCmd
}

func runCluster(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	configPath, _ := cmd.Flags().GetString("config")
	format, _ := cmd.Flags().GetString("format")

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown output format %q", format)
	}

	fc, err := loadFileConfig(configPath)
	if err != nil {
		return err
	}
	if err := fc.applyFlags(cmd.Flags()); err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), fc.LogLevel)
	if err != nil {
		return err
	}
	cfg, err := fc.toConfig()
	if err != nil {
		return err
	}
	cfg.Logger = logger

	m, err := readInput(cmd, inputPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := cbc.Cluster(ctx, m, cfg)
	if err != nil {
		return fmt.Errorf("clustering: %w", err)
	}
	logger.Info("clustering finished",
		"rows", m.Rows(),
		"committees", len(result.Committees),
		"rounds", len(result.Rounds),
		"residual", len(result.Residual),
	)

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return writeText(cmd.OutOrStdout(), result)
}

func readInput(cmd *cobra.Command, path string) (*cbc.SparseMatrix, error) {
	if path == "-" {
		return parseRows(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return parseRows(f)
}
