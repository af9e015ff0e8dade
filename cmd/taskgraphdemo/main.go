// ============================================================================
// taskgraphdemo — a small CLI that walks through the scheduler's scenarios
// ============================================================================
//
// Package: main
// File: main.go
//
// Mirrors the cobra-based command structure of the teacher's
// internal/cli/cli.go, shrunk to this design's scope: there is no
// distributed mode, no job submission protocol, no WAL/snapshot
// configuration. What survives is the pattern — a root command carrying a
// --config flag, subcommands doing one thing each, YAML config loaded
// through internal/config, structured logging through log/slog, and an
// optional Prometheus endpoint.
//
// ============================================================================

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChuLiYu/depgraph-pool/internal/config"
	"github.com/ChuLiYu/depgraph-pool/internal/metrics"
)

var configFile string

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "taskgraphdemo",
		Short:   "Walks through a dependency-aware task scheduler's worked scenarios",
		Version: "1.0.0",
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional, defaults are used if omitted)")

	root.AddCommand(buildListCommand())
	root.AddCommand(buildRunCommand())
	return root
}

func buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range scenarios {
				fmt.Printf("%-20s %s\n", s.name, s.desc)
			}
			return nil
		},
	}
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run one scenario, or every scenario if none is named",
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return runScenarios(name)
		},
	}
	return cmd
}

func runScenarios(name string) error {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))

	collector := metrics.NewCollector()
	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", collector.Handler())
			logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	selected := scenarios
	if name != "" {
		selected = nil
		for _, s := range scenarios {
			if s.name == name {
				selected = append(selected, s)
			}
		}
		if len(selected) == 0 {
			return fmt.Errorf("unknown scenario %q, see 'taskgraphdemo list'", name)
		}
	}

	for _, s := range selected {
		fmt.Printf("== %s: %s ==\n", s.name, s.desc)
		s.run(logger, collector, cfg.Pool.WorkerCount)
	}
	return nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
