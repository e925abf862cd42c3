package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Zarux/tictactable/internal/config"
	"github.com/Zarux/tictactable/internal/logger"
	"github.com/Zarux/tictactable/pkg/compiler"
	"github.com/Zarux/tictactable/services/solver"
)

var (
	configPath string
	format     string
)

var rootCmd = &cobra.Command{
	Use:           "solve",
	Short:         "Compile the full game tree for a board size and print its statistics",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "yaml config file")
	rootCmd.Flags().Int("size", 3, "board size")
	rootCmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.New(logger.WithWriter(os.Stderr)).Error("solve failed", "error", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(logger.WithWriter(cmd.ErrOrStderr()), logger.WithLevel(level), logger.WithFormat(cfg.Log.Format))
	ctx := logger.NewContext(cmd.Context(), log)

	solved, err := solver.Compile(ctx, cfg.Board.Size, solver.Options{MaxNodes: cfg.Compiler.MaxNodes})
	if err != nil {
		return err
	}

	return writeStats(cmd.OutOrStdout(), solved.Stats, format)
}

func writeStats(w io.Writer, stats *compiler.Stats, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(stats); err != nil {
			return err
		}

		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	return fmt.Errorf("unknown output format %q", format)
}
