package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zarux/tictactable/internal/config"
	"github.com/Zarux/tictactable/internal/logger"
	"github.com/Zarux/tictactable/services/game"
	"github.com/Zarux/tictactable/services/game/settings"
	"github.com/Zarux/tictactable/services/solver"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "game",
	Short:         "Play tic-tac-toe in the terminal against a solved game tree",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "yaml config file")
	rootCmd.Flags().Int("size", 3, "default board size on the settings screen")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.New(logger.WithWriter(os.Stderr)).Error("game failed", "error", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	// stdout belongs to the UI. Debug logs go to stderr, everything else is
	// dropped.
	var w io.Writer = io.Discard
	if cfg.Log.Level == "debug" {
		w = os.Stderr
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(logger.WithWriter(w), logger.WithLevel(level), logger.WithFormat(cfg.Log.Format))

	ctx := logger.NewContext(cmd.Context(), log)

	svc := game.New(
		solver.New(solver.Options{MaxNodes: cfg.Compiler.MaxNodes}),
		settings.Settings{AITeam: cfg.AITeam(), Size: cfg.Board.Size},
	)

	return svc.Play(ctx)
}
