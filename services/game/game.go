package game

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/tictactable/internal/logger"
	tttgame "github.com/Zarux/tictactable/pkg/game"
	"github.com/Zarux/tictactable/pkg/tictactoe"
	"github.com/Zarux/tictactable/services/game/game"
	"github.com/Zarux/tictactable/services/game/settings"
	"github.com/Zarux/tictactable/services/solver"
)

type solverService interface {
	Solve(ctx context.Context, size int) (*solver.Solved, error)
}

type Service struct {
	solver   solverService
	defaults settings.Settings
	opts     []tea.ProgramOption
}

func New(s solverService, defaults settings.Settings, opts ...tea.ProgramOption) *Service {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &Service{
		solver:   s,
		defaults: defaults,
		opts:     opts,
	}
}

// Play runs the settings screen and then games until the player quits.
func (s *Service) Play(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for {
		settingsModel := settings.InitialModel(header(), s.defaults)
		if _, err := tea.NewProgram(settingsModel, s.opts...).Run(); err != nil {
			return fmt.Errorf("settings: %w", err)
		}

		if settingsModel.Quit {
			return nil
		}

		cfg := settingsModel.GetSettings()
		s.defaults = cfg

		solved, err := s.solver.Solve(ctx, cfg.Size)
		if err != nil {
			return err
		}

		botTeam := cfg.AITeam
		if cfg.TwoPlayer {
			botTeam = tttgame.None
		}

		log.Debug("starting games", "size", cfg.Size, "two_player", cfg.TwoPlayer, "computer", botTeam)

		restart, err := s.playGames(solved, botTeam)
		if err != nil {
			return err
		}

		if !restart {
			return nil
		}
	}
}

func (s *Service) playGames(solved *solver.Solved, botTeam tttgame.Team) (bool, error) {
	for {
		gameModel := game.InitialModel(header(), tictactoe.NewBoard(solved.Rules), solved.Engine, botTeam)

		if _, err := tea.NewProgram(gameModel, s.opts...).Run(); err != nil {
			return false, fmt.Errorf("game: %w", err)
		}

		if gameModel.Restart {
			return true, nil
		}

		if !gameModel.Replay {
			return false, nil
		}
	}
}

var (
	headerStyle1 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4204b5ff", Dark: "#4204b5ff"}).Render
	headerStyle2 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#19b504ff", Dark: "#19b504ff"}).Render
	headerStyle3 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b55404ff", Dark: "#b55404ff"}).Render
)

func header() string {
	return fmt.Sprintf(
		"%s %s %s %s %s\n\n",
		headerStyle2("---"),
		headerStyle1("Tic"),
		headerStyle2("Tac"),
		headerStyle3("Table"),
		headerStyle2("---"),
	)
}
