package game

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Zarux/tictactable/pkg/ai"
	"github.com/Zarux/tictactable/pkg/compiler"
	"github.com/Zarux/tictactable/pkg/game"
	"github.com/Zarux/tictactable/pkg/tictactoe"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	right = tea.KeyMsg{Type: tea.KeyRight}
	left  = tea.KeyMsg{Type: tea.KeyLeft}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func engine(t *testing.T) (*tictactoe.Rules, *ai.Engine) {
	t.Helper()

	c, err := tictactoe.NewCompilation(3)
	require.NoError(t, err)

	table, err := compiler.New(c, compiler.Options{}).Compile(context.Background())
	require.NoError(t, err)

	e := ai.New(c.Rules)
	require.NoError(t, e.Load(table))
	return c.Rules, e
}

func playAt(m *model, cell int) {
	m.cursor = cell
	m.Update(enter)
}

func TestTwoPlayers(t *testing.T) {
	rules, e := engine(t)

	t.Run("marks alternate", func(t *testing.T) {
		m := InitialModel("", tictactoe.NewBoard(rules), e, game.None)
		require.Nil(t, m.Init())
		require.Zero(t, m.cursor)

		m.Update(enter)
		require.Equal(t, game.TeamA, m.board.Cells[0])
		require.Equal(t, game.TeamB, m.currentTeam)
		require.Equal(t, 1, m.cursor, "cursor leaves the occupied cell")

		m.Update(enter)
		require.Equal(t, game.TeamB, m.board.Cells[1])
		require.Contains(t, m.View(), "State: ")
	})

	t.Run("win highlights and replay", func(t *testing.T) {
		m := InitialModel("", tictactoe.NewBoard(rules), e, game.None)
		for _, c := range []int{0, 3, 1, 4, 2} {
			playAt(m, c)
		}

		require.True(t, m.gameOver)
		require.Equal(t, game.TeamA, m.winner)
		require.Equal(t, []int{0, 1, 2}, m.board.WinningLine())
		require.Contains(t, m.View(), gameOverText)

		_, cmd := m.Update(enter)
		require.NotNil(t, cmd)
		require.True(t, m.Replay)
		require.Empty(t, m.View())
	})

	t.Run("draw", func(t *testing.T) {
		m := InitialModel("", tictactoe.NewBoard(rules), nil, game.TeamB)
		for _, c := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			playAt(m, c)
		}

		require.True(t, m.gameOver)
		require.Equal(t, game.None, m.winner)
		require.Contains(t, m.View(), "NO ONE")
	})

	t.Run("restart", func(t *testing.T) {
		m := InitialModel("", tictactoe.NewBoard(rules), e, game.None)
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
		require.True(t, m.Restart)
	})
}

func TestAgainstComputer(t *testing.T) {
	rules, e := engine(t)

	t.Run("computer replies", func(t *testing.T) {
		m := InitialModel("", tictactoe.NewBoard(rules), e, game.TeamB)
		require.Nil(t, m.Init())

		playAt(m, 0)
		require.True(t, m.botTurn())

		before := m.board.Turn
		m.Update(enter)
		require.Equal(t, before, m.board.Turn, "input is ignored while the computer moves")

		msg := m.botMove()()
		done, ok := msg.(botDoneMsg)
		require.True(t, ok)
		require.NoError(t, done.err)
		require.Equal(t, 4, done.cell)

		m.Update(msg)
		require.Equal(t, game.TeamB, m.board.Cells[4])
		require.Equal(t, game.TeamA, m.currentTeam)
		require.False(t, m.botTurn())
		require.Contains(t, m.View(), "Computer played")
	})

	t.Run("computer opens", func(t *testing.T) {
		m := InitialModel("", tictactoe.NewBoard(rules), e, game.TeamA)
		require.NotNil(t, m.Init())

		m.Update(m.botMove()())
		require.Equal(t, game.TeamA, m.board.Cells[0])
		require.Equal(t, 1, m.cursor)
	})

	t.Run("lookup errors end the game", func(t *testing.T) {
		m := InitialModel("", tictactoe.NewBoard(rules), e, game.TeamB)
		m.Update(botDoneMsg{err: ai.ErrUnknownState})
		require.True(t, m.gameOver)
		require.Contains(t, m.View(), "error: ")
	})
}

func TestCursor(t *testing.T) {
	rules, e := engine(t)

	// X . X
	// . X .
	// . . .
	b := tictactoe.BoardFromState(rules, 1+9+81)
	m := InitialModel("", b, e, game.None)
	require.Equal(t, 1, m.cursor)

	m.Update(right)
	require.Equal(t, 3, m.cursor, "occupied cells are skipped")

	m.Update(left)
	require.Equal(t, 1, m.cursor)

	m.Update(left)
	require.Equal(t, 1, m.cursor, "no empty cell to the left")

	m.Update(down)
	require.Equal(t, 7, m.cursor, "centre is taken")

	m.Update(up)
	require.Equal(t, 1, m.cursor)

	m.Update(up)
	require.Equal(t, 1, m.cursor)
}
