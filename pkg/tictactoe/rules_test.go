package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/tictactable/pkg/game"
)

func mustRules(t *testing.T, size int) *Rules {
	t.Helper()

	r, err := NewRules(size)
	require.NoError(t, err)
	return r
}

func boardWith(t *testing.T, size int, team game.Team, cells ...int) game.StateID {
	t.Helper()

	marks := make([]game.Team, size*size)
	for _, c := range cells {
		marks[c] = team
	}

	id, err := Encode(marks)
	require.NoError(t, err)
	return id
}

func TestNewRules(t *testing.T) {
	for _, size := range []int{0, -1, MaxBoardSize + 1} {
		_, err := NewRules(size)
		require.ErrorIs(t, err, ErrInvalidBoardSize, "size %d", size)
	}

	r := mustRules(t, 4)
	require.Equal(t, 16, r.Cells())
	require.Len(t, r.Lines(), 10)
	require.Contains(t, r.Lines(), []int{0, 5, 10, 15})
	require.Contains(t, r.Lines(), []int{3, 6, 9, 12})
	require.Contains(t, r.Lines(), []int{1, 5, 9, 13})
}

func TestWinner(t *testing.T) {
	r := mustRules(t, 3)

	t.Run("empty board has no winner", func(t *testing.T) {
		require.Equal(t, game.None, r.Winner(0))
	})

	t.Run("top row", func(t *testing.T) {
		require.Equal(t, game.TeamA, r.Winner(13))
		require.Equal(t, []int{0, 1, 2}, r.WinningLine(13))
	})

	t.Run("every line wins for both teams", func(t *testing.T) {
		for _, l := range r.Lines() {
			for _, team := range []game.Team{game.TeamA, game.TeamB} {
				id := boardWith(t, 3, team, l...)
				require.Equal(t, team, r.Winner(id), "line %v", l)
				require.Equal(t, l, r.WinningLine(id))
			}
		}
	})

	t.Run("incomplete lines do not win", func(t *testing.T) {
		require.Equal(t, game.None, r.Winner(boardWith(t, 3, game.TeamA, 0, 1)))
		require.Equal(t, game.None, r.Winner(boardWith(t, 3, game.TeamB, 0, 4)))
		require.Equal(t, game.None, r.Winner(boardWith(t, 3, game.TeamA, 2, 3, 4)))
	})

	t.Run("mixed line does not win", func(t *testing.T) {
		id, err := Encode([]game.Team{1, 2, 1, 0, 0, 0, 0, 0, 0})
		require.NoError(t, err)
		require.Equal(t, game.None, r.Winner(id))
	})

	t.Run("full board without a line is a draw", func(t *testing.T) {
		id, err := Encode([]game.Team{1, 2, 1, 1, 2, 2, 2, 1, 1})
		require.NoError(t, err)
		require.Equal(t, game.None, r.Winner(id))
		require.True(t, r.Full(id))
		require.Empty(t, r.ChildStates(id, game.TeamA))
	})

	t.Run("larger boards need the whole line", func(t *testing.T) {
		r4 := mustRules(t, 4)
		require.Equal(t, game.None, r4.Winner(boardWith(t, 4, game.TeamA, 0, 1, 2)))
		require.Equal(t, game.TeamA, r4.Winner(boardWith(t, 4, game.TeamA, 0, 1, 2, 3)))
		require.Equal(t, game.TeamB, r4.Winner(boardWith(t, 4, game.TeamB, 3, 6, 9, 12)))
		require.Equal(t, game.None, r4.Winner(boardWith(t, 4, game.TeamB, 2, 4, 6, 8)))
	})
}

func TestChildStates(t *testing.T) {
	r := mustRules(t, 3)

	t.Run("empty board yields one child per cell", func(t *testing.T) {
		children := r.ChildStates(0, game.TeamA)
		require.Len(t, children, 9)
		for i, c := range children {
			require.Equal(t, Pow3(i), c)
		}
	})

	t.Run("no children for an invalid team", func(t *testing.T) {
		require.Empty(t, r.ChildStates(0, game.None))
	})

	t.Run("every child places exactly one mark on an empty cell", func(t *testing.T) {
		r2 := mustRules(t, 2)
		for id := range StateCount(2) {
			for _, team := range []game.Team{game.TeamA, game.TeamB} {
				children := r2.ChildStates(id, team)
				require.Len(t, children, len(r2.LegalCells(id)))

				for _, c := range children {
					cell, err := MoveCell(id, c, 2)
					require.NoError(t, err)
					require.Equal(t, game.None, Digit(id, cell))
					require.Equal(t, team, Digit(c, cell))
					require.Contains(t, r2.ParentStates(c, team), id)
				}
			}
		}
	})
}

func TestParentStates(t *testing.T) {
	r := mustRules(t, 3)

	id, err := Encode([]game.Team{1, 2, 0, 0, 1, 0, 0, 0, 0})
	require.NoError(t, err)

	require.ElementsMatch(t, []game.StateID{id - 1, id - Pow3(4)}, r.ParentStates(id, game.TeamA))
	require.ElementsMatch(t, []game.StateID{id - 2*Pow3(1)}, r.ParentStates(id, game.TeamB))
	require.Empty(t, r.ParentStates(0, game.TeamA))
}

func TestTurn(t *testing.T) {
	r := mustRules(t, 3)

	require.Equal(t, game.TeamA, r.Turn(0))
	require.Equal(t, game.TeamB, r.Turn(1))
	require.Equal(t, game.TeamA, r.Turn(1+2*Pow3(1)))
}
