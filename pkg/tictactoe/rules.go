package tictactoe

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/Zarux/tictactable/pkg/game"
)

var ErrInvalidBoardSize = errors.New("invalid board size")

// DefaultBoardSize is the classic 3×3 board.
const DefaultBoardSize = 3

// Rules implements game.Rules for n×n tic-tac-toe where a full row, column
// or main diagonal wins.
type Rules struct {
	size  int
	lines [][]int
}

func NewRules(size int) (*Rules, error) {
	if size < 1 || size > MaxBoardSize {
		return nil, fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidBoardSize, size, MaxBoardSize)
	}

	return &Rules{
		size:  size,
		lines: buildLines(size),
	}, nil
}

// buildLines lists the cell indices of every winning line. Rows step by one
// cell, columns by size, the diagonal by size+1 and the anti-diagonal by
// size-1.
func buildLines(n int) [][]int {
	lines := make([][]int, 0, 2*n+2)
	for r := range n {
		lines = append(lines, line(r*n, 1, n))
	}

	for c := range n {
		lines = append(lines, line(c, n, n))
	}

	lines = append(lines, line(0, n+1, n), line(n-1, n-1, n))

	return lines
}

func line(start, stride, n int) []int {
	cells := make([]int, n)
	for i := range n {
		cells[i] = start + i*stride
	}

	return cells
}

func (r *Rules) Size() int {
	return r.size
}

func (r *Rules) Cells() int {
	return r.size * r.size
}

func (r *Rules) Lines() [][]int {
	return r.lines
}

func (r *Rules) Winner(id game.StateID) game.Team {
	for _, l := range r.lines {
		if t := lineOwner(id, l); t != game.None {
			return t
		}
	}

	return game.None
}

// WinningLine returns the cells of the first completed line, or nil.
func (r *Rules) WinningLine(id game.StateID) []int {
	for _, l := range r.lines {
		if lineOwner(id, l) != game.None {
			return l
		}
	}

	return nil
}

func lineOwner(id game.StateID, l []int) game.Team {
	t := Digit(id, l[0])
	if t == game.None {
		return game.None
	}

	for _, c := range l[1:] {
		if Digit(id, c) != t {
			return game.None
		}
	}

	return t
}

func (r *Rules) ChildStates(id game.StateID, team game.Team) []game.StateID {
	if !team.Valid() {
		return nil
	}

	var states []game.StateID
	rest := id
	for i := range r.Cells() {
		if rest%3 == 0 {
			states = append(states, id+game.StateID(team)*pow3[i])
		}

		rest /= 3
	}

	return states
}

func (r *Rules) ParentStates(id game.StateID, team game.Team) []game.StateID {
	if !team.Valid() {
		return nil
	}

	var states []game.StateID
	for i := range r.Cells() {
		if Digit(id, i) == team {
			states = append(states, id-game.StateID(team)*pow3[i])
		}
	}

	return states
}

// LegalCells lists the empty cells of id.
func (r *Rules) LegalCells(id game.StateID) []int {
	var cells []int
	for i := range r.Cells() {
		if Digit(id, i) == game.None {
			cells = append(cells, i)
		}
	}

	return cells
}

// Full reports whether every cell is occupied.
func (r *Rules) Full(id game.StateID) bool {
	return !lo.Contains(Decode(id, r.size), game.None)
}

// Turn derives the team to move from the mark counts. Team A opens.
func (r *Rules) Turn(id game.StateID) game.Team {
	cells := Decode(id, r.size)
	if lo.Count(cells, game.TeamA) > lo.Count(cells, game.TeamB) {
		return game.TeamB
	}

	return game.TeamA
}
