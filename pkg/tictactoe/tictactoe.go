package tictactoe

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Zarux/tictactable/pkg/game"
)

var (
	ErrOccupiedCell = errors.New("cell already occupied")
	ErrOutOfRange   = errors.New("cell out of range")
)

type Move struct {
	X int
	Y int
}

// Board is the mutable, cell-by-cell view of a game used by the front ends.
// The compiled table only ever sees its StateID.
type Board struct {
	N        int
	Cells    []game.Team
	LastMove int
	Turn     int

	rules *Rules
}

func NewBoard(rules *Rules) *Board {
	return &Board{
		N:        rules.Size(),
		Cells:    make([]game.Team, rules.Cells()),
		LastMove: -1,
		rules:    rules,
	}
}

// BoardFromState decodes id into a fresh board.
func BoardFromState(rules *Rules, id game.StateID) *Board {
	b := NewBoard(rules)
	b.SetState(id)
	return b
}

func (b *Board) GetIdx(x, y int) int {
	return y*b.N + x
}

func (b *Board) GetMove(idx int) Move {
	return Move{
		X: idx % b.N,
		Y: idx / b.N,
	}
}

func (b *Board) Get(x, y int) game.Team {
	return b.Cells[b.GetIdx(x, y)]
}

func (b *Board) Play(t game.Team, m Move) error {
	if m.X < 0 || m.Y < 0 || m.X >= b.N || m.Y >= b.N {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, m.X, m.Y)
	}

	return b.ApplyMove(b.GetIdx(m.X, m.Y), t)
}

func (b *Board) ApplyMove(idx int, t game.Team) error {
	if idx < 0 || idx >= len(b.Cells) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, idx)
	}

	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMark, t)
	}

	if b.Cells[idx] != game.None {
		return fmt.Errorf("%w: %d", ErrOccupiedCell, idx)
	}

	b.Cells[idx] = t
	b.LastMove = idx
	b.Turn++

	return nil
}

func (b *Board) AnyLegalMoves() bool {
	return slices.Contains(b.Cells, game.None)
}

// LegalMoves lists the empty cells in index order.
func (b *Board) LegalMoves() []int {
	return b.rules.LegalCells(b.StateID())
}

func (b *Board) StateID() game.StateID {
	var id game.StateID
	for i, c := range b.Cells {
		id += game.StateID(c) * pow3[i]
	}

	return id
}

// SetState overwrites every cell from id. The last move is forgotten.
func (b *Board) SetState(id game.StateID) {
	b.Cells = Decode(id, b.N)
	b.LastMove = -1
	b.Turn = len(b.Cells) - len(b.LegalMoves())
}

func (b *Board) CheckWinner() game.Team {
	return b.rules.Winner(b.StateID())
}

// GameOver reports whether someone won or the board is full.
func (b *Board) GameOver() bool {
	return b.CheckWinner() != game.None || !b.AnyLegalMoves()
}

// NextTeam is the team whose turn it is.
func (b *Board) NextTeam() game.Team {
	return b.rules.Turn(b.StateID())
}

// WinningLine returns the completed line, if any.
func (b *Board) WinningLine() []int {
	return b.rules.WinningLine(b.StateID())
}

func (b *Board) Clone() *Board {
	cells := make([]game.Team, len(b.Cells))
	copy(cells, b.Cells)

	return &Board{
		N:        b.N,
		Cells:    cells,
		LastMove: b.LastMove,
		Turn:     b.Turn,
		rules:    b.rules,
	}
}

func (b *Board) String() string {
	var s strings.Builder
	for i, p := range b.Cells {
		fmt.Fprintf(&s, "[%s]", p.Mark())
		if (i+1)%b.N == 0 {
			s.WriteString("\n")
		}
	}

	return s.String()
}
