package tictactoe

import (
	"errors"
	"fmt"

	"github.com/Zarux/tictactable/pkg/game"
)

// MaxBoardSize is the largest n for which every n×n board fits in a StateID.
const MaxBoardSize = 6

var (
	ErrInvalidMark   = errors.New("invalid mark")
	ErrBoardTooLarge = errors.New("board too large")
	ErrNotSingleMove = errors.New("states differ by more than one placement")
)

var pow3 [MaxBoardSize*MaxBoardSize + 1]game.StateID

func init() {
	pow3[0] = 1
	for i := 1; i < len(pow3); i++ {
		pow3[i] = pow3[i-1] * 3
	}
}

// Pow3 returns 3^i for 0 <= i <= MaxBoardSize².
func Pow3(i int) game.StateID {
	return pow3[i]
}

// Digit returns the mark stored in cell i of id.
func Digit(id game.StateID, i int) game.Team {
	return game.Team(id / pow3[i] % 3)
}

// StateCount is the size of the id space for an n×n board, 3^(n²).
func StateCount(size int) game.StateID {
	return pow3[size*size]
}

// Encode packs cells into a StateID, one base-3 digit per cell.
func Encode(cells []game.Team) (game.StateID, error) {
	if len(cells) > MaxBoardSize*MaxBoardSize {
		return 0, fmt.Errorf("%w: %d cells", ErrBoardTooLarge, len(cells))
	}

	var id game.StateID
	for i, c := range cells {
		if c > game.TeamB {
			return 0, fmt.Errorf("%w: %d at cell %d", ErrInvalidMark, c, i)
		}

		id += game.StateID(c) * pow3[i]
	}

	return id, nil
}

// Decode unpacks id into size² cells. Digits beyond the id's width are empty.
func Decode(id game.StateID, size int) []game.Team {
	cells := make([]game.Team, size*size)
	for i := range cells {
		cells[i] = game.Team(id % 3)
		id /= 3
	}

	return cells
}

// MoveCell returns the index of the single cell that is empty in from and
// occupied in to.
func MoveCell(from, to game.StateID, size int) (int, error) {
	cell := -1
	for i := range size * size {
		a, b := Digit(from, i), Digit(to, i)
		if a == b {
			continue
		}

		if a != game.None || cell != -1 {
			return -1, fmt.Errorf("%w: %d -> %d", ErrNotSingleMove, from, to)
		}

		cell = i
	}

	if cell == -1 {
		return -1, fmt.Errorf("%w: %d -> %d", ErrNotSingleMove, from, to)
	}

	return cell, nil
}
