package compiler

import (
	"slices"

	"github.com/samber/lo"

	"github.com/Zarux/tictactable/pkg/game"
)

// Entry is the play-time view of a node. Value is +1, 0 or -1 from the
// perspective of the team to move; Depth counts plies to the end of the game
// under optimal play.
type Entry struct {
	Value int8
	Depth uint8
}

// Table is the immutable result of a compilation.
type Table struct {
	entries map[game.StateID]Entry
}

func (t *Table) Lookup(id game.StateID) (Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

func (t *Table) Len() int {
	return len(t.entries)
}

// IDs returns every compiled state id in ascending order.
func (t *Table) IDs() []game.StateID {
	ids := lo.Keys(t.entries)
	slices.Sort(ids)
	return ids
}
