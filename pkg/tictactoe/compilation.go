package tictactoe

import (
	"github.com/Zarux/tictactable/pkg/compiler"
)

// Compilation binds tic-tac-toe rules to a compiler node store. It satisfies
// compiler.Compilation.
type Compilation struct {
	*compiler.Store
	*Rules
}

var _ compiler.Compilation = (*Compilation)(nil)

func NewCompilation(size int) (*Compilation, error) {
	rules, err := NewRules(size)
	if err != nil {
		return nil, err
	}

	return &Compilation{
		Store: compiler.NewStore(),
		Rules: rules,
	}, nil
}

// SetBoardSize swaps the rules and clears the store.
func (c *Compilation) SetBoardSize(size int) error {
	rules, err := NewRules(size)
	if err != nil {
		return err
	}

	c.Store.Reset()
	c.Rules = rules
	return nil
}

// Reset drops every node and counter and goes back to the default board.
func (c *Compilation) Reset() {
	c.Store.Reset()
	c.Rules, _ = NewRules(DefaultBoardSize)
}
