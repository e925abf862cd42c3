// Package ai plays moves straight out of a compiled table.
package ai

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Zarux/tictactable/pkg/compiler"
	"github.com/Zarux/tictactable/pkg/game"
)

var (
	ErrNoLegalMove   = errors.New("no legal move")
	ErrNotLoaded     = errors.New("no table loaded")
	ErrAlreadyLoaded = errors.New("table already loaded")
	ErrUnknownState  = errors.New("state not in table")
	ErrInvalidTeam   = errors.New("invalid team")
)

// moveLookups counts GetMove calls.
// Labels: "ok", "no_legal_move", "unknown_state", "error"
var moveLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tictactable_ai_moves_total",
	Help: "AI move lookups by result",
}, []string{"result"})

type LastMoveStats struct {
	From       game.StateID
	BestMove   game.StateID
	Team       game.Team
	Candidates int
	Value      int8
	Depth      uint8
}

// Engine answers best-move queries from a compiled table. After Load it only
// reads the table and is safe for concurrent use.
type Engine struct {
	rules game.Rules
	table *compiler.Table

	mu            sync.Mutex
	lastMoveStats *LastMoveStats
}

func New(rules game.Rules) *Engine {
	return &Engine{
		rules: rules,
	}
}

func (e *Engine) Load(t *compiler.Table) error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrNotLoaded)
	}

	if e.table != nil {
		return ErrAlreadyLoaded
	}

	e.table = t
	return nil
}

func (e *Engine) Loaded() bool {
	return e.table != nil
}

// Value returns the compiled entry for id.
func (e *Engine) Value(id game.StateID) (compiler.Entry, bool) {
	if e.table == nil {
		return compiler.Entry{}, false
	}

	return e.table.Lookup(id)
}

func (e *Engine) Stats() *LastMoveStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastMoveStats
}

// GetMove returns the child of id that is best for team. Among equal values
// it prefers the faster win or the slower loss, then the lowest StateID.
func (e *Engine) GetMove(id game.StateID, team game.Team) (game.StateID, error) {
	move, err := e.getMove(id, team)
	switch {
	case err == nil:
		moveLookups.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrNoLegalMove):
		moveLookups.WithLabelValues("no_legal_move").Inc()
	case errors.Is(err, ErrUnknownState):
		moveLookups.WithLabelValues("unknown_state").Inc()
	default:
		moveLookups.WithLabelValues("error").Inc()
	}

	return move, err
}

func (e *Engine) getMove(id game.StateID, team game.Team) (game.StateID, error) {
	if e.table == nil {
		return 0, ErrNotLoaded
	}

	if !team.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTeam, team)
	}

	if w := e.rules.Winner(id); w != game.None {
		return 0, fmt.Errorf("%w: %d already won by %s", ErrNoLegalMove, id, w)
	}

	candidates := e.rules.ChildStates(id, team)
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: %d", ErrNoLegalMove, id)
	}

	var (
		best      game.StateID
		bestValue int8
		bestDepth uint8
	)

	for i, child := range candidates {
		entry, ok := e.table.Lookup(child)
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrUnknownState, child)
		}

		// The child's value belongs to the opponent.
		v, d := -entry.Value, entry.Depth+1
		if i == 0 || better(v, d, child, bestValue, bestDepth, best) {
			best, bestValue, bestDepth = child, v, d
		}
	}

	e.mu.Lock()
	e.lastMoveStats = &LastMoveStats{
		From:       id,
		BestMove:   best,
		Team:       team,
		Candidates: len(candidates),
		Value:      bestValue,
		Depth:      bestDepth,
	}
	e.mu.Unlock()

	return best, nil
}

func better(v int8, d uint8, id game.StateID, bestV int8, bestD uint8, bestID game.StateID) bool {
	if v != bestV {
		return v > bestV
	}

	if d != bestD {
		return compiler.PreferDepth(v, d, bestD)
	}

	return id < bestID
}
