// Package compiler solves a finite two-player game by enumerating every state
// reachable from the empty board, scoring the terminal ones and propagating
// optimal-play values back towards the root. The result is a Table the AI can
// consult without searching.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/samber/lo"

	"github.com/Zarux/tictactable/pkg/game"
)

var (
	ErrDuplicateNode  = errors.New("duplicate node")
	ErrMissingNode    = errors.New("missing node")
	ErrTurnConflict   = errors.New("state reached with conflicting turns")
	ErrNodeLimit      = errors.New("node limit exceeded")
	ErrNonConvergence = errors.New("scoring did not converge")
	ErrUnscoredNode   = errors.New("unscored node")
	ErrStoreNotEmpty  = errors.New("compilation store is not empty")
)

// Root is the empty board. TeamA moves first from it.
const Root game.StateID = 0

type Phase string

const (
	PhaseEnumerate Phase = "enumerate"
	PhaseClassify  Phase = "classify"
	PhaseScore     Phase = "score"
)

// Compilation is the game-specific side of a compile: the rules plus the node
// store the compiler fills. It is owned by a single compiler at a time.
type Compilation interface {
	game.Rules

	Insert(id game.StateID, n *Node) error
	Contains(id game.StateID) bool
	Node(id game.StateID) (*Node, error)
	Len() int
	All() iter.Seq2[game.StateID, *Node]

	Progress() Progress
	IncEnumerated()
	IncTerminals()
	IncScored()

	Reset()
}

type Options struct {
	// MaxNodes aborts enumeration once the store would grow past it. Zero
	// means no limit.
	MaxNodes int

	// OnProgress is called every ProgressEvery steps and once at the end of
	// each phase.
	OnProgress    func(Phase, Progress)
	ProgressEvery int
}

type Stats struct {
	Nodes     int                     `json:"nodes" yaml:"nodes"`
	Progress  Progress                `json:"progress" yaml:"progress"`
	Outcomes  map[string]int          `json:"outcomes" yaml:"outcomes"`
	RootValue int8                    `json:"rootValue" yaml:"root_value"`
	RootDepth uint8                   `json:"rootDepth" yaml:"root_depth"`
	Durations map[Phase]time.Duration `json:"-" yaml:"-"`
}

type item struct {
	id   game.StateID
	team game.Team
}

type Compiler struct {
	compilation Compilation
	opts        Options

	queue    fifo[item]
	winners  fifo[game.StateID]
	unscored fifo[game.StateID]
	pending  map[game.StateID]struct{}

	// stalled counts consecutive deferrals in the scoring phase.
	stalled int

	durations map[Phase]time.Duration
	stats     *Stats
}

func New(c Compilation, opts Options) *Compiler {
	return &Compiler{
		compilation: c,
		opts:        opts,
		pending:     make(map[game.StateID]struct{}),
		durations:   make(map[Phase]time.Duration),
	}
}

// Init seeds the work queue with the root state. The compilation must be
// empty; call Reset on it before compiling again.
func (c *Compiler) Init() error {
	if c.compilation.Len() != 0 {
		return ErrStoreNotEmpty
	}

	c.queue.reset()
	c.winners.reset()
	c.unscored.reset()
	c.pending = make(map[game.StateID]struct{})
	c.durations = make(map[Phase]time.Duration)
	c.stalled = 0
	c.stats = nil

	if err := c.compilation.Insert(Root, &Node{Turn: game.TeamA}); err != nil {
		return err
	}

	c.queue.push(item{id: Root, team: game.TeamA})
	return nil
}

func (c *Compiler) QueueLen() int {
	return c.queue.len()
}

func (c *Compiler) WinnersLen() int {
	return c.winners.len()
}

func (c *Compiler) UnscoredLen() int {
	return c.unscored.len()
}

// Process expands one queued state. Terminal states are set aside for
// PostProcess; every child not yet in the store is inserted and queued with
// the other team to move.
func (c *Compiler) Process() error {
	it, ok := c.queue.pop()
	if !ok {
		return nil
	}

	c.compilation.IncEnumerated()

	node, err := c.compilation.Node(it.id)
	if err != nil {
		return err
	}

	winner := c.compilation.Winner(it.id)

	var children []game.StateID
	if winner == game.None {
		children = c.compilation.ChildStates(it.id, it.team)
	}

	if winner != game.None || len(children) == 0 {
		node.Terminal = true
		node.Outcome = game.OutcomeFor(winner)
		if winner == game.None {
			node.Outcome = game.Draw
		}

		c.winners.push(it.id)
		return nil
	}

	next := it.team.Other()
	for _, child := range children {
		if c.compilation.Contains(child) {
			existing, err := c.compilation.Node(child)
			if err != nil {
				return err
			}

			if existing.Turn != next {
				return fmt.Errorf("%w: %d (%s and %s)", ErrTurnConflict, child, existing.Turn, next)
			}

			continue
		}

		if c.opts.MaxNodes > 0 && c.compilation.Len() >= c.opts.MaxNodes {
			return fmt.Errorf("%w: %d", ErrNodeLimit, c.opts.MaxNodes)
		}

		if err := c.compilation.Insert(child, &Node{Turn: next}); err != nil {
			return err
		}

		c.queue.push(item{id: child, team: next})
	}

	return nil
}

// PostProcess scores one terminal state from the perspective of the team
// that would move next and queues its predecessors.
func (c *Compiler) PostProcess() error {
	id, ok := c.winners.pop()
	if !ok {
		return nil
	}

	node, err := c.compilation.Node(id)
	if err != nil {
		return err
	}

	switch w := node.Outcome.Winner(); {
	case w == game.None:
		node.Value = 0
	case w == node.Turn:
		node.Value = 1
	default:
		node.Value = -1
	}

	node.Depth = 0
	node.Scored = true
	c.compilation.IncTerminals()
	c.compilation.IncScored()

	c.enqueueParents(id, node)
	return nil
}

// ScoreNodes takes one candidate off the scoring queue. Once every child is
// scored the candidate gets the best negated child value; otherwise it goes
// back on the queue.
func (c *Compiler) ScoreNodes() error {
	id, ok := c.unscored.pop()
	if !ok {
		return nil
	}

	delete(c.pending, id)

	node, err := c.compilation.Node(id)
	if err != nil {
		return err
	}

	if node.Scored {
		return nil
	}

	var (
		best      int8
		bestDepth uint8
		found     bool
	)

	for _, child := range c.compilation.ChildStates(id, node.Turn) {
		cn, err := c.compilation.Node(child)
		if err != nil {
			return err
		}

		if !cn.Scored {
			return c.requeue(id)
		}

		v, d := -cn.Value, cn.Depth+1
		if !found || v > best || (v == best && PreferDepth(v, d, bestDepth)) {
			best, bestDepth, found = v, d, true
		}
	}

	if !found {
		return fmt.Errorf("%w: non-terminal state %d has no children", ErrNonConvergence, id)
	}

	node.Value = best
	node.Depth = bestDepth
	node.Scored = true
	c.stalled = 0
	c.compilation.IncScored()

	c.enqueueParents(id, node)
	return nil
}

func (c *Compiler) requeue(id game.StateID) error {
	c.unscored.push(id)
	c.pending[id] = struct{}{}
	c.stalled++

	if c.stalled >= c.unscored.len() {
		return fmt.Errorf("%w: %d candidates waiting on unscored children", ErrNonConvergence, c.unscored.len())
	}

	return nil
}

// PreferDepth reports whether reaching an outcome of value v in d plies beats
// reaching it in current plies: wins as fast as possible, losses and draws as
// late as possible.
func PreferDepth(v int8, d, current uint8) bool {
	if v > 0 {
		return d < current
	}

	return d > current
}

func (c *Compiler) enqueueParents(id game.StateID, node *Node) {
	mover := node.Turn.Other()

	parents := lo.Filter(c.compilation.ParentStates(id, mover), func(p game.StateID, _ int) bool {
		if _, ok := c.pending[p]; ok {
			return false
		}

		pn, err := c.compilation.Node(p)
		if err != nil {
			return false
		}

		return !pn.Terminal && !pn.Scored && pn.Turn == mover
	})

	for _, p := range parents {
		c.unscored.push(p)
		c.pending[p] = struct{}{}
	}
}

// Compile runs the three phases to exhaustion and exports the table.
func (c *Compiler) Compile(ctx context.Context) (*Table, error) {
	t, err := c.compile(ctx)
	if err != nil {
		compileFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	return t, nil
}

func (c *Compiler) compile(ctx context.Context) (*Table, error) {
	if err := c.Init(); err != nil {
		return nil, err
	}

	phases := []struct {
		phase   Phase
		pending func() int
		step    func() error
	}{
		{PhaseEnumerate, c.QueueLen, c.Process},
		{PhaseClassify, c.WinnersLen, c.PostProcess},
		{PhaseScore, c.UnscoredLen, c.ScoreNodes},
	}

	for _, p := range phases {
		if err := c.drain(ctx, p.phase, p.pending, p.step); err != nil {
			return nil, err
		}
	}

	if p := c.compilation.Progress(); p.Scored != c.compilation.Len() {
		return nil, fmt.Errorf("%w: %d of %d nodes scored", ErrNonConvergence, p.Scored, c.compilation.Len())
	}

	return c.Export()
}

const cancelCheckEvery = 4096

func (c *Compiler) drain(ctx context.Context, phase Phase, pending func() int, step func() error) error {
	start := time.Now()

	steps := 0
	for pending() > 0 {
		if steps%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s: %w", phase, err)
			}
		}

		if err := step(); err != nil {
			return fmt.Errorf("%s: %w", phase, err)
		}

		steps++
		if c.opts.OnProgress != nil && c.opts.ProgressEvery > 0 && steps%c.opts.ProgressEvery == 0 {
			c.opts.OnProgress(phase, c.compilation.Progress())
		}
	}

	elapsed := time.Since(start)
	c.durations[phase] = elapsed
	phaseNodes.WithLabelValues(string(phase)).Add(float64(steps))
	phaseDuration.WithLabelValues(string(phase)).Observe(elapsed.Seconds())

	if c.opts.OnProgress != nil {
		c.opts.OnProgress(phase, c.compilation.Progress())
	}

	return nil
}

// Export flattens the store into a Table. Every node must be scored.
func (c *Compiler) Export() (*Table, error) {
	root, err := c.compilation.Node(Root)
	if err != nil {
		return nil, err
	}

	entries := make(map[game.StateID]Entry, c.compilation.Len())
	outcomes := make(map[string]int)
	for id, n := range c.compilation.All() {
		if !n.Scored {
			return nil, fmt.Errorf("%w: %d", ErrUnscoredNode, id)
		}

		entries[id] = Entry{Value: n.Value, Depth: n.Depth}
		if n.Terminal {
			outcomes[n.Outcome.String()]++
		}
	}

	durations := make(map[Phase]time.Duration, len(c.durations))
	for p, d := range c.durations {
		durations[p] = d
	}

	c.stats = &Stats{
		Nodes:     len(entries),
		Progress:  c.compilation.Progress(),
		Outcomes:  outcomes,
		RootValue: root.Value,
		RootDepth: root.Depth,
		Durations: durations,
	}

	exportedNodes.Set(float64(len(entries)))

	return &Table{entries: entries}, nil
}

// Stats describes the last successful export, or nil.
func (c *Compiler) Stats() *Stats {
	return c.stats
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateNode):
		return "duplicate_node"
	case errors.Is(err, ErrMissingNode):
		return "missing_node"
	case errors.Is(err, ErrTurnConflict):
		return "turn_conflict"
	case errors.Is(err, ErrNodeLimit):
		return "node_limit"
	case errors.Is(err, ErrNonConvergence), errors.Is(err, ErrUnscoredNode):
		return "non_convergence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}

	return "other"
}
