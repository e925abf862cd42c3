// Package solver runs the compile pipeline for a board size and hands out
// loaded AI engines.
package solver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Zarux/tictactable/internal/logger"
	"github.com/Zarux/tictactable/pkg/ai"
	"github.com/Zarux/tictactable/pkg/compiler"
	"github.com/Zarux/tictactable/pkg/tictactoe"
)

type Options struct {
	MaxNodes int
}

// Solved is one compiled board size.
type Solved struct {
	Rules  *tictactoe.Rules
	Table  *compiler.Table
	Engine *ai.Engine
	Stats  *compiler.Stats
}

type Service struct {
	opts Options

	mu     sync.Mutex
	solved map[int]*Solved
}

func New(opts Options) *Service {
	return &Service{
		opts:   opts,
		solved: make(map[int]*Solved),
	}
}

// Solve compiles size once and caches the result. Concurrent callers for the
// same size wait for the first compile.
func (s *Service) Solve(ctx context.Context, size int) (*Solved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sv, ok := s.solved[size]; ok {
		return sv, nil
	}

	sv, err := Compile(ctx, size, s.opts)
	if err != nil {
		return nil, err
	}

	s.solved[size] = sv
	return sv, nil
}

// Compile runs the uncached pipeline: rules, compiler, table, engine.
func Compile(ctx context.Context, size int, opts Options) (*Solved, error) {
	log := logger.FromContext(ctx).With("size", size)

	c, err := tictactoe.NewCompilation(size)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	comp := compiler.New(c, compiler.Options{
		MaxNodes:      opts.MaxNodes,
		ProgressEvery: 100_000,
		OnProgress: func(p compiler.Phase, pr compiler.Progress) {
			log.Debug("compiling", "phase", p, "enumerated", pr.Enumerated, "terminals", pr.Terminals, "scored", pr.Scored)
		},
	})

	log.Info("compiling game tree")
	table, err := comp.Compile(ctx)
	if err != nil {
		log.Error("compile failed", "error", err)
		return nil, fmt.Errorf("compile %dx%d: %w", size, size, err)
	}

	stats := comp.Stats()
	log.Info("compiled game tree",
		"nodes", stats.Nodes,
		"terminals", stats.Progress.Terminals,
		"root_value", stats.RootValue,
		"root_depth", stats.RootDepth,
		"took", time.Since(start),
	)

	engine := ai.New(c.Rules)
	if err := engine.Load(table); err != nil {
		return nil, err
	}

	return &Solved{
		Rules:  c.Rules,
		Table:  table,
		Engine: engine,
		Stats:  stats,
	}, nil
}
