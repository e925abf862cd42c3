package compiler

import (
	"fmt"
	"iter"
	"maps"

	"github.com/Zarux/tictactable/pkg/game"
)

// Node is the compiled record of one state. Successors are not stored; they
// are regenerated from the rules when needed.
type Node struct {
	Turn     game.Team
	Outcome  game.Outcome
	Terminal bool
	Scored   bool
	Value    int8
	Depth    uint8
}

type Progress struct {
	Enumerated int `json:"enumerated" yaml:"enumerated"`
	Terminals  int `json:"terminals" yaml:"terminals"`
	Scored     int `json:"scored" yaml:"scored"`
}

// Store maps state ids to nodes. Keys are unique and nodes are never removed
// before Reset.
type Store struct {
	nodes    map[game.StateID]*Node
	progress Progress
}

func NewStore() *Store {
	return &Store{
		nodes: make(map[game.StateID]*Node),
	}
}

func (s *Store) Insert(id game.StateID, n *Node) error {
	if s.nodes == nil {
		s.nodes = make(map[game.StateID]*Node)
	}

	if _, ok := s.nodes[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
	}

	s.nodes[id] = n
	return nil
}

func (s *Store) Contains(id game.StateID) bool {
	_, ok := s.nodes[id]
	return ok
}

// Node returns the stored node for id. The node is mutated in place by the
// compiler.
func (s *Store) Node(id game.StateID) (*Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMissingNode, id)
	}

	return n, nil
}

func (s *Store) Len() int {
	return len(s.nodes)
}

func (s *Store) All() iter.Seq2[game.StateID, *Node] {
	return maps.All(s.nodes)
}

func (s *Store) Progress() Progress {
	return s.progress
}

func (s *Store) IncEnumerated() {
	s.progress.Enumerated++
}

func (s *Store) IncTerminals() {
	s.progress.Terminals++
}

func (s *Store) IncScored() {
	s.progress.Scored++
}

func (s *Store) Reset() {
	s.nodes = make(map[game.StateID]*Node)
	s.progress = Progress{}
}
