// Package game holds the vocabulary shared by the state compiler, the AI and
// the concrete rule sets: state identifiers, teams, outcomes and the Rules
// contract a game has to satisfy to be compiled.
package game

import "fmt"

// StateID identifies one board configuration.
type StateID uint64

type Team uint8

const (
	None  Team = 0
	TeamA Team = 1
	TeamB Team = 2
)

// Other returns the opposing team. None has no opponent.
func (t Team) Other() Team {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	}

	return None
}

func (t Team) Valid() bool {
	return t == TeamA || t == TeamB
}

func (t Team) Mark() string {
	switch t {
	case TeamA:
		return "X"
	case TeamB:
		return "O"
	}

	return " "
}

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	case None:
		return "none"
	}

	return fmt.Sprintf("Team(%d)", uint8(t))
}

type Outcome uint8

const (
	Undecided Outcome = iota
	WinA
	WinB
	Draw
)

// OutcomeFor maps a winning team to its outcome.
func OutcomeFor(winner Team) Outcome {
	switch winner {
	case TeamA:
		return WinA
	case TeamB:
		return WinB
	}

	return Undecided
}

// Winner returns the winning team, or None for draws and undecided games.
func (o Outcome) Winner() Team {
	switch o {
	case WinA:
		return TeamA
	case WinB:
		return TeamB
	}

	return None
}

func (o Outcome) String() string {
	switch o {
	case WinA:
		return "win-a"
	case WinB:
		return "win-b"
	case Draw:
		return "draw"
	}

	return "undecided"
}

// Rules is what a game supplies to the compiler and the AI.
//
// ChildStates must only fill empty cells and must return nothing for a full
// board. ParentStates is its inverse: every state from which team placing a
// single mark produces id.
type Rules interface {
	Winner(id StateID) Team
	ChildStates(id StateID, team Team) []StateID
	ParentStates(id StateID, team Team) []StateID
}
