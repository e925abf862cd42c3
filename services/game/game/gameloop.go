package game

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/tictactable/pkg/ai"
	"github.com/Zarux/tictactable/pkg/compiler"
	"github.com/Zarux/tictactable/pkg/game"
	"github.com/Zarux/tictactable/pkg/tictactoe"
)

type botPlayer interface {
	GetMove(id game.StateID, team game.Team) (game.StateID, error)
	Value(id game.StateID) (compiler.Entry, bool)
	Stats() *ai.LastMoveStats
}

type model struct {
	board       *tictactoe.Board
	cursor      int
	currentTeam game.Team
	botTeam     game.Team
	bot         botPlayer
	spinner     spinner.Model
	header      string

	gameOver bool
	winner   game.Team
	err      error

	Replay  bool
	Restart bool
}

var (
	p1Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007e50ff", Dark: "#6afd76ff"}).Render
	p2Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0003adff", Dark: "#5f61fcff"}).Render
	cursorStyle          = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#960000ff", Dark: "#fc7e7eff"}).Render
	winningRowStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#bb0000ff", Dark: "#df1010ff"}).Render
	lastWinningRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f80000ff", Dark: "#f18787ff"}).Render
	bracketStyle         = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render
	lastMoveBracketStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000ff", Dark: "#ffffffff"}).Render
	statStyle1           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8a880fff", Dark: "#ddda1dff"}).Render
	statStyle2           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#138a0fff", Dark: "#1ddd37ff"}).Render
)

var thinkingColors = []func(strs ...string) string{
	bracketStyle,
	lastMoveBracketStyle,
}

// InitialModel sets up one game. A nil bot, or botTeam None, means two
// human players share the keyboard.
func InitialModel(header string, b *tictactoe.Board, bot botPlayer, botTeam game.Team) *model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if bot == nil {
		botTeam = game.None
	}

	m := &model{
		board:       b,
		currentTeam: b.NextTeam(),
		botTeam:     botTeam,
		bot:         bot,
		spinner:     s,
		header:      header,
	}
	m.cursor = m.firstEmpty()

	return m
}

func (m *model) Init() tea.Cmd {
	if m.botTurn() {
		return tea.Batch(m.beginTick(), m.botMove())
	}

	return nil
}

func (m *model) botTurn() bool {
	return m.botTeam != game.None && m.currentTeam == m.botTeam && !m.gameOver
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case botDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.gameOver = true
			return m, nil
		}

		return m, m.place(msg.cell)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "r":
			m.Restart = true
			return m, tea.Quit

		case "right", "l":
			m.cursor, _ = m.moveRight()
		case "left", "h":
			m.cursor, _ = m.moveLeft()
		case "up", "k":
			m.cursor = m.moveVertical(-m.board.N)
		case "down", "j":
			m.cursor = m.moveVertical(m.board.N)

		case "enter", " ":
			if m.gameOver {
				m.Replay = true
				return m, tea.Quit
			}

			if m.botTurn() || m.cursor < 0 {
				return m, nil
			}

			return m, m.place(m.cursor)
		}

	default:
		if m.gameOver {
			m.cursor = -1
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// place puts the current team's mark on cell and hands the turn over.
func (m *model) place(cell int) tea.Cmd {
	if err := m.board.ApplyMove(cell, m.currentTeam); err != nil {
		m.err = err
		return nil
	}

	if winner := m.board.CheckWinner(); winner != game.None || !m.board.AnyLegalMoves() {
		m.gameOver = true
		m.winner = winner
		m.cursor = -1
		return nil
	}

	m.currentTeam = m.currentTeam.Other()
	if m.cursor < 0 || m.board.Cells[m.cursor] != game.None {
		m.cursor = m.firstEmpty()
	}

	if m.botTurn() {
		return tea.Batch(m.beginTick(), m.botMove())
	}

	return nil
}

type botDoneMsg struct {
	cell int
	err  error
}

func (m *model) beginTick() tea.Cmd {
	return func() tea.Msg {
		return m.spinner.Tick()
	}
}

// botMove looks up the reply for the current state. The board is only read
// here; the move is applied back in Update.
func (m *model) botMove() tea.Cmd {
	from := m.board.StateID()
	team := m.botTeam
	n := m.board.N

	return func() tea.Msg {
		next, err := m.bot.GetMove(from, team)
		if err != nil {
			return botDoneMsg{err: err}
		}

		cell, err := tictactoe.MoveCell(from, next, n)
		return botDoneMsg{cell: cell, err: err}
	}
}

func (m *model) firstEmpty() int {
	return slices.Index(m.board.Cells, game.None)
}

func (m *model) moveRight() (int, bool) {
	for c := m.cursor + 1; c < len(m.board.Cells); c++ {
		if m.board.Cells[c] == game.None {
			return c, true
		}
	}

	return m.cursor, false
}

func (m *model) moveLeft() (int, bool) {
	for c := m.cursor - 1; c >= 0; c-- {
		if m.board.Cells[c] == game.None {
			return c, true
		}
	}

	return m.cursor, false
}

// moveVertical steps the cursor by whole rows until it finds an empty cell.
func (m *model) moveVertical(step int) int {
	if m.cursor < 0 {
		return m.cursor
	}

	for c := m.cursor + step; c >= 0 && c < len(m.board.Cells); c += step {
		if m.board.Cells[c] == game.None {
			return c
		}
	}

	return m.cursor
}

func teamStyle(t game.Team) string {
	switch t {
	case game.TeamA:
		return p1Style(t.Mark())
	case game.TeamB:
		return p2Style(t.Mark())
	}

	return t.Mark()
}

func (m *model) View() string {
	if m.Replay || m.Restart {
		return ""
	}

	var highlights []int
	if m.gameOver && m.winner != game.None {
		highlights = m.board.WinningLine()
	}

	s := m.header
	s += fmt.Sprintf("State: %s  Turn: %s\n\n",
		statStyle1(fmt.Sprint(m.board.StateID())),
		statStyle2(fmt.Sprint(m.board.Turn+1)),
	)

	botTurn := m.botTurn()

	s += "Current player: " + teamStyle(m.currentTeam)
	if botTurn {
		s += " (computer) " + m.spinner.View()
	}

	s += "\n"

	for i, p := range m.board.Cells {
		mark := p.Mark()
		if m.cursor == i {
			mark = cursorStyle("*")
		}

		if botTurn && p == game.None {
			mark = []string{"o", "x", " ", " "}[rand.N(4)]
			mark = thinkingColors[rand.IntN(len(thinkingColors))](mark)
		}

		if p != game.None {
			mark = teamStyle(p)
		}

		bStyle := bracketStyle
		winningRow := slices.Contains(highlights, i)

		if winningRow {
			bStyle = winningRowStyle
		}

		if m.board.Turn > 0 && m.board.LastMove == i && p != game.None {
			bStyle = lastMoveBracketStyle
			if winningRow {
				bStyle = lastWinningRowStyle
			}
		}

		s += fmt.Sprintf("%s%s%s", bStyle("["), mark, bStyle("]"))
		if (i+1)%m.board.N == 0 {
			s += "\n"
		}
	}

	if m.bot != nil && m.botTeam != game.None {
		if stats := m.bot.Stats(); stats != nil && !botTurn {
			mv, err := tictactoe.MoveCell(stats.From, stats.BestMove, m.board.N)
			if err == nil {
				at := m.board.GetMove(mv)
				s += fmt.Sprintf("\nComputer played %s out of %s moves: %s\n",
					statStyle1(fmt.Sprintf("(%d, %d)", at.X+1, at.Y+1)),
					statStyle2(fmt.Sprint(stats.Candidates)),
					statStyle1(outlook(stats.Value, stats.Depth)),
				)
			}
		}
	}

	if m.bot != nil && !m.gameOver {
		if e, ok := m.bot.Value(m.board.StateID()); ok {
			s += fmt.Sprintf("Perfect play: %s %s\n", teamStyle(m.currentTeam), outlook(e.Value, e.Depth))
		}
	}

	if m.err != nil {
		s += "\n" + cursorStyle("error: "+m.err.Error()) + "\n"
	}

	if m.gameOver {
		s += "\n" + gameOverText

		s += "\nTHE WINNER IS: "
		if m.winner == game.None {
			s += cursorStyle("NO ONE")
		} else {
			s += teamStyle(m.winner)
		}

		s += "\n\nenter: play again  r: new settings  q: quit\n"
		return s
	}

	return s
}

func outlook(value int8, depth uint8) string {
	switch {
	case value > 0:
		return fmt.Sprintf("wins in %d", depth)
	case value < 0:
		return fmt.Sprintf("loses in %d", depth)
	}

	return "draw"
}

const gameOverText = `ＧＡＭＥ ＯＶＥＲ`
