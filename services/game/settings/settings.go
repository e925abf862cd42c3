package settings

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/tictactable/pkg/game"
)

var (
	listSelectorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).Render
)

var sizeChoiceRange = []int{2, 3}

type Settings struct {
	TwoPlayer bool
	AITeam    game.Team
	Size      int
}

type choiceLevel int

const (
	choiceLevelMode choiceLevel = iota
	choiceLevelTeam
	choiceLevelSize
	choiceLevelDone
)

type model struct {
	cursor      int
	choiceLevel choiceLevel
	header      string

	settings Settings

	clear bool
	// Quit is set when the player left instead of finishing the choices.
	Quit bool
}

func (m *model) GetSettings() Settings {
	return m.settings
}

func InitialModel(header string, defaults Settings) *model {
	return &model{
		header:   header,
		settings: defaults,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) choices() []string {
	switch m.choiceLevel {
	case choiceLevelMode:
		return []string{"Against the computer", "Two players"}
	case choiceLevelTeam:
		return []string{"Computer plays X (first)", "Computer plays O"}
	case choiceLevelSize:
		var sizes []string
		for i := sizeChoiceRange[0]; i <= sizeChoiceRange[1]; i++ {
			sizes = append(sizes, fmt.Sprintf("%dx%d", i, i))
		}
		return sizes
	}

	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	choices := m.choices()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.clear = true
			m.Quit = true
			return m, tea.Quit

		case "enter":
			switch m.choiceLevel {
			case choiceLevelMode:
				m.settings.TwoPlayer = m.cursor == 1
			case choiceLevelTeam:
				m.settings.AITeam = game.TeamA
				if m.cursor == 1 {
					m.settings.AITeam = game.TeamB
				}
			case choiceLevelSize:
				m.settings.Size = sizeChoiceRange[0] + m.cursor
			}

			m.choiceLevel++
			if m.choiceLevel == choiceLevelTeam && m.settings.TwoPlayer {
				m.choiceLevel++
			}

			if m.choiceLevel == choiceLevelDone {
				m.clear = true
				return m, tea.Quit
			}

			m.cursor = 0
			if m.choiceLevel == choiceLevelSize {
				m.cursor = max(0, m.settings.Size-sizeChoiceRange[0])
				m.cursor = min(m.cursor, len(m.choices())-1)
			}

			return m, nil

		case "down", "j":
			m.cursor++
			if m.cursor >= len(choices) {
				m.cursor = 0
			}

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(choices) - 1
			}
		}
	}

	return m, nil
}

func (m *model) View() string {
	if m.clear {
		return ""
	}

	s := strings.Builder{}
	s.WriteString(m.header)

	switch m.choiceLevel {
	case choiceLevelMode:
		s.WriteString("Choose mode:\n")
	case choiceLevelTeam:
		s.WriteString("Choose the computer's mark:\n")
	case choiceLevelSize:
		s.WriteString("Choose board size:\n")
	}

	for i, c := range m.choices() {
		if m.cursor == i {
			s.WriteString(listSelectorStyle("(•) "))
		} else {
			s.WriteString(listSelectorStyle("( ) "))
		}

		s.WriteString(c)
		s.WriteString("\n")
	}

	return s.String()
}
