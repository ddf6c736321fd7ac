package installer

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// RedisURLStep collects the cache-tier connection string. The cache is
// optional infrastructure; a wrong value degrades reads, it does not break
// anything.
type RedisURLStep struct {
	input textinput.Model
}

func NewRedisURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 60
	ti.Placeholder = "redis://localhost:6379"

	return &RedisURLStep{
		input: ti,
	}
}

func (s *RedisURLStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *RedisURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			value := s.input.Value()
			if value == "" {
				value = "redis://localhost:6379"
			}
			state.EnvVars["REDIS_URL"] = value
			return nil, nil
		}
	}
	return s, cmd
}

func (s *RedisURLStep) View(state *InstallState) string {
	return "Enter your Redis URL (cache tier):\n\n" +
		s.input.View() + "\n\n" +
		"(press enter to confirm, empty for default)\n"
}
