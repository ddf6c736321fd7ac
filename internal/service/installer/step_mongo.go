package installer

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// MongoURLStep collects the durable-store connection string
type MongoURLStep struct {
	input textinput.Model
}

func NewMongoURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 60
	ti.Placeholder = "mongodb://localhost:27017"

	return &MongoURLStep{
		input: ti,
	}
}

func (s *MongoURLStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *MongoURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			value := s.input.Value()
			if value == "" {
				value = "mongodb://localhost:27017"
			}
			state.EnvVars["MONGO_URL"] = value
			return nil, nil
		}
	}
	return s, cmd
}

func (s *MongoURLStep) View(state *InstallState) string {
	return "Enter your MongoDB connection URL:\n\n" +
		s.input.View() + "\n\n" +
		"(press enter to confirm, empty for default)\n"
}

// MongoDBNameStep collects the database name
type MongoDBNameStep struct {
	input textinput.Model
}

func NewMongoDBNameStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40
	ti.Placeholder = "elva"

	return &MongoDBNameStep{
		input: ti,
	}
}

func (s *MongoDBNameStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *MongoDBNameStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			value := s.input.Value()
			if value == "" {
				value = "elva"
			}
			state.EnvVars["DB_NAME"] = value
			return nil, nil
		}
	}
	return s, cmd
}

func (s *MongoDBNameStep) View(state *InstallState) string {
	return "Enter the database name:\n\n" +
		s.input.View() + "\n\n" +
		"(press enter to confirm, empty for default)\n"
}
