// Package ui is the terminal front end: an essay panel and a poem panel, each
// with its own topic input, spinner and result area.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matiasleandrokruk/inkwell/internal/client"
)

// WarnEmptyTopic is shown instead of calling the gateway with a blank topic.
const WarnEmptyTopic = "Please enter a topic."

// Backend generates text for a topic. *client.Client satisfies it.
type Backend interface {
	Generate(ctx context.Context, route client.Route, topic string) client.Result
}

type panelState int

const (
	stateIdle panelState = iota
	stateLoading
	stateSuccess
	stateError
)

const (
	essayPanel = iota
	poemPanel
	panelCount
)

type panel struct {
	title       string
	description string
	doneLabel   string
	route       client.Route

	input   textinput.Model
	spinner spinner.Model

	state   panelState
	warning string
	result  string
}

func newPanel(title, description, doneLabel, placeholder string, route client.Route) panel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Width = 36

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return panel{
		title:       title,
		description: description,
		doneLabel:   doneLabel,
		route:       route,
		input:       ti,
		spinner:     sp,
	}
}

// generatedMsg carries the outcome of one panel's call.
type generatedMsg struct {
	panel  int
	result client.Result
}

// Model is the bubbletea model for the whole screen.
type Model struct {
	backend Backend
	panels  [panelCount]panel
	focus   int
	width   int
	height  int
}

// New creates the UI with focus on the essay panel.
func New(backend Backend) Model {
	m := Model{
		backend: backend,
		panels: [panelCount]panel{
			newPanel("Essay Generator", "Enter a topic to generate an essay using Groq API.", "Essay Generated!", "e.g., Climate Change", client.RouteEssay),
			newPanel("Poem Generator", "Enter a topic to generate a poem using Ollama API.", "Poem Generated!", "e.g., Nature", client.RoutePoem),
		},
	}
	m.panels[essayPanel].input.Focus()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "shift+tab":
			return m, m.cycleFocus()

		case "ctrl+l":
			m.clearAll()
			return m, nil

		case "enter":
			return m, m.submit(m.focus)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case generatedMsg:
		p := &m.panels[msg.panel]
		p.result = msg.result.Text
		if msg.result.Failed {
			p.state = stateError
		} else {
			p.state = stateSuccess
		}
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		for i := range m.panels {
			if m.panels[i].state != stateLoading {
				continue
			}
			var cmd tea.Cmd
			m.panels[i].spinner, cmd = m.panels[i].spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.panels[m.focus].input, cmd = m.panels[m.focus].input.Update(msg)
	return m, cmd
}

func (m *Model) cycleFocus() tea.Cmd {
	m.panels[m.focus].input.Blur()
	m.focus = (m.focus + 1) % panelCount
	return m.panels[m.focus].input.Focus()
}

// submit starts a call for panel i. A blank topic only sets the warning, and
// a panel that is already loading ignores the submit.
func (m *Model) submit(i int) tea.Cmd {
	p := &m.panels[i]
	if p.state == stateLoading {
		return nil
	}

	topic := p.input.Value()
	if strings.TrimSpace(topic) == "" {
		p.warning = WarnEmptyTopic
		p.state = stateIdle
		p.result = ""
		return nil
	}

	p.warning = ""
	p.result = ""
	p.state = stateLoading
	return tea.Batch(p.spinner.Tick, generate(m.backend, i, p.route, topic))
}

// clearAll empties both topic inputs. Results of calls still in flight are
// kept so their panels can finish.
func (m *Model) clearAll() {
	for i := range m.panels {
		p := &m.panels[i]
		p.input.Reset()
		p.warning = ""
		if p.state != stateLoading {
			p.state = stateIdle
			p.result = ""
		}
	}
}

func generate(backend Backend, panel int, route client.Route, topic string) tea.Cmd {
	return func() tea.Msg {
		return generatedMsg{panel: panel, result: backend.Generate(context.Background(), route, topic)}
	}
}
