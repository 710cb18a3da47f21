package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6933ff"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8a8f98"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00fced"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d6dbe7"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2ecc71"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1c40f"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ec3f96"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3c3f58")).
			Padding(0, 1).
			Width(44)

	focusedPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("#6933ff"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("LangChain Demo with Groq and Ollama APIs"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Generate essays and poems using AI models via the inkwell gateway."))
	b.WriteString("\n\n")

	views := make([]string, 0, panelCount)
	for i := range m.panels {
		style := panelStyle
		if i == m.focus {
			style = focusedPanelStyle
		}
		views = append(views, style.Render(m.panels[i].view()))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, views...))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("tab: switch panel • enter: generate • ctrl+l: clear all • esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func (p panel) view() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(p.title))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(p.description))
	b.WriteString("\n\n")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	switch {
	case p.warning != "":
		b.WriteString(warningStyle.Render(p.warning))
	case p.state == stateLoading:
		b.WriteString(p.spinner.View() + " Generating " + strings.ToLower(strings.TrimSuffix(p.title, " Generator")) + "...")
	case p.state == stateSuccess:
		b.WriteString(successStyle.Render(p.doneLabel))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(40).Render(p.result))
	case p.state == stateError:
		b.WriteString(errorStyle.Width(40).Render(p.result))
	}
	return b.String()
}
