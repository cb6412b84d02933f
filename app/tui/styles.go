package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorError     = lipgloss.Color("196")
	colorDim       = lipgloss.Color("241")

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("24")).
			Foreground(lipgloss.Color("255"))

	keywordStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	typeStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	literalStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	commentStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	holeStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Underline(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	matchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	choiceStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	statusErrorStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("52")).
				Foreground(lipgloss.Color("255")).
				Padding(0, 1)

	promptBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Padding(0, 1)
)
