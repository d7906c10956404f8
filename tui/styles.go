package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skeletonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	labelStyle    = lipgloss.NewStyle().Bold(true)

	modalStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
)

type tableKeys struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Retry    key.Binding
	Refresh  key.Binding
	Add      key.Binding
	Quit     key.Binding
}

var tableKeyMap = tableKeys{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f", " "), key.WithHelp("pgdn", "page down")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Refresh:  key.NewBinding(key.WithKeys("R", "ctrl+r"), key.WithHelp("R", "reload")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add record")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type formKeys struct {
	Next         key.Binding
	Prev         key.Binding
	Submit       key.Binding
	Cancel       key.Binding
	AddCustom    key.Binding
	RemoveCustom key.Binding
}

var formKeyMap = formKeys{
	Next:         key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
	Prev:         key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
	Submit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	AddCustom:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "custom field")),
	RemoveCustom: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "drop custom field")),
}

func helpLine(bindings ...key.Binding) string {

	line := ""
	for i, b := range bindings {
		if i > 0 {
			line += "  "
		}
		h := b.Help()
		line += h.Key + " " + h.Desc
	}

	return " " + line
}
