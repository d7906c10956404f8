// Package tui is the terminal host of the record grid: a virtualized table
// that pulls pages while scrolling and a modal add-record form.
package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dot5enko/simple-record-grid/manager"
)

// title + header + separator + status + help
const chromeLines = 5

type pageLoadedMsg struct {
	ticket manager.Ticket
	err    error
}

type Model struct {
	ctx context.Context
	mgr *manager.Manager

	title string

	width  int
	height int

	// first visible row and the selected one
	top    int
	cursor int

	spinner spinner.Model

	form   *addForm
	status string
}

func New(ctx context.Context, mgr *manager.Manager, title string) Model {

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	return Model{
		ctx:     ctx,
		mgr:     mgr,
		title:   title,
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.pull())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.follow()
		return m, m.pull()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pageLoadedMsg:
		if msg.err != nil {
			m.status = "page " + fmt.Sprint(msg.ticket.Page) + " failed: " + msg.err.Error()
			return m, nil
		}
		m.status = ""
		// the window may still reach past the rows we have
		return m, m.pull()

	case validateMsg:
		if m.form != nil && m.form.seq.Current(msg.seq) {
			m.form.validate()
		}
		return m, nil

	case recordAddedMsg:
		return m.recordAdded(msg)

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		return m.updateTable(msg)
	}

	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {

	page := m.visibleRows()

	switch {
	case key.Matches(msg, tableKeyMap.Quit):
		return m, tea.Quit
	case key.Matches(msg, tableKeyMap.Up):
		m.cursor--
	case key.Matches(msg, tableKeyMap.Down):
		m.cursor++
	case key.Matches(msg, tableKeyMap.PageUp):
		m.cursor -= page
	case key.Matches(msg, tableKeyMap.PageDown):
		m.cursor += page
	case key.Matches(msg, tableKeyMap.Top):
		m.cursor = 0
	case key.Matches(msg, tableKeyMap.Bottom):
		m.cursor = m.mgr.Renderer().ItemCount() - 1
	case key.Matches(msg, tableKeyMap.Retry):
		if !m.mgr.Retry() {
			return m, nil
		}
		m.status = "retrying"
	case key.Matches(msg, tableKeyMap.Refresh):
		m.mgr.Invalidate()
		m.cursor, m.top = 0, 0
		m.status = "reloading"
	case key.Matches(msg, tableKeyMap.Add):
		m.form = newAddForm()
		return m, m.form.focusCmd()
	default:
		return m, nil
	}

	m.follow()
	return m, m.pull()
}

// follow clamps the cursor and scrolls so that it stays visible.
func (m *Model) follow() {

	items := m.mgr.Renderer().ItemCount()
	page := m.visibleRows()

	if m.cursor >= items {
		m.cursor = items - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+page {
		m.top = m.cursor - page + 1
	}

	rowHeight := m.mgr.Renderer().RowHeight()
	m.top = m.mgr.Renderer().ClampOffset(m.top*rowHeight, m.bodyHeight()) / rowHeight
}

func (m Model) bodyHeight() int {
	h := m.height - chromeLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) visibleRows() int {
	rows := m.bodyHeight() / m.mgr.Renderer().RowHeight()
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m Model) scrollOffset() int {
	return m.top * m.mgr.Renderer().RowHeight()
}

// pull renders the current window so the manager sees which rows are
// wanted and starts the next page fetch when one is due.
func (m Model) pull() tea.Cmd {

	if m.height == 0 {
		return nil
	}

	m.mgr.Visible(m.scrollOffset(), m.bodyHeight())

	ticket, ok := m.mgr.Pull()
	if !ok {
		return nil
	}

	slog.Debug("requesting page", "page", ticket.Page, "generation", ticket.Generation.String())

	return m.load(ticket)
}

func (m Model) load(ticket manager.Ticket) tea.Cmd {

	mgr, ctx := m.mgr, m.ctx

	return func() tea.Msg {
		return pageLoadedMsg{
			ticket: ticket,
			err:    mgr.Load(ctx, ticket),
		}
	}
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(ctx context.Context, mgr *manager.Manager, title string) error {

	_, err := tea.NewProgram(New(ctx, mgr, title), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
