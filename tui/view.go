package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/dot5enko/simple-record-grid/viewport"
	"github.com/mattn/go-runewidth"
)

const (
	minColWidth = 4
	maxColWidth = 28
)

func (m Model) View() string {

	if m.width == 0 {
		return "loading..."
	}

	if m.form != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.form.view(m.spinner.View()))
	}

	return m.viewTable()
}

func (m Model) viewTable() string {

	var b strings.Builder

	b.WriteString(titleStyle.Render(" " + m.title))
	b.WriteString("\n")

	header := m.mgr.Header()
	body := m.bodyHeight()

	if m.mgr.Loading() && m.mgr.Err() == nil {
		b.WriteString(m.viewSkeleton(header, body))
		b.WriteString(m.viewFooter())
		return b.String()
	}

	slots := m.visibleSlots()
	widths := columnWidths(header, slots, m.width)

	b.WriteString(renderHeader(header, widths))
	b.WriteString("\n")
	b.WriteString(renderSeparator(widths))
	b.WriteString("\n")

	lines := 0

	if len(slots) == 0 && !m.mgr.HasMore() {
		b.WriteString(dimStyle.Render(" (no records)"))
		b.WriteString("\n")
		lines++
	}

	rowHeight := m.mgr.Renderer().RowHeight()

	for _, slot := range slots {
		line := m.renderSlot(slot, header, widths)
		if slot.Index == m.cursor && slot.State == viewport.Resolved {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")

		for extra := 1; extra < rowHeight; extra++ {
			b.WriteString("\n")
		}
		lines += rowHeight
	}

	for ; lines < body; lines++ {
		b.WriteString("\n")
	}

	b.WriteString(m.viewFooter())
	return b.String()
}

// visibleSlots drops the overscan rows the renderer adds around the window.
func (m Model) visibleSlots() []viewport.Slot {

	offset := m.scrollOffset()
	height := m.bodyHeight()

	var slots []viewport.Slot
	for _, slot := range m.mgr.Visible(offset, height) {
		if slot.Top >= offset && slot.Top < offset+height {
			slots = append(slots, slot)
		}
	}

	return slots
}

func (m Model) renderSlot(slot viewport.Slot, header schema.Header, widths []int) string {

	switch slot.State {
	case viewport.Resolved:
		cells := make([]string, len(header))
		for i, col := range header {
			cells[i] = " " + fitCell(slot.Row.Get(col), widths[i]) + " "
		}
		return strings.Join(cells, dimStyle.Render("│"))
	case viewport.Pending:
		return " " + m.spinner.View() + dimStyle.Render(" loading more records...")
	case viewport.Failed:
		return errorStyle.Render(" failed to load, press r to retry")
	default:
		return dimStyle.Render(" …")
	}
}

func (m Model) viewSkeleton(header schema.Header, body int) string {

	var b strings.Builder

	b.WriteString(" " + m.spinner.View() + statusStyle.Render(" loading records"))
	b.WriteString("\n")

	bar := m.width - 2
	if bar < 1 {
		bar = 1
	}

	// covers the header and separator lines too
	for i := 1; i < body+2; i++ {
		width := bar - (i%3)*bar/6
		b.WriteString(" " + skeletonStyle.Render(strings.Repeat("░", width)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewFooter() string {

	status := fmt.Sprintf(" row %d of %d", m.cursor+1, m.mgr.Len())
	if m.mgr.HasMore() {
		status += "+"
	}
	if m.mgr.InFlight() {
		status += "  " + m.spinner.View()
	}
	if m.status != "" {
		status += "  " + m.status
	}

	line := statusStyle.Render(status)
	if m.mgr.Err() != nil {
		line = errorStyle.Render(status)
	}

	k := tableKeyMap
	return line + "\n" + dimStyle.Render(helpLine(k.Down, k.Up, k.Bottom, k.Add, k.Retry, k.Refresh, k.Quit))
}

// columnWidths sizes each column by its name and the values on screen,
// then shrinks the widest ones until the table fits.
func columnWidths(header schema.Header, slots []viewport.Slot, termWidth int) []int {

	widths := make([]int, len(header))

	for i, col := range header {
		widths[i] = runewidth.StringWidth(col)
		for _, slot := range slots {
			if slot.State != viewport.Resolved {
				continue
			}
			if w := runewidth.StringWidth(slot.Row.Get(col)); w > widths[i] {
				widths[i] = w
			}
		}
		widths[i] = min(max(widths[i], minColWidth), maxColWidth)
	}

	if termWidth <= 0 {
		return widths
	}

	// two padding cells and a separator per column
	budget := termWidth - 3*len(widths)

	for sum(widths) > budget {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColWidth {
			break
		}
		widths[widest]--
	}

	return widths
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func fitCell(value string, width int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return runewidth.FillRight(runewidth.Truncate(value, width, "…"), width)
}

func renderHeader(header schema.Header, widths []int) string {

	cells := make([]string, len(header))
	for i, col := range header {
		cells[i] = headerStyle.Render(" " + fitCell(col, widths[i]) + " ")
	}

	return strings.Join(cells, dimStyle.Render("│"))
}

func renderSeparator(widths []int) string {

	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = dimStyle.Render(strings.Repeat("─", w+2))
	}

	return strings.Join(parts, dimStyle.Render("┼"))
}
