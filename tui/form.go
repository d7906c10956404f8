package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dot5enko/simple-record-grid/debounce"
	"github.com/dot5enko/simple-record-grid/form"
	"github.com/dot5enko/simple-record-grid/schema"
)

const validateDelay = 300 * time.Millisecond

// key of the inline message about the custom field limit
const customLimitKey = "custom"

type validateMsg struct {
	seq uint64
}

type recordAddedMsg struct {
	err error
}

type formInput struct {
	key   string
	label string
	input textinput.Model
}

type addForm struct {
	inputs []formInput
	fixed  int
	focus  int

	errors     form.FieldErrors
	submitErr  error
	submitting bool

	seq debounce.Sequence
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "> "
	in.CharLimit = 64
	in.Width = 32
	return in
}

func newAddForm() *addForm {

	f := &addForm{}

	for _, field := range form.Fields {
		label := field.Label
		if field.Rule.Required {
			label += " *"
		}
		f.inputs = append(f.inputs, formInput{
			key:   field.Name,
			label: label,
			input: newInput(field.Placeholder),
		})
	}
	f.fixed = len(f.inputs)

	return f
}

func (f *addForm) customCount() int {
	return (len(f.inputs) - f.fixed) / 2
}

func (f *addForm) addCustom() bool {

	n := f.customCount()
	if n >= form.MaxCustomFields {
		return false
	}

	f.inputs = append(f.inputs,
		formInput{key: form.CustomNameKey(n), label: "Custom field name", input: newInput("Enter field name")},
		formInput{key: form.CustomValueKey(n), label: "Custom field value", input: newInput("Enter field value")},
	)

	return true
}

func (f *addForm) removeCustom() {

	if f.customCount() == 0 {
		return
	}

	f.inputs = f.inputs[:len(f.inputs)-2]
	if f.focus >= len(f.inputs) {
		f.focus = len(f.inputs) - 1
	}
}

func (f *addForm) focusCmd() tea.Cmd {

	for i := range f.inputs {
		f.inputs[i].input.Blur()
	}

	return f.inputs[f.focus].input.Focus()
}

func (f *addForm) move(delta int) tea.Cmd {
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.focusCmd()
}

func (f *addForm) submission() form.Submission {

	var sub form.Submission

	for _, in := range f.inputs[:f.fixed] {
		sub.Fields = append(sub.Fields, form.Value{Name: in.key, Value: in.input.Value()})
	}

	for i := f.fixed; i+1 < len(f.inputs); i += 2 {
		sub.Custom = append(sub.Custom, schema.CustomField{
			Name:  f.inputs[i].input.Value(),
			Value: f.inputs[i+1].input.Value(),
		})
	}

	return sub
}

func (f *addForm) validate() bool {
	f.errors = form.Validate(f.submission())
	return f.errors == nil
}

func (f *addForm) setValue(key, value string) {
	for i := range f.inputs {
		if f.inputs[i].key == key {
			f.inputs[i].input.SetValue(value)
		}
	}
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {

	f := m.form

	if f.submitting {
		return m, nil
	}

	switch {
	case key.Matches(msg, formKeyMap.Cancel):
		m.form = nil
		return m, nil

	case key.Matches(msg, formKeyMap.Next):
		return m, f.move(1)

	case key.Matches(msg, formKeyMap.Prev):
		return m, f.move(-1)

	case key.Matches(msg, formKeyMap.AddCustom):
		if !f.addCustom() {
			if f.errors == nil {
				f.errors = form.FieldErrors{}
			}
			f.errors[customLimitKey] = "at most 5 custom fields"
			return m, nil
		}
		f.focus = len(f.inputs) - 2
		return m, f.focusCmd()

	case key.Matches(msg, formKeyMap.RemoveCustom):
		f.removeCustom()
		return m, f.focusCmd()

	case key.Matches(msg, formKeyMap.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	f.inputs[f.focus].input, cmd = f.inputs[f.focus].input.Update(msg)

	seq := f.seq.Next()
	tick := tea.Tick(validateDelay, func(time.Time) tea.Msg {
		return validateMsg{seq: seq}
	})

	return m, tea.Batch(cmd, tick)
}

func (m Model) submit() (tea.Model, tea.Cmd) {

	f := m.form
	f.submitErr = nil

	// pending debounced checks are superseded
	f.seq.Next()

	if !f.validate() {
		return m, nil
	}

	f.submitting = true

	mgr, ctx, sub := m.mgr, m.ctx, f.submission()

	return m, func() tea.Msg {
		return recordAddedMsg{err: mgr.Submit(ctx, sub)}
	}
}

func (m Model) recordAdded(msg recordAddedMsg) (tea.Model, tea.Cmd) {

	if m.form == nil {
		return m, nil
	}

	if msg.err != nil {
		m.form.submitting = false
		m.form.submitErr = msg.err
		return m, nil
	}

	m.form = nil
	m.cursor, m.top = 0, 0
	m.status = "record added"

	return m, m.pull()
}

func (f *addForm) view(spin string) string {

	var b strings.Builder

	b.WriteString(titleStyle.Render("Add record"))
	b.WriteString("\n\n")

	for i, in := range f.inputs {

		if i == f.fixed {
			b.WriteString(dimStyle.Render("custom fields"))
			b.WriteString("\n")
		}

		b.WriteString(labelStyle.Render(in.label))
		b.WriteString("\n")
		b.WriteString(in.input.View())
		b.WriteString("\n")

		if msg, ok := f.errors[in.key]; ok {
			b.WriteString(errorStyle.Render("  " + msg))
			b.WriteString("\n")
		}
	}

	if msg, ok := f.errors[customLimitKey]; ok {
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
	}

	if f.submitErr != nil {
		b.WriteString(errorStyle.Render("not saved: " + f.submitErr.Error()))
		b.WriteString("\n")
	}

	if f.submitting {
		b.WriteString(spin + statusStyle.Render(" saving"))
		b.WriteString("\n")
	}

	k := formKeyMap
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(helpLine(k.Next, k.AddCustom, k.RemoveCustom, k.Submit, k.Cancel)))

	return modalStyle.Render(b.String())
}
