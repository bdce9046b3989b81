package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrFormCancelled is returned when the user backs out of a form with esc or
// ctrl+c instead of submitting it.
var ErrFormCancelled = errors.New("form cancelled")

// formField describes a single input in a form.
type formField struct {
	label    string
	secret   bool
	validate func(string) error
}

// formModel is a vertical list of text inputs with a submit action. Tab and
// enter move the focus forward, shift+tab moves it back, and enter on the last
// field submits.
type formModel struct {
	title  string
	fields []formField
	inputs []textinput.Model
	focus  int

	submitted bool
	cancelled bool
	errMsg    string
}

func newFormModel(title string, fields []formField) formModel {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 40
		ti.Prompt = "> "
		if f.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		if i == 0 {
			ti.Focus()
		}
		inputs[i] = ti
	}
	return formModel{title: title, fields: fields, inputs: inputs}
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if m.focus == len(m.inputs)-1 {
				if err := m.validateAll(); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
				m.submitted = true
				return m, tea.Quit
			}
			return m.setFocus(m.focus + 1)
		case "tab", "down":
			return m.setFocus((m.focus + 1) % len(m.inputs))
		case "shift+tab", "up":
			return m.setFocus((m.focus - 1 + len(m.inputs)) % len(m.inputs))
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m formModel) setFocus(idx int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = idx
	m.errMsg = ""
	return m, m.inputs[m.focus].Focus()
}

func (m formModel) validateAll() error {
	for i, f := range m.fields {
		if f.validate == nil {
			continue
		}
		if err := f.validate(m.inputs[i].Value()); err != nil {
			return fmt.Errorf("%s: %w", f.label, err)
		}
	}
	return nil
}

func (m formModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n")

	var body strings.Builder
	for i, f := range m.fields {
		body.WriteString(labelStyle.Render(f.label))
		body.WriteString("\n")
		body.WriteString(m.inputs[i].View())
		body.WriteString("\n")
	}
	sb.WriteString(formStyle.Render(strings.TrimRight(body.String(), "\n")))
	sb.WriteString("\n")

	if m.errMsg != "" {
		sb.WriteString(errorStyle.Render("✗ " + m.errMsg))
		sb.WriteString("\n")
	}
	sb.WriteString(helpStyle.Render("tab/enter: next field • enter on last field: submit • esc: cancel"))
	sb.WriteString("\n")
	return sb.String()
}

func (m formModel) values() []string {
	vals := make([]string, len(m.inputs))
	for i := range m.inputs {
		vals[i] = strings.TrimSpace(m.inputs[i].Value())
	}
	return vals
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func runForm(m formModel) (formModel, error) {
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return m, fmt.Errorf("failed to run form: %w", err)
	}
	result, ok := final.(formModel)
	if !ok {
		return m, fmt.Errorf("unexpected form model type %T", final)
	}
	if result.cancelled || !result.submitted {
		return result, ErrFormCancelled
	}
	return result, nil
}
