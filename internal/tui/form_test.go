package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func typeInto(t *testing.T, m tea.Model, text string) tea.Model {
	t.Helper()
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestFormSubmitsAfterLastField(t *testing.T) {
	t.Parallel()

	var m tea.Model = newFormModel("test", []formField{
		{label: "Name", validate: notEmpty},
		{label: "Secret", secret: true, validate: notEmpty},
	})

	m = typeInto(t, m, "alice")
	m, _ = m.Update(keyMsg("enter"))
	m = typeInto(t, m, "hunter2")
	m, _ = m.Update(keyMsg("enter"))

	result := m.(formModel)
	if !result.submitted {
		t.Fatal("form not submitted after enter on last field")
	}
	vals := result.values()
	if vals[0] != "alice" || vals[1] != "hunter2" {
		t.Errorf("values = %v", vals)
	}
}

func TestFormBlocksSubmitOnEmptyRequiredField(t *testing.T) {
	t.Parallel()

	var m tea.Model = newFormModel("test", []formField{
		{label: "Name", validate: notEmpty},
		{label: "Note"},
	})

	m, _ = m.Update(keyMsg("tab"))
	m, _ = m.Update(keyMsg("enter"))

	result := m.(formModel)
	if result.submitted {
		t.Error("form submitted with an empty required field")
	}
	if result.errMsg == "" {
		t.Error("no validation message shown")
	}
}

func TestFormCancelsOnEsc(t *testing.T) {
	t.Parallel()

	var m tea.Model = newFormModel("test", []formField{{label: "Name"}})
	m, _ = m.Update(keyMsg("esc"))

	if !m.(formModel).cancelled {
		t.Error("esc did not cancel the form")
	}
}

func TestFormTabCyclesFocus(t *testing.T) {
	t.Parallel()

	var m tea.Model = newFormModel("test", []formField{
		{label: "A"}, {label: "B"}, {label: "C"},
	})

	m, _ = m.Update(keyMsg("tab"))
	m, _ = m.Update(keyMsg("tab"))
	m, _ = m.Update(keyMsg("tab"))

	if got := m.(formModel).focus; got != 0 {
		t.Errorf("focus = %d after cycling through all fields, want 0", got)
	}
}
