package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/transcoder"
)

type modelState int

const (
	stateSelectKind modelState = iota
	stateEditMessage
	stateShowResult
)

type interactiveModel struct {
	err      error
	ws       *workspace
	result   *conversion
	input    textinput.Model
	kinds    []hermes.Kind
	selected int
	state    modelState
}

func newInteractiveModel(ws *workspace) *interactiveModel {
	return &interactiveModel{
		ws:    ws,
		kinds: hermes.Kinds(),
		state: stateSelectKind,
	}
}

type convertedMsg struct {
	err    error
	result *conversion
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateEditMessage {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectKind && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectKind && m.selected < len(m.kinds)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectKind:
				m.prepareInput()
				m.state = stateEditMessage
				return m, textinput.Blink

			case stateEditMessage:
				return m, m.convert

			case stateShowResult:
				m.state = stateEditMessage
				m.result = nil
				m.err = nil
				return m, nil
			}

		case "esc":
			switch m.state {
			case stateEditMessage:
				m.state = stateSelectKind
			case stateShowResult:
				m.state = stateSelectKind
				m.result = nil
				m.err = nil
			}
			return m, nil
		}

	case convertedMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		return m, nil
	}

	if m.state == stateEditMessage {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// prepareInput fills the editor with the example envelope of the selected kind.
func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Prompt = "envelope: "
	ti.Width = 100
	ti.CharLimit = 0
	if data, err := hermes.Marshal(hermes.FormatJSON, hermes.Example(m.kinds[m.selected])); err == nil {
		ti.SetValue(string(data))
	}
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) convert() tea.Msg {
	msg, err := hermes.Unmarshal(hermes.FormatJSON, []byte(m.input.Value()))
	if err != nil {
		return convertedMsg{err: err}
	}
	c, err := m.ws.convert(msg)
	return convertedMsg{result: c, err: err}
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	r := renderer{out: &b, styled: true}

	b.WriteString(titleStyle.Render("Hermes FFI"))
	b.WriteString(" ")
	b.WriteString(m.ws.backend())
	b.WriteString(" memory\n\n")

	switch m.state {
	case stateSelectKind:
		b.WriteString("Select a message kind:\n\n")
		for i, k := range m.kinds {
			lay, _ := transcoder.Layout(k)
			line := fmt.Sprintf("%-30s %s (%d bytes)", k.String(), lay.Name, lay.Size)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + nameStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter edit • q quit"))

	case stateEditMessage:
		k := m.kinds[m.selected]
		lay, _ := transcoder.Layout(k)
		r.layout(lay)
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter convert • esc back"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			r.conversion(m.ws.backend(), m.result)
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter edit again • esc kinds • q quit"))
	}

	return b.String()
}

func runInteractive(ws *workspace) error {
	p := tea.NewProgram(newInteractiveModel(ws), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
