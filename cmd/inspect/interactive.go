package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	grainruntime "github.com/wippyai/grain-runtime"
	"github.com/wippyai/grain-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCC99"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyLimit = 12

type entry struct {
	input  string
	output string
	failed bool
}

type inspectModel struct {
	rt      *runtime.Runtime
	input   textinput.Model
	history []entry
}

func newInspectModel() (*inspectModel, error) {
	mem := grainruntime.NewArrayMemory(2)
	rt, err := runtime.New(runtime.Config{Memory: mem, Grower: mem})
	if err != nil {
		return nil, err
	}

	ti := textinput.New()
	ti.Placeholder = `(1, "two", [> 3, 4])`
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 64

	return &inspectModel{rt: rt, input: ti}, nil
}

func (m *inspectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.evaluate()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inspectModel) evaluate() {
	src := strings.TrimSpace(m.input.Value())
	if src == "" {
		return
	}
	m.input.SetValue("")

	e := entry{input: src}
	v, err := parseValue(m.rt, src)
	if err == nil {
		var out string
		out, err = m.rt.ToString(v)
		if err == nil {
			e.output = out
		}
	}
	if err != nil {
		e.output = err.Error()
		e.failed = true
	}

	m.history = append(m.history, e)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
}

func (m *inspectModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("grain runtime inspector"))
	b.WriteString("\n\n")

	for _, e := range m.history {
		b.WriteString(inputStyle.Render("> " + e.input))
		b.WriteString("\n")
		if e.failed {
			b.WriteString(errorStyle.Render(e.output))
		} else {
			b.WriteString(resultStyle.Render(e.output))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	st := m.rt.Allocator().Stats()
	b.WriteString(statsStyle.Render(fmt.Sprintf(
		"heap: %d units, %d in use, %d free (%d small / %d large blocks), %d grows",
		st.HeapUnits, st.InUseUnits(), st.FreeUnits, st.SmallBlocks, st.LargeBlocks, st.Grows)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: evaluate · esc: quit"))
	b.WriteString("\n")
	return b.String()
}

func runInteractive() error {
	model, err := newInspectModel()
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(model).Run()
	return err
}
