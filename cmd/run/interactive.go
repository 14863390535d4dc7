package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-tojs/decode"
	"github.com/wippyai/wasm-tojs/runtime"
)

type palette struct {
	title, name, typ, cursor, ok, fail, muted lipgloss.Style
}

var styles = palette{
	title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1),
	name:   lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
	typ:    lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
	cursor: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")),
	ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90")),
	fail:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
}

type screen int

const (
	screenPick screen = iota
	screenArgs
	screenResult
)

// historySize bounds the calls shown under the function list.
const historySize = 5

type callRecord struct {
	call   string
	output string
	failed bool
}

type tui struct {
	loadErr  error
	session  *session
	cfg      Config
	filename string
	funcs    []runtime.FunctionInfo
	inputs   []textinput.Model
	history  []callRecord
	last     callRecord
	cursor   int
	focus    int
	screen   screen
}

type sessionMsg struct {
	err     error
	session *session
}

type callDoneMsg callRecord

func newTUI(filename string, cfg Config) *tui {
	return &tui{filename: filename, cfg: cfg}
}

func (m *tui) Init() tea.Cmd {
	return func() tea.Msg {
		s, err := open(context.Background(), m.filename, m.cfg)
		return sessionMsg{err: err, session: s}
	}
}

func (m *tui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionMsg:
		m.loadErr = msg.err
		if msg.session != nil {
			m.session = msg.session
			m.funcs = msg.session.inst.Functions()
		}
		return m, nil

	case callDoneMsg:
		m.last = callRecord(msg)
		m.history = append(m.history, m.last)
		if len(m.history) > historySize {
			m.history = m.history[1:]
		}
		m.screen = screenResult
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		switch m.screen {
		case screenPick:
			return m.pickKey(msg)
		case screenArgs:
			return m.argsKey(msg)
		case screenResult:
			return m.resultKey(msg)
		}
	}

	if m.screen == screenArgs && len(m.inputs) > 0 {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *tui) quit() (tea.Model, tea.Cmd) {
	if m.session != nil {
		m.session.Close(context.Background())
	}
	return m, tea.Quit
}

func (m *tui) pickKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(len(m.funcs)-1, 0))
	case "enter":
		if len(m.funcs) == 0 {
			return m, nil
		}
		m.inputs = m.argInputs(m.funcs[m.cursor])
		if len(m.inputs) == 0 {
			return m, m.invoke
		}
		m.screen = screenArgs
	}
	return m, nil
}

func (m *tui) argsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen, m.inputs = screenPick, nil
		return m, nil
	case "enter":
		return m, m.invoke
	case "tab", "shift+tab":
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.inputs) - 1
		}
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + step) % len(m.inputs)
		return m, m.inputs[m.focus].Focus()
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *tui) resultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "enter", "esc":
		m.screen = screenPick
	}
	return m, nil
}

func (m *tui) argInputs(fn runtime.FunctionInfo) []textinput.Model {
	inputs := make([]textinput.Model, len(fn.Params))
	for i, p := range fn.Params {
		ti := textinput.New()
		ti.Prompt = p + ": "
		ti.Placeholder = m.paramType(fn.Name, i)
		ti.Width = 40
		inputs[i] = ti
	}
	m.focus = 0
	if len(inputs) > 0 {
		inputs[0].Focus()
	}
	return inputs
}

// paramType names the declared WIT type of a parameter, or "value" when
// no WIT was given.
func (m *tui) paramType(fn string, i int) string {
	types, err := m.session.mod.GetFunctionTypes(fn)
	if err != nil || i >= len(types) {
		return "value"
	}
	return runtime.WITTypeName(types[i])
}

func (m *tui) invoke() tea.Msg {
	fn := m.funcs[m.cursor]
	args := make([]any, len(m.inputs))
	shown := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		args[i], shown[i] = in.Value(), in.Value()
	}
	rec := callRecord{call: fn.Name + "(" + strings.Join(shown, ", ") + ")"}

	result, err := m.session.inst.Call(context.Background(), fn.Name, args...)
	var ge *decode.GuestError
	switch {
	case errors.As(err, &ge):
		rec.output, rec.failed = "guest error: "+ge.Message, true
	case err != nil:
		rec.output, rec.failed = err.Error(), true
	case m.cfg.Format == formatYAML:
		out, yerr := renderYAML(result)
		if yerr != nil {
			rec.output, rec.failed = yerr.Error(), true
			break
		}
		rec.output = strings.TrimRight(out, "\n")
	default:
		rec.output = renderText(result)
	}
	return callDoneMsg(rec)
}

func (m *tui) View() string {
	if m.loadErr != nil {
		return styles.fail.Render(fmt.Sprintf("Error: %v", m.loadErr)) + "\n\n" + styles.muted.Render("ctrl+c quit")
	}
	if m.session == nil {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("WASM Runner") + " " + m.filename + "\n\n")

	switch m.screen {
	case screenPick:
		m.viewPick(&b)
	case screenArgs:
		fn := m.funcs[m.cursor]
		fmt.Fprintf(&b, "Calling %s -> %s\n\n", styles.name.Render(fn.Name), styles.typ.Render(resultType(fn)))
		for i, in := range m.inputs {
			b.WriteString(in.View() + " " + styles.typ.Render(m.paramType(fn.Name, i)) + "\n")
		}
		b.WriteString("\n" + styles.muted.Render("tab next field • enter call • esc back"))
	case screenResult:
		b.WriteString(styles.name.Render(m.last.call) + "\n\n")
		b.WriteString(renderRecord(m.last) + "\n\n")
		b.WriteString(styles.muted.Render("enter continue • q quit"))
	}
	return b.String()
}

func (m *tui) viewPick(b *strings.Builder) {
	if len(m.funcs) == 0 {
		b.WriteString("The module exports no float-returning functions.\n\n")
		b.WriteString(styles.muted.Render("q quit"))
		return
	}
	b.WriteString("Select a function to call:\n\n")
	for i, fn := range m.funcs {
		line := styles.name.Render(fn.Name) + "(" + strings.Join(fn.Params, ", ") + ") -> " + styles.typ.Render(resultType(fn))
		if i == m.cursor {
			b.WriteString(styles.cursor.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if len(m.history) > 0 {
		b.WriteString("\nRecent calls:\n")
		for _, rec := range m.history {
			b.WriteString("  " + rec.call + " = " + renderRecord(rec) + "\n")
		}
	}
	b.WriteString("\n" + styles.muted.Render("↑/↓ select • enter call • q quit"))
}

func renderRecord(rec callRecord) string {
	if rec.failed {
		return styles.fail.Render(rec.output)
	}
	return styles.ok.Render(rec.output)
}

func resultType(fn runtime.FunctionInfo) string {
	if !fn.Described {
		return "?"
	}
	return fn.Descriptor.String()
}

func runInteractive(filename string, cfg Config) error {
	_, err := tea.NewProgram(newTUI(filename, cfg), tea.WithAltScreen()).Run()
	return err
}
