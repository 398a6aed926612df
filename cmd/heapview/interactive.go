package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-heap/arena"
	"github.com/wippyai/wasm-heap/bitmap"
	"github.com/wippyai/wasm-heap/cursor"
	"github.com/wippyai/wasm-heap/dispose"
	"github.com/wippyai/wasm-heap/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateInputValues
)

type interactiveModel struct {
	err     error
	rt      *runtime.Runtime
	bitmap  *bitmap.Bitmap
	iter    *cursor.Cursor
	objects []dispose.Disposable
	input   textinput.Model
	opts    options
	result  string
	state   modelState
}

type loadedMsg struct {
	err error
	rt  *runtime.Runtime
}

func newInteractiveModel(opts options) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "3,1,2"
	ti.Prompt = "values: "
	ti.Width = 40
	return &interactiveModel{
		opts:  opts,
		input: ti,
		state: stateBrowse,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	rt, err := newRuntime(context.Background(), m.opts)
	return loadedMsg{rt: rt, err: err}
}

func (m *interactiveModel) current() *arena.Arena {
	return m.rt.Stack().Current()
}

func (m *interactiveModel) track(d dispose.Disposable, what string) {
	m.objects = append(m.objects, d)
	m.result = what
	if a := m.current(); a != nil {
		m.result += fmt.Sprintf(" (arena %d members)", a.Size())
	} else {
		m.result += " (detached)"
	}
}

func (m *interactiveModel) last() dispose.Disposable {
	for i := len(m.objects) - 1; i >= 0; i-- {
		if !m.objects[i].IsDisposed() {
			return m.objects[i]
		}
	}
	return nil
}

func (m *interactiveModel) prune() {
	live := m.objects[:0]
	for _, o := range m.objects {
		if !o.IsDisposed() {
			live = append(live, o)
		}
	}
	clear(m.objects[len(live):])
	m.objects = live
}

func (m *interactiveModel) quit() (tea.Model, tea.Cmd) {
	if m.rt != nil {
		m.rt.Close(context.Background())
	}
	return m, tea.Quit
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.rt = msg.rt
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.rt == nil {
			if msg.String() == "q" {
				return m.quit()
			}
			return m, nil
		}
		if m.state == stateInputValues {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *interactiveModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.state = stateBrowse
		m.input.Blur()
		vals, err := parseValues(m.input.Value())
		m.input.SetValue("")
		if err == nil {
			err = m.bitmap.Add(vals...)
		}
		m.err = err
		if err == nil {
			m.result = fmt.Sprintf("added %d values, version %d", len(vals), m.bitmap.Version())
		}
		return m, nil
	case "esc":
		m.state = stateBrowse
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q":
		return m.quit()

	case "s":
		m.rt.NewArena().Start()
		m.result = fmt.Sprintf("arena started, depth %d", m.rt.Stack().Depth())

	case "x":
		a := m.current()
		if a == nil {
			m.result = "no arena to stop"
			break
		}
		n := a.Size()
		m.err = a.Stop()
		m.prune()
		m.result = fmt.Sprintf("arena stopped, released %d members", n)

	case "a":
		v, err := m.rt.Bytes(make([]byte, 64))
		if err != nil {
			m.err = err
			break
		}
		m.track(v, fmt.Sprintf("64-byte view at %d", v.Offset()))

	case "g":
		b, err := m.rt.Alloc(65536)
		if err != nil {
			m.err = err
			break
		}
		m.track(b, fmt.Sprintf("page-sized block at %d", b.Offset()))

	case "b":
		bm, err := m.rt.BitmapOf(m.opts.values)
		if err != nil {
			m.err = err
			break
		}
		m.bitmap = bm
		m.iter = nil
		m.track(bm, fmt.Sprintf("bitmap at %d", bm.Offset()))

	case "v":
		if m.bitmap == nil || m.bitmap.IsDisposed() {
			m.result = "create a bitmap first (b)"
			break
		}
		m.state = stateInputValues
		m.input.Focus()
		return m, textinput.Blink

	case "n":
		if m.bitmap == nil || m.bitmap.IsDisposed() {
			m.result = "create a bitmap first (b)"
			break
		}
		if m.iter == nil {
			m.iter = m.rt.Iterator(m.bitmap)
		}
		v, ok, err := m.iter.Next()
		switch {
		case err != nil:
			m.err = err
		case !ok:
			m.result = "iterator done"
		default:
			m.result = fmt.Sprintf("next: %d", v)
		}

	case "r":
		if m.iter != nil {
			m.iter.Reset()
			m.result = "iterator reset"
		}

	case "e":
		a, obj := m.current(), m.last()
		if a == nil || obj == nil {
			m.result = "nothing to escape"
			break
		}
		a.Escape(obj)
		m.result = fmt.Sprintf("escaped %T", obj)

	case "d":
		obj := m.last()
		if obj == nil {
			m.result = "nothing to dispose"
			break
		}
		released := dispose.TryDispose(obj)
		m.prune()
		m.result = fmt.Sprintf("disposed %T: %v", obj, released)
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	if m.rt == nil {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
		}
		return "Starting runtime..."
	}

	st := m.rt.Stats()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Heap Viewer"))
	b.WriteString("\n\n")

	row := func(label string, value any) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(valueStyle.Render(fmt.Sprint(value)))
		b.WriteString("\n")
	}
	row("pages", st.Heap.Pages)
	row("top", st.Heap.Top)
	row("in use", st.Heap.InUse)
	row("free list", st.Heap.FreeBytes)
	row("live blocks", st.Heap.LiveBlocks)
	row("grows", st.Heap.Grows)
	row("bitmaps", st.Native.Bitmaps)
	row("cursors", st.Native.Cursors)
	row("arena depth", st.ArenaDepth)
	if a := m.current(); a != nil {
		row("arena members", fmt.Sprintf("%d (%d escaped)", a.Size(), a.Escaped()))
	}
	if m.iter != nil {
		row("iterator", m.iter.State())
	}
	b.WriteString("\n")

	if m.state == stateInputValues {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter add • esc cancel"))
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else if m.result != "" {
		b.WriteString(resultStyle.Render(m.result))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("s start arena • x stop arena • a alloc view • g alloc page • b bitmap\n" +
		"v add values • n next • r reset iterator • e escape • d dispose • q quit"))
	return b.String()
}

func runInteractive(opts options) error {
	p := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
