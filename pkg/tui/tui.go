// Package tui renders the control surface in the terminal: track status,
// effect engage state and live parameter values.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	amber    = lipgloss.Color("#FFB000")
	dustGray = lipgloss.Color("#888888")
	darkGray = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(amber).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(dustGray).
			PaddingLeft(2)

	valueStyle = lipgloss.NewStyle().
			Foreground(amber)

	engagedStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	bypassedStyle = lipgloss.NewStyle().
			Foreground(dustGray)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(1, 2)
)

const barWidth = 16

// ParamView is one parameter row.
type ParamView struct {
	Name       string
	Value      string
	Normalized float64
}

// EffectView is one effect stage.
type EffectView struct {
	Name    string
	Engaged bool
}

// Snapshot is one display frame of engine state.
type Snapshot struct {
	Track     string
	Effects   []EffectView
	Params    []ParamView
	Underruns uint64
	Blocks    uint64
}

// Controls are the actions the TUI can trigger. All are optional.
type Controls struct {
	ToggleEffect func(index int)
	Save         func()
}

type frameMsg struct{}

// Model is the bubbletea model. Display frames are paced by the engine
// scheduler: each scheduler fire lands one token on the frames channel
// and the model refetches on arrival, so the terminal redraws in step
// with the audio block clock instead of a wall timer.
type Model struct {
	fetch    func() Snapshot
	controls Controls
	frames   <-chan struct{}
	snap     Snapshot
	width    int
	height   int
}

// New creates a display model refreshed once per token on frames.
func New(fetch func() Snapshot, controls Controls, frames <-chan struct{}) Model {
	return Model{
		fetch:    fetch,
		controls: controls,
		frames:   frames,
		snap:     fetch(),
	}
}

func (m Model) waitFrame() tea.Cmd {
	return func() tea.Msg {
		<-m.frames
		return frameMsg{}
	}
}

// Init starts waiting for the first display frame.
func (m Model) Init() tea.Cmd {
	return m.waitFrame()
}

// Update handles key presses and display frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case frameMsg:
		m.snap = m.fetch()
		return m, m.waitFrame()

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.controls.Save != nil {
				m.controls.Save()
			}
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			idx := int(key[0] - '1')
			if m.controls.ToggleEffect != nil && idx < len(m.snap.Effects) {
				m.controls.ToggleEffect(idx)
			}
		}
	}
	return m, nil
}

// View renders the current snapshot.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("GRAINMOTHER"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("track: ") + valueStyle.Render(m.snap.Track))
	b.WriteString("\n\n")

	for i, fx := range m.snap.Effects {
		style := bypassedStyle
		state := "bypassed"
		if fx.Engaged {
			style = engagedStyle
			state = "engaged"
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("[%d] ", i+1)))
		b.WriteString(style.Render(fmt.Sprintf("%-12s %s", fx.Name, state)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, p := range m.snap.Params {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", p.Name)))
		b.WriteString(renderBar(p.Normalized))
		b.WriteString(" " + valueStyle.Render(p.Value))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("blocks %d", m.snap.Blocks)
	if m.snap.Underruns > 0 {
		status += "  " + warnStyle.Render(fmt.Sprintf("underruns %d", m.snap.Underruns))
	}
	b.WriteString("\n" + labelStyle.Render(status))
	b.WriteString("\n" + helpStyle.Render("1-9 toggle effect • s save • q quit"))

	return boxStyle.Render(b.String())
}

func renderBar(normalized float64) string {
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}
	filled := int(normalized*barWidth + 0.5)
	return valueStyle.Render(strings.Repeat("█", filled)) +
		bypassedStyle.Render(strings.Repeat("░", barWidth-filled))
}
