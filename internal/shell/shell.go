// Package shell hosts the overlay surfaces. The Model here is the single
// event loop both windows run on; panel open and close requests arrive over
// the command bridge and are applied here, so the panel can exist at most
// once and window state never races.
package shell

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// healthProber checks store reachability for the footer indicator.
type healthProber interface {
	CheckHealth(ctx context.Context) bool
}

// engineControl is the slice of the sync engine the shell drives directly.
type engineControl interface {
	healthProber
	Detach()
}

const healthInterval = 15 * time.Second

type healthTickMsg struct{}

type healthMsg struct {
	ok bool
}

// Model is the root program model.
type Model struct {
	registry *Registry
	bridge   *Bridge
	eng      engineControl

	newCompanion func() tea.Model
	newPanel     func() tea.Model

	width   int
	height  int
	healthy bool
	probed  bool
	timeout time.Duration
}

// Config wires the shell to its surfaces.
type Config struct {
	Bridge       *Bridge
	Engine       engineControl
	NewCompanion func() tea.Model
	NewPanel     func() tea.Model
	OpenPanel    bool
	HTTPTimeout  time.Duration
}

// New builds the root model. The companion window always exists; the panel
// is created on demand through the bridge.
func New(cfg Config) Model {
	m := Model{
		registry:     NewRegistry(),
		bridge:       cfg.Bridge,
		eng:          cfg.Engine,
		newCompanion: cfg.NewCompanion,
		newPanel:     cfg.NewPanel,
		healthy:      true,
		timeout:      cfg.HTTPTimeout,
	}
	m.registry.EnsureCompanion(cfg.NewCompanion)
	if cfg.OpenPanel {
		m.registry.OpenOrFocusPanel(cfg.NewPanel)
	}
	return m
}

// Init starts every mounted surface plus the bridge listener and the
// health probe.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.Await(), m.probeHealth(), m.healthTick()}
	if w := m.registry.Companion(); w != nil {
		cmds = append(cmds, w.Content.Init())
	}
	if w := m.registry.Panel(); w != nil {
		cmds = append(cmds, w.Content.Init())
	}
	return tea.Batch(cmds...)
}

func (m Model) healthTick() tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

func (m Model) probeHealth() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return healthMsg{ok: m.eng.CheckHealth(ctx)}
	}
}

// Update routes messages. Key input goes to the panel when it is open,
// otherwise to the companion; everything else is broadcast so each surface
// picks out its own tick and result messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if w := m.registry.Panel(); w != nil {
			return m.updateWindow(w, msg)
		}
		if w := m.registry.Companion(); w != nil {
			return m.updateWindow(w, msg)
		}
		return m, nil

	case CommandMsg:
		cmd := m.applyCommand(msg.Command)
		return m, tea.Batch(cmd, m.bridge.Await())

	case healthTickMsg:
		return m, tea.Batch(m.probeHealth(), m.healthTick())

	case healthMsg:
		m.healthy = msg.ok
		m.probed = true
		return m, nil
	}

	return m.broadcast(msg)
}

// applyCommand mutates window state for one bridge command. Duplicate opens
// and closes are no-ops.
func (m *Model) applyCommand(c Command) tea.Cmd {
	switch c {
	case CommandOpenPanel:
		w, created := m.registry.OpenOrFocusPanel(m.newPanel)
		if created {
			return w.Content.Init()
		}
	case CommandClosePanel:
		if m.registry.ClosePanel() {
			// Invalidate in-flight panel work so late results and
			// orphaned ticks are discarded.
			m.eng.Detach()
		}
	case CommandTogglePanel:
		if m.registry.Panel() != nil {
			return m.applyCommand(CommandClosePanel)
		}
		return m.applyCommand(CommandOpenPanel)
	}
	return nil
}

func (m Model) updateWindow(w *Window, msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := w.Content.Update(msg)
	w.Content = next
	return m, cmd
}

// broadcast delivers a message to every mounted surface.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, w := range []*Window{m.registry.Companion(), m.registry.Panel()} {
		if w == nil {
			continue
		}
		next, cmd := w.Content.Update(msg)
		w.Content = next
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// PanelOpen reports whether the panel window exists.
func (m Model) PanelOpen() bool {
	return m.registry.Panel() != nil
}

// Healthy reports the last health probe result.
func (m Model) Healthy() bool { return m.healthy }

var offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

// View composes the overlay surfaces into the bottom-right corner of the
// terminal, panel to the left of the companion.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	companion := ""
	if w := m.registry.Companion(); w != nil {
		companion = w.Content.View()
	}

	row := companion
	if w := m.registry.Panel(); w != nil {
		row = lipgloss.JoinHorizontal(lipgloss.Bottom,
			w.Content.View(),
			strings.Repeat(" ", panelGap),
			companion,
		)
	}

	if !m.healthy && m.probed {
		row = lipgloss.JoinVertical(lipgloss.Right,
			row,
			offlineStyle.Render("store unreachable"),
		)
	}

	if lipgloss.Width(row) > m.width || lipgloss.Height(row) > m.height {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			offlineStyle.Render("terminal too small"))
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, row)
}
