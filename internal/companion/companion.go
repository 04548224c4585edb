// Package companion renders the always-visible pet surface and runs the
// lightweight badge poll that keeps its unread indicator fresh while the
// panel is closed.
package companion

import (
	"context"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jay-tech456/TamaBotchi/internal/shell"
)

// bounceFrames bounds the bounce animation to a fixed duration per
// trigger; a new change restarts it rather than extending it.
const (
	bounceFrames        = 6
	bounceFrameInterval = 120 * time.Millisecond
)

// badgeSource is the slice of the sync engine the companion polls.
type badgeSource interface {
	RefreshBadge(ctx context.Context) (int, error)
}

type badgeTickMsg time.Time

type badgeMsg struct {
	count int
	err   error
}

type bounceMsg int

var (
	spriteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	excitedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("219")).Bold(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("197")).Bold(true).Padding(0, 1)
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Model is the companion surface.
type Model struct {
	source   badgeSource
	bridge   *shell.Bridge
	interval time.Duration
	timeout  time.Duration

	observer BadgeObserver
	mood     Mood
	count    int
	bounce   int // frames remaining, 0 = at rest
	offline  bool
}

// New creates the companion. bridge may be nil when running outside the
// hosted shell; interaction is then a no-op.
func New(source badgeSource, bridge *shell.Bridge, interval, timeout time.Duration) Model {
	return Model{
		source:   source,
		bridge:   bridge,
		interval: interval,
		timeout:  timeout,
	}
}

// Init starts the badge poll: one immediate fetch, then the fixed-period
// tick for as long as the companion is mounted (the process lifetime).
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchBadge(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return badgeTickMsg(t)
	})
}

func (m Model) fetchBadge() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		count, err := m.source.RefreshBadge(ctx)
		return badgeMsg{count: count, err: err}
	}
}

// Update handles badge polls, bounce frames, and direct interaction.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case badgeTickMsg:
		return m, tea.Batch(m.fetchBadge(), m.tick())

	case badgeMsg:
		if msg.err != nil {
			// Keep the previous count; the badge shows the last
			// value the store reported.
			m.offline = true
			return m, nil
		}
		m.offline = false
		m.count = msg.count
		mood, bounce := m.observer.Observe(msg.count)
		m.mood = mood
		if bounce {
			restart := m.bounce == 0
			m.bounce = bounceFrames
			if restart {
				return m, m.bounceTick()
			}
		}
		return m, nil

	case bounceMsg:
		if m.bounce <= 0 {
			return m, nil
		}
		m.bounce--
		if m.bounce > 0 {
			return m, m.bounceTick()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter", " ":
			m.bridge.TogglePanel()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) bounceTick() tea.Cmd {
	return tea.Tick(bounceFrameInterval, func(time.Time) tea.Msg {
		return bounceMsg(0)
	})
}

// Mood returns the current derived mood.
func (m Model) Mood() Mood { return m.mood }

// Bouncing reports whether the bounce animation is running.
func (m Model) Bouncing() bool { return m.bounce > 0 }

// Count returns the last unread count the store reported.
func (m Model) Count() int { return m.count }

// View renders the companion sprite with its badge. The surface is
// frameless and fixed-size; the bounce shifts the sprite vertically on
// alternating frames.
func (m Model) View() string {
	face := "-.-"
	style := spriteStyle
	if m.mood == MoodExcited {
		face = "o.o"
		style = excitedStyle
	}

	sprite := []string{
		` /\_/\ `,
		`( ` + face + ` )`,
		` > ^ < `,
	}

	lines := make([]string, 0, shell.CompanionHeight)
	lifted := m.bounce > 0 && m.bounce%2 == 0
	if !lifted {
		lines = append(lines, "")
	}
	for _, l := range sprite {
		lines = append(lines, style.Render(l))
	}
	if lifted {
		lines = append(lines, "")
	}

	switch {
	case m.offline:
		lines = append(lines, offlineStyle.Render("offline"))
	case m.count > 0:
		lines = append(lines, badgeStyle.Render(formatBadge(m.count)))
	default:
		lines = append(lines, "")
	}

	body := strings.Join(lines, "\n")
	return lipgloss.Place(shell.CompanionWidth, shell.CompanionHeight, lipgloss.Center, lipgloss.Bottom, body)
}

func formatBadge(count int) string {
	if count > 99 {
		return "99+"
	}
	return strconv.Itoa(count)
}
