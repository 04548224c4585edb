// Package panel renders the on-demand conversation panel and drives the
// full-reconcile poll cycle while it is open.
package panel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Jay-tech456/TamaBotchi/internal/engine"
	"github.com/Jay-tech456/TamaBotchi/internal/petapi"
	"github.com/Jay-tech456/TamaBotchi/internal/shell"
)

// RowState is the derived per-conversation UI state.
type RowState int

const (
	StateCollapsedUnsummarized RowState = iota
	StateLoading
	StateCollapsedSummarized
	StateExpandedSummarized
)

// rowState derives the UI state for one conversation. It is recomputed on
// every render, never persisted across reconciles.
func rowState(c petapi.Conversation, loading, expanded bool) RowState {
	if c.Summary == nil {
		if loading {
			return StateLoading
		}
		return StateCollapsedUnsummarized
	}
	if expanded {
		return StateExpandedSummarized
	}
	return StateCollapsedSummarized
}

type reconcileTickMsg struct {
	gen int
}

type reconcileDoneMsg struct {
	gen int
	err error
}

type actionDoneMsg struct {
	gen int
	err error
}

type flashClearMsg struct {
	seq int
}

const flashDuration = 4 * time.Second

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	Interact     key.Binding
	MarkAllRead  key.Binding
	SummarizeAll key.Binding
	UnreadOnly   key.Binding
	Close        key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j", "down"),
	),
	Interact: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "summarize/expand"),
	),
	MarkAllRead: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "read all"),
	),
	SummarizeAll: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "summarize all"),
	),
	UnreadOnly: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unread only"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc", "close"),
	),
}

var (
	borderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("61"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	unreadDot    = lipgloss.NewStyle().Foreground(lipgloss.Color("197")).Render("●")
	readDot      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("○")
	senderStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	permStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	helpDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	urgencyStyles = map[string]lipgloss.Style{
		petapi.UrgencyHigh:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		petapi.UrgencyMedium:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		petapi.UrgencyLow:     lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		petapi.UrgencyUnknown: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}
)

// Model is the panel surface. Its reconcile timer lives exactly as long as
// the panel: the tick chain carries the engine generation captured at
// creation, and the shell bumps the generation on close, so orphaned ticks
// die at the staleness check instead of polling for a closed view.
type Model struct {
	eng     *engine.Engine
	bridge  *shell.Bridge
	gen     int
	period  time.Duration
	timeout time.Duration

	cursor     int
	expanded   map[string]bool
	unreadOnly bool
	flash      string
	flashPerm  bool
	flashSeq   int
	reconciled bool
}

// New creates a panel bound to the engine's current generation.
func New(eng *engine.Engine, bridge *shell.Bridge, period, timeout time.Duration) Model {
	return Model{
		eng:      eng,
		bridge:   bridge,
		gen:      eng.Generation(),
		period:   period,
		timeout:  timeout,
		expanded: make(map[string]bool),
	}
}

// Init triggers an immediate reconcile and starts the poll timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.reconcile(), m.tick())
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.period, func(time.Time) tea.Msg {
		return reconcileTickMsg{gen: gen}
	})
}

func (m Model) reconcile() tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return reconcileDoneMsg{gen: gen, err: m.eng.Reconcile(ctx)}
	}
}

// visible returns the conversations currently shown, honoring the unread
// filter. The slice aliases the engine snapshot; rows are never mutated.
func (m Model) visible() []petapi.Conversation {
	snap := m.eng.Snapshot()
	if !m.unreadOnly {
		return snap.Conversations
	}
	out := make([]petapi.Conversation, 0, len(snap.Conversations))
	for _, c := range snap.Conversations {
		if !c.Read {
			out = append(out, c)
		}
	}
	return out
}

// Update handles panel input and poll results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reconcileTickMsg:
		if msg.gen != m.eng.Generation() {
			// Stale chain from a previous panel instance.
			return m, nil
		}
		return m, tea.Batch(m.reconcile(), m.tick())

	case reconcileDoneMsg:
		if msg.gen != m.eng.Generation() {
			return m, nil
		}
		if msg.err != nil && !errors.Is(msg.err, engine.ErrStale) {
			return m.withFlash(flashText(msg.err), petapi.IsPermission(msg.err))
		}
		m.reconciled = true
		m.clampCursor()
		return m, nil

	case actionDoneMsg:
		if msg.gen != m.eng.Generation() {
			return m, nil
		}
		if msg.err != nil {
			switch {
			case errors.Is(msg.err, engine.ErrSummarizeInFlight),
				errors.Is(msg.err, engine.ErrBulkInFlight),
				errors.Is(msg.err, engine.ErrStale):
				return m, nil
			}
			return m.withFlash(flashText(msg.err), petapi.IsPermission(msg.err))
		}
		m.clampCursor()
		return m, nil

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
			m.flashPerm = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, keys.Interact):
		return m.interact()

	case key.Matches(msg, keys.MarkAllRead):
		return m, m.action(func(ctx context.Context) error {
			return m.eng.MarkAllRead(ctx)
		})

	case key.Matches(msg, keys.SummarizeAll):
		if m.eng.BulkInFlight() {
			return m, nil
		}
		return m, m.action(func(ctx context.Context) error {
			return m.eng.SummarizeAll(ctx)
		})

	case key.Matches(msg, keys.UnreadOnly):
		m.unreadOnly = !m.unreadOnly
		m.cursor = 0
		return m, nil

	case key.Matches(msg, keys.Close):
		m.bridge.ClosePanel()
		return m, nil
	}
	return m, nil
}

// interact applies the state machine to the selected conversation:
// unsummarized rows start a summarize, summarized rows toggle expansion.
// Any interaction on an unread row issues markRead, regardless of whether
// summarization itself succeeds.
func (m Model) interact() (tea.Model, tea.Cmd) {
	rows := m.visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return m, nil
	}
	conv := rows[m.cursor]

	switch rowState(conv, m.eng.Loading(conv.ID), m.expanded[conv.ID]) {
	case StateLoading:
		// Re-entrant interaction while a summarize is outstanding.
		return m, nil

	case StateCollapsedUnsummarized:
		id, wasUnread := conv.ID, !conv.Read
		return m, m.action(func(ctx context.Context) error {
			err := m.eng.Summarize(ctx, id)
			if err != nil && wasUnread &&
				!errors.Is(err, engine.ErrSummarizeInFlight) &&
				!errors.Is(err, engine.ErrStale) {
				// The interaction still implies read.
				_ = m.eng.MarkRead(ctx, id)
			}
			return err
		})

	case StateCollapsedSummarized:
		m.expanded[conv.ID] = true
		if !conv.Read {
			id := conv.ID
			return m, m.action(func(ctx context.Context) error {
				return m.eng.MarkRead(ctx, id)
			})
		}
		return m, nil

	case StateExpandedSummarized:
		delete(m.expanded, conv.ID)
		return m, nil
	}
	return m, nil
}

func (m Model) action(fn func(ctx context.Context) error) tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return actionDoneMsg{gen: gen, err: fn(ctx)}
	}
}

func (m Model) withFlash(text string, permission bool) (tea.Model, tea.Cmd) {
	m.flash = text
	m.flashPerm = permission
	m.flashSeq++
	seq := m.flashSeq
	return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{seq: seq}
	})
}

func flashText(err error) string {
	if petapi.IsPermission(err) {
		return "permission required - grant access in System Settings"
	}
	return "request failed - will keep showing the last known state"
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if n == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// UnreadOnly reports whether the unread filter is active.
func (m Model) UnreadOnly() bool { return m.unreadOnly }

// Expanded reports whether a conversation is expanded.
func (m Model) Expanded(id string) bool { return m.expanded[id] }

// Flash returns the transient error text, empty when none is showing.
func (m Model) Flash() string { return m.flash }

// View renders the fixed-size panel.
func (m Model) View() string {
	innerW := shell.PanelWidth - 2
	innerH := shell.PanelHeight - 2

	snap := m.eng.Snapshot()
	title := titleStyle.Render("Conversations")
	if snap.UnreadCount > 0 {
		title += dimStyle.Render(fmt.Sprintf("  %d unread", snap.UnreadCount))
	}
	if m.unreadOnly {
		title += dimStyle.Render("  [unread only]")
	}

	var body []string
	rows := m.visible()
	switch {
	case !m.reconciled && len(rows) == 0:
		body = []string{dimStyle.Render("loading...")}
	case len(rows) == 0:
		body = []string{dimStyle.Render("no conversations")}
	default:
		body = m.renderRows(rows, innerW, innerH-3)
	}

	footer := helpKey.Render("enter") + helpDesc.Render(" open ") +
		helpKey.Render("a") + helpDesc.Render(" read all ") +
		helpKey.Render("S") + helpDesc.Render(" sum all ") +
		helpKey.Render("u") + helpDesc.Render(" unread ") +
		helpKey.Render("esc") + helpDesc.Render(" close")

	statusLine := ""
	if m.flash != "" {
		style := errorStyle
		if m.flashPerm {
			style = permStyle
		}
		statusLine = style.Render(truncate(m.flash, innerW))
	}

	lines := make([]string, 0, innerH)
	lines = append(lines, truncate(title, innerW))
	lines = append(lines, body...)
	for len(lines) < innerH-2 {
		lines = append(lines, "")
	}
	lines = append(lines[:innerH-2], statusLine, truncate(footer, innerW))

	return borderStyle.Width(innerW).Height(innerH).Render(strings.Join(lines, "\n"))
}

// renderRows renders the visible window of conversation rows around the
// cursor, expanding the selected summaries in place.
func (m Model) renderRows(rows []petapi.Conversation, width, height int) []string {
	var out []string
	for i, conv := range rows {
		out = append(out, m.renderRow(i, conv, width)...)
	}
	// Scroll so the cursor's first line stays visible.
	if len(out) > height {
		start := 0
		lineAt := 0
		for i := 0; i < m.cursor && i < len(rows); i++ {
			lineAt += len(m.renderRow(i, rows[i], width))
		}
		if lineAt > height-1 {
			start = lineAt - (height - 1)
		}
		if start+height > len(out) {
			start = len(out) - height
		}
		out = out[start : start+height]
	}
	return out
}

func (m Model) renderRow(i int, conv petapi.Conversation, width int) []string {
	dot := readDot
	if !conv.Read {
		dot = unreadDot
	}
	marker := "  "
	if i == m.cursor {
		marker = cursorStyle.Render("> ")
	}

	state := rowState(conv, m.eng.Loading(conv.ID), m.expanded[conv.ID])
	head := marker + dot + " " + senderStyle.Render(conv.Sender)

	var lines []string
	switch state {
	case StateLoading:
		lines = append(lines, truncate(head+" "+loadingStyle.Render("summarizing..."), width))

	case StateCollapsedUnsummarized:
		snippet := lastMessage(conv)
		lines = append(lines, truncate(head+" "+dimStyle.Render(snippet), width))

	case StateCollapsedSummarized:
		lines = append(lines, truncate(head+" "+dimStyle.Render(conv.Summary.OneLiner), width))

	case StateExpandedSummarized:
		s := conv.Summary
		urgency := s.NormalizedUrgency()
		lines = append(lines, truncate(head+"  "+urgencyStyles[urgency].Render(urgency), width))
		lines = append(lines, truncate("    "+s.OneLiner, width))
		lines = append(lines, truncate("    "+dimStyle.Render("wants: ")+s.Intent, width))
		for _, r := range s.Requirements {
			lines = append(lines, truncate("    - "+r, width))
		}
		for _, a := range s.ActionItems {
			lines = append(lines, truncate("    → "+a, width))
		}
		lines = append(lines, truncate("    "+dimStyle.Render("sentiment: "+s.Sentiment), width))
	}
	return lines
}

func lastMessage(conv petapi.Conversation) string {
	if len(conv.Messages) == 0 {
		return "(no messages)"
	}
	return conv.Messages[len(conv.Messages)-1].Text
}

func truncate(s string, width int) string {
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
