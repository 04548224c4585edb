package shell

import tea "github.com/charmbracelet/bubbletea"

// Command is one of the three window intents the UI side may issue. No
// payload, no acknowledgement.
type Command int

const (
	CommandOpenPanel Command = iota
	CommandClosePanel
	CommandTogglePanel
)

func (c Command) String() string {
	switch c {
	case CommandOpenPanel:
		return "open-panel"
	case CommandClosePanel:
		return "close-panel"
	case CommandTogglePanel:
		return "toggle-panel"
	default:
		return "unknown"
	}
}

// CommandMsg is a command delivered to the host loop.
type CommandMsg struct {
	Command Command
}

// Bridge is the one-directional command channel from the UI side to the
// host loop. Views hold it as an optional capability: every method is a
// no-op on a nil bridge, so code running without a hosting shell never
// panics.
type Bridge struct {
	ch chan Command
}

// NewBridge creates a command bridge. The buffer absorbs bursts of rapid
// user interaction; the host drains it every tick, so delivery is
// at-least-once within the process lifetime.
func NewBridge() *Bridge {
	return &Bridge{ch: make(chan Command, 16)}
}

// OpenPanel requests the panel be created or focused.
func (b *Bridge) OpenPanel() { b.send(CommandOpenPanel) }

// ClosePanel requests the panel be destroyed.
func (b *Bridge) ClosePanel() { b.send(CommandClosePanel) }

// TogglePanel requests the panel be toggled.
func (b *Bridge) TogglePanel() { b.send(CommandTogglePanel) }

func (b *Bridge) send(c Command) {
	if b == nil {
		return
	}
	b.ch <- c
}

// Await returns a command that blocks until the next UI command arrives and
// delivers it to the host loop as a CommandMsg. The host re-arms it after
// every delivery.
func (b *Bridge) Await() tea.Cmd {
	if b == nil {
		return nil
	}
	return func() tea.Msg {
		return CommandMsg{Command: <-b.ch}
	}
}
