package companion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeBadgeSource struct {
	count int
	err   error
	calls int
}

func (f *fakeBadgeSource) RefreshBadge(ctx context.Context) (int, error) {
	f.calls++
	return f.count, f.err
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestBadgeResultSetsMoodAndCount(t *testing.T) {
	m := New(&fakeBadgeSource{}, nil, time.Second, time.Second)

	m = update(t, m, badgeMsg{count: 3})
	if m.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", m.Count())
	}
	if m.Mood() != MoodExcited {
		t.Fatalf("Mood() = %v, want excited", m.Mood())
	}
	if !m.Bouncing() {
		t.Fatalf("counter change did not start the bounce")
	}
}

func TestBadgeErrorKeepsLastCount(t *testing.T) {
	m := New(&fakeBadgeSource{}, nil, time.Second, time.Second)
	m = update(t, m, badgeMsg{count: 2})

	m = update(t, m, badgeMsg{err: errors.New("store down")})
	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want last known 2", m.Count())
	}
	if !strings.Contains(m.View(), "offline") {
		t.Fatalf("offline state not rendered")
	}

	// Recovery clears the offline marker.
	m = update(t, m, badgeMsg{count: 2})
	if strings.Contains(m.View(), "offline") {
		t.Fatalf("offline marker stuck after recovery")
	}
}

func TestBounceIsBounded(t *testing.T) {
	m := New(&fakeBadgeSource{}, nil, time.Second, time.Second)
	m = update(t, m, badgeMsg{count: 1})
	if !m.Bouncing() {
		t.Fatalf("bounce did not start")
	}

	for i := 0; i < bounceFrames; i++ {
		m = update(t, m, bounceMsg(0))
	}
	if m.Bouncing() {
		t.Fatalf("bounce still running after %d frames", bounceFrames)
	}
}

func TestUnchangedCountDoesNotRestartBounce(t *testing.T) {
	m := New(&fakeBadgeSource{}, nil, time.Second, time.Second)
	m = update(t, m, badgeMsg{count: 1})

	for i := 0; i < bounceFrames; i++ {
		m = update(t, m, bounceMsg(0))
	}

	m = update(t, m, badgeMsg{count: 1})
	if m.Bouncing() {
		t.Fatalf("unchanged counter restarted the bounce")
	}
}

func TestBadgeCaps(t *testing.T) {
	if got := formatBadge(7); got != "7" {
		t.Fatalf("formatBadge(7) = %q", got)
	}
	if got := formatBadge(250); got != "99+" {
		t.Fatalf("formatBadge(250) = %q", got)
	}
}
