package shell

import (
	"context"
	"testing"
)

type stubEngine struct {
	healthy  bool
	detached int
}

func (s *stubEngine) CheckHealth(ctx context.Context) bool { return s.healthy }
func (s *stubEngine) Detach()                              { s.detached++ }

func newTestShell(openPanel bool) (Model, *stubEngine) {
	eng := &stubEngine{healthy: true}
	m := New(Config{
		Bridge:       NewBridge(),
		Engine:       eng,
		NewCompanion: newStub,
		NewPanel:     newStub,
		OpenPanel:    openPanel,
	})
	return m, eng
}

func applyCmd(t *testing.T, m Model, c Command) Model {
	t.Helper()
	next, _ := m.Update(CommandMsg{Command: c})
	return next.(Model)
}

func TestCompanionAlwaysMounted(t *testing.T) {
	m, _ := newTestShell(false)
	if m.registry.Companion() == nil {
		t.Fatalf("companion absent after New")
	}
	if m.PanelOpen() {
		t.Fatalf("panel open without request")
	}
}

func TestStartupViewPanel(t *testing.T) {
	m, _ := newTestShell(true)
	if !m.PanelOpen() {
		t.Fatalf("panel closed despite panel startup view")
	}
}

func TestOpenPanelCommand(t *testing.T) {
	m, _ := newTestShell(false)
	m = applyCmd(t, m, CommandOpenPanel)
	if !m.PanelOpen() {
		t.Fatalf("panel closed after open command")
	}
	// Duplicate open is a no-op.
	m = applyCmd(t, m, CommandOpenPanel)
	if !m.PanelOpen() {
		t.Fatalf("duplicate open closed the panel")
	}
}

func TestClosePanelDetachesEngine(t *testing.T) {
	m, eng := newTestShell(true)
	m = applyCmd(t, m, CommandClosePanel)
	if m.PanelOpen() {
		t.Fatalf("panel open after close command")
	}
	if eng.detached != 1 {
		t.Fatalf("Detach calls = %d, want 1", eng.detached)
	}

	// Closing an absent panel must not detach again.
	m = applyCmd(t, m, CommandClosePanel)
	if eng.detached != 1 {
		t.Fatalf("duplicate close detached the engine")
	}
	_ = m
}

func TestTogglePanelCommand(t *testing.T) {
	m, eng := newTestShell(false)
	m = applyCmd(t, m, CommandTogglePanel)
	if !m.PanelOpen() {
		t.Fatalf("toggle did not open the panel")
	}
	m = applyCmd(t, m, CommandTogglePanel)
	if m.PanelOpen() {
		t.Fatalf("toggle did not close the panel")
	}
	if eng.detached != 1 {
		t.Fatalf("Detach calls = %d, want 1", eng.detached)
	}
}

func TestHealthProbeUpdatesIndicator(t *testing.T) {
	m, eng := newTestShell(false)
	eng.healthy = false

	next, _ := m.Update(healthMsg{ok: false})
	m = next.(Model)
	if m.Healthy() {
		t.Fatalf("indicator still healthy after failed probe")
	}

	next, _ = m.Update(healthMsg{ok: true})
	m = next.(Model)
	if !m.Healthy() {
		t.Fatalf("indicator stuck unhealthy after recovery")
	}
}
