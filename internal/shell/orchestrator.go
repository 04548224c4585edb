package shell

import tea "github.com/charmbracelet/bubbletea"

// Kind identifies an overlay window.
type Kind int

const (
	KindCompanion Kind = iota
	KindPanel
)

func (k Kind) String() string {
	if k == KindCompanion {
		return "companion"
	}
	return "panel"
}

// Fixed overlay dimensions. Neither surface is user-resizable.
const (
	CompanionWidth  = 14
	CompanionHeight = 7
	PanelWidth      = 52
	PanelHeight     = 20

	// marginX/marginY keep the overlays off the very edge of the work
	// area; panelGap separates the panel from the companion so the two
	// never overlap.
	marginX  = 2
	marginY  = 1
	panelGap = 2
)

// Window is a live overlay surface: its kind, its fixed size, and the
// model rendering its content. At most one live window exists per kind.
type Window struct {
	Kind    Kind
	Width   int
	Height  int
	Content tea.Model
}

// Registry tracks the process's overlay windows. All access happens on the
// single host event loop; run-to-completion dispatch makes check-then-create
// race-free without a lock.
type Registry struct {
	slots map[Kind]*Window
}

// NewRegistry creates an empty window registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[Kind]*Window)}
}

// Companion returns the companion window, or nil if absent.
func (r *Registry) Companion() *Window { return r.slots[KindCompanion] }

// Panel returns the panel window, or nil if absent.
func (r *Registry) Panel() *Window { return r.slots[KindPanel] }

// EnsureCompanion creates the companion window if absent. Repeated calls
// are no-ops; the companion persists until process exit.
func (r *Registry) EnsureCompanion(newContent func() tea.Model) *Window {
	if w := r.slots[KindCompanion]; w != nil {
		return w
	}
	w := &Window{
		Kind:    KindCompanion,
		Width:   CompanionWidth,
		Height:  CompanionHeight,
		Content: newContent(),
	}
	r.slots[KindCompanion] = w
	return w
}

// OpenOrFocusPanel creates the panel window if absent, or leaves the
// existing one in place (bring-to-front is implicit: overlays always render
// above the work area). The second return reports whether a window was
// created.
func (r *Registry) OpenOrFocusPanel(newContent func() tea.Model) (*Window, bool) {
	if w := r.slots[KindPanel]; w != nil {
		return w, false
	}
	w := &Window{
		Kind:    KindPanel,
		Width:   PanelWidth,
		Height:  PanelHeight,
		Content: newContent(),
	}
	r.slots[KindPanel] = w
	return w, true
}

// ClosePanel destroys the panel window and clears its handle. Returns
// false if the panel was already absent.
func (r *Registry) ClosePanel() bool {
	if r.slots[KindPanel] == nil {
		return false
	}
	delete(r.slots, KindPanel)
	return true
}

// TogglePanel closes the panel if present, else opens it. A pure function
// of current handle state. Returns true if the panel is open afterwards.
func (r *Registry) TogglePanel(newContent func() tea.Model) bool {
	if r.slots[KindPanel] != nil {
		r.ClosePanel()
		return false
	}
	r.OpenOrFocusPanel(newContent)
	return true
}

// Rect is a window's computed placement within the work area.
type Rect struct {
	X, Y, W, H int
}

// CompanionRect anchors the companion to the bottom-right corner of the
// work area.
func CompanionRect(termW, termH int) Rect {
	return Rect{
		X: termW - CompanionWidth - marginX,
		Y: termH - CompanionHeight - marginY,
		W: CompanionWidth,
		H: CompanionHeight,
	}
}

// PanelRect anchors the panel bottom-right, offset left of the companion
// so the two surfaces never overlap.
func PanelRect(termW, termH int) Rect {
	return Rect{
		X: termW - CompanionWidth - marginX - panelGap - PanelWidth,
		Y: termH - PanelHeight - marginY,
		W: PanelWidth,
		H: PanelHeight,
	}
}
