// Package engine maintains the local mirror of the remote conversation
// store and serializes user-triggered mutations against the poll cycle.
//
// The mirror is a single snapshot replaced wholesale on every reconcile,
// never mutated field by field, so readers can never observe a half-updated
// collection. Mutation helpers await the remote acknowledgement and then run
// one immediate reconcile, which guarantees the mirror reflects the action
// within one round trip instead of waiting for the next timer tick.
package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Jay-tech456/TamaBotchi/internal/petapi"
)

// ErrSummarizeInFlight is returned when a summarize is requested for a
// conversation that already has one outstanding. Duplicate concurrent
// summarize calls from a single surface are suppressed, not queued.
var ErrSummarizeInFlight = errors.New("summarize already in flight")

// ErrBulkInFlight is returned when summarize-all is requested while a
// previous summarize-all has not resolved yet.
var ErrBulkInFlight = errors.New("summarize-all already in flight")

// ErrStale reports that a result arrived after the owning view was torn
// down and was discarded rather than applied.
var ErrStale = errors.New("engine generation changed, result discarded")

// storeAPI is the slice of the petapi client the engine depends on.
type storeAPI interface {
	Conversations(ctx context.Context) (*petapi.ConversationsResponse, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Summarize(ctx context.Context, id string) (*petapi.Summary, error)
	SummarizeAll(ctx context.Context) (*petapi.SummarizeAllResponse, error)
	Health(ctx context.Context) (*petapi.HealthResponse, error)
}

// Snapshot is an immutable view of the mirror. Conversations is sorted by
// last activity, newest first. UnreadCount is always the value last
// reported by the store, never recomputed from the local read flags.
type Snapshot struct {
	Conversations []petapi.Conversation
	UnreadCount   int
	UpdatedAt     time.Time
}

// Engine owns the mirror and the per-conversation loading flags. Snapshot
// readers are passive observers; all state transitions happen here.
type Engine struct {
	store storeAPI

	mu      sync.RWMutex
	snap    Snapshot
	loading map[string]bool
	bulk    bool
	gen     int
}

// New creates an engine backed by the given store client.
func New(store storeAPI) *Engine {
	return &Engine{
		store:   store,
		loading: make(map[string]bool),
	}
}

// Snapshot returns the current mirror snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Loading reports whether a summarize call is outstanding for id.
func (e *Engine) Loading(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading[id]
}

// BulkInFlight reports whether a summarize-all is outstanding.
func (e *Engine) BulkInFlight() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bulk
}

// Generation returns the current liveness generation.
func (e *Engine) Generation() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gen
}

// Detach invalidates in-flight results and clears transient UI state. The
// panel calls this on unmount so results that complete afterwards cannot
// resurrect state for a closed view. There is no request cancellation; late
// results are simply discarded at the generation check.
func (e *Engine) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.loading = make(map[string]bool)
	e.bulk = false
}

// Reconcile fetches the complete collection and atomically replaces the
// mirror. Safe to call from any goroutine; last writer wins.
func (e *Engine) Reconcile(ctx context.Context) error {
	gen := e.Generation()

	resp, err := e.store.Conversations(ctx)
	if err != nil {
		return err
	}
	return e.apply(gen, resp)
}

func (e *Engine) apply(gen int, resp *petapi.ConversationsResponse) error {
	sorted := sortConversations(resp.Conversations)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return ErrStale
	}
	e.snap = Snapshot{
		Conversations: sorted,
		UnreadCount:   resp.UnreadCount,
		UpdatedAt:     time.Now(),
	}
	return nil
}

// RefreshBadge fetches only the unread counter and returns it. The badge
// poll runs for the life of the companion, independent of the panel, so it
// is not subject to the generation check.
func (e *Engine) RefreshBadge(ctx context.Context) (int, error) {
	count, err := e.store.UnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	e.snap.UnreadCount = count
	e.mu.Unlock()
	return count, nil
}

// MarkRead marks one conversation read at the store, then reconciles.
func (e *Engine) MarkRead(ctx context.Context, id string) error {
	if err := e.store.MarkRead(ctx, id); err != nil {
		return err
	}
	return e.Reconcile(ctx)
}

// MarkAllRead marks every conversation read at the store, then reconciles.
func (e *Engine) MarkAllRead(ctx context.Context) error {
	if err := e.store.MarkAllRead(ctx); err != nil {
		return err
	}
	return e.Reconcile(ctx)
}

// Summarize runs the summarize protocol for one conversation. A second
// invocation for the same id while one is outstanding returns
// ErrSummarizeInFlight. On success the summary is merged into the mirror
// entry and the conversation is marked read (with the follow-up reconcile).
// On failure the conversation's summary is left untouched, never partially
// written.
func (e *Engine) Summarize(ctx context.Context, id string) error {
	e.mu.Lock()
	if e.loading[id] {
		e.mu.Unlock()
		return ErrSummarizeInFlight
	}
	e.loading[id] = true
	gen := e.gen
	e.mu.Unlock()

	summary, err := e.store.Summarize(ctx, id)

	e.mu.Lock()
	delete(e.loading, id)
	stale := gen != e.gen
	if err == nil && !stale {
		e.mergeSummaryLocked(id, summary)
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	if stale {
		return ErrStale
	}

	// Summarize success implies read.
	return e.MarkRead(ctx, id)
}

// mergeSummaryLocked swaps in a fresh conversation slice with the summary
// set on the matching entry. Callers hold e.mu.
func (e *Engine) mergeSummaryLocked(id string, summary *petapi.Summary) {
	merged := make([]petapi.Conversation, len(e.snap.Conversations))
	copy(merged, e.snap.Conversations)
	for i := range merged {
		if merged[i].ID == id {
			merged[i].Summary = summary
			break
		}
	}
	e.snap.Conversations = merged
}

// SummarizeAll requests summaries for every conversation lacking one, as a
// single outstanding bulk operation, then reconciles regardless of partial
// per-conversation failures reported by the store.
func (e *Engine) SummarizeAll(ctx context.Context) error {
	e.mu.Lock()
	if e.bulk {
		e.mu.Unlock()
		return ErrBulkInFlight
	}
	e.bulk = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.bulk = false
		e.mu.Unlock()
	}()

	_, bulkErr := e.store.SummarizeAll(ctx)
	if err := e.Reconcile(ctx); err != nil && bulkErr == nil {
		bulkErr = err
	}
	return bulkErr
}

// CheckHealth probes the store. Returns false on any failure; the shell
// renders an offline indicator instead of surfacing the error.
func (e *Engine) CheckHealth(ctx context.Context) bool {
	resp, err := e.store.Health(ctx)
	if err != nil {
		return false
	}
	return resp.Healthy()
}

// sortConversations returns a fresh slice sorted by last activity
// descending with duplicate identifiers dropped (first wins).
func sortConversations(convos []petapi.Conversation) []petapi.Conversation {
	out := make([]petapi.Conversation, 0, len(convos))
	seen := make(map[string]struct{}, len(convos))
	for _, c := range convos {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity > out[j].LastActivity
	})
	return out
}
