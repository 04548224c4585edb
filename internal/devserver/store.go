// Package devserver is an in-memory conversation store with the same HTTP
// surface as the production agent, used for local development and tests.
package devserver

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Jay-tech456/TamaBotchi/internal/petapi"
)

// Store holds conversations in memory. All methods are safe for concurrent
// use by HTTP handlers.
type Store struct {
	mu    sync.Mutex
	convs map[string]*petapi.Conversation
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		convs: make(map[string]*petapi.Conversation),
		now:   time.Now,
	}
}

// LogMessage appends a message to the sender's open conversation, creating
// one if none exists. New activity always flips the conversation back to
// unread.
func (s *Store) LogMessage(sender, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := float64(s.now().UnixNano()) / float64(time.Second)
	var conv *petapi.Conversation
	for _, c := range s.convs {
		if c.Sender == sender {
			conv = c
			break
		}
	}
	if conv == nil {
		conv = &petapi.Conversation{
			ID:        uuid.NewString(),
			Sender:    sender,
			StartedAt: ts,
		}
		s.convs[conv.ID] = conv
	}
	conv.Messages = append(conv.Messages, petapi.Message{
		From:      sender,
		Text:      text,
		Timestamp: ts,
	})
	conv.LastActivity = ts
	conv.Read = false
	return conv.ID
}

// Conversations returns every conversation, newest activity first.
func (s *Store) Conversations() []petapi.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(func(*petapi.Conversation) bool { return true })
}

// Unread returns the unread conversations, newest activity first.
func (s *Store) Unread() []petapi.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(func(c *petapi.Conversation) bool { return !c.Read })
}

// UnreadCount returns the number of unread conversations.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.convs {
		if !c.Read {
			n++
		}
	}
	return n
}

// MarkRead marks one conversation read. It reports false when the id is
// unknown.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return false
	}
	c.Read = true
	return true
}

// MarkAllRead marks every conversation read and returns how many flipped.
func (s *Store) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.convs {
		if !c.Read {
			c.Read = true
			n++
		}
	}
	return n
}

// Get returns a copy of one conversation.
func (s *Store) Get(id string) (petapi.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return petapi.Conversation{}, false
	}
	return copyConversation(c), true
}

// SetSummary records a summary. The first summary wins; later calls return
// the existing one so a conversation is never re-summarized.
func (s *Store) SetSummary(id string, summary petapi.Summary) (petapi.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return petapi.Summary{}, false
	}
	if c.Summary != nil {
		return *c.Summary, true
	}
	sc := summary
	c.Summary = &sc
	return sc, true
}

// Unsummarized returns ids of conversations without a summary.
func (s *Store) Unsummarized() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, c := range s.convs {
		if c.Summary == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) snapshotLocked(keep func(*petapi.Conversation) bool) []petapi.Conversation {
	out := make([]petapi.Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		if keep(c) {
			out = append(out, copyConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity > out[j].LastActivity
	})
	return out
}

func copyConversation(c *petapi.Conversation) petapi.Conversation {
	cp := *c
	cp.Messages = append([]petapi.Message(nil), c.Messages...)
	if c.Summary != nil {
		sc := *c.Summary
		cp.Summary = &sc
	}
	return cp
}
