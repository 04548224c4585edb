package devserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jay-tech456/TamaBotchi/internal/petapi"
)

// Server serves the agent's pet API over an in-memory store.
type Server struct {
	store  *Store
	logger *slog.Logger
}

// New creates a server around the given store.
func New(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, logger: logger}
}

// Seed loads a few conversations so the overlay has something to show.
func (s *Server) Seed() {
	s.store.LogMessage("Alice", "Hey, are you free this weekend?")
	s.store.LogMessage("Alice", "I need a hand moving on Saturday, can you help?")
	s.store.LogMessage("Bob", "The deploy is broken, this is urgent!")
	s.store.LogMessage("Carol", "Thanks for the docs, they were great")
	s.store.MarkRead(s.store.LogMessage("Carol", "No rush on the follow-up"))
}

// Handler returns the HTTP routes. The result is usable directly with
// httptest.NewServer.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Route("/pet", func(r chi.Router) {
		r.Get("/conversations", s.handleConversations)
		r.Get("/conversations/unread", s.handleUnread)
		r.Get("/conversations/unread/count", s.handleUnreadCount)
		r.Post("/conversations/{id}/read", s.handleMarkRead)
		r.Post("/conversations/read-all", s.handleMarkAllRead)
		r.Post("/conversations/{id}/summarize", s.handleSummarize)
		r.Post("/summarize-all", s.handleSummarizeAll)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, petapi.HealthResponse{
		Status:   "healthy",
		Services: map[string]bool{"store": true},
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, petapi.ConversationsResponse{
		Conversations: s.store.Conversations(),
		UnreadCount:   s.store.UnreadCount(),
	})
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request) {
	unread := s.store.Unread()
	writeJSON(w, http.StatusOK, petapi.ConversationsResponse{
		Conversations: unread,
		UnreadCount:   len(unread),
	})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, petapi.UnreadCountResponse{
		UnreadCount: s.store.UnreadCount(),
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.MarkRead(id) {
		writeJSON(w, http.StatusOK, petapi.AckResponse{
			Success: false,
			Error:   "conversation not found: " + id,
		})
		return
	}
	writeJSON(w, http.StatusOK, petapi.AckResponse{Success: true})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.store.MarkAllRead()
	writeJSON(w, http.StatusOK, petapi.AckResponse{Success: true})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, ok := s.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, petapi.AckResponse{
			Success: false,
			Error:   "conversation not found: " + id,
		})
		return
	}
	summary, _ := s.store.SetSummary(id, summarize(conv))
	writeJSON(w, http.StatusOK, petapi.SummarizeResponse{Summary: &summary})
}

// handleSummarizeAll summarizes every conversation that does not already
// have a summary; already-summarized ones are skipped, not recomputed.
func (s *Server) handleSummarizeAll(w http.ResponseWriter, r *http.Request) {
	summaries := make(map[string]petapi.Summary)
	for _, id := range s.store.Unsummarized() {
		conv, ok := s.store.Get(id)
		if !ok {
			continue
		}
		summary, ok := s.store.SetSummary(id, summarize(conv))
		if ok {
			summaries[id] = summary
		}
	}
	writeJSON(w, http.StatusOK, petapi.SummarizeAllResponse{
		Summaries: summaries,
		Count:     len(summaries),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
