package petapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConversationsDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pet/conversations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"conversations": [{
				"conversation_id": "c1",
				"sender": "Alice",
				"last_activity": 123.5,
				"messages": [{"from": "Alice", "text": "hi", "timestamp": 123.5}],
				"read": false,
				"summary": null
			}],
			"unread_count": 1
		}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	resp, err := client.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(resp.Conversations) != 1 {
		t.Fatalf("len = %d, want 1", len(resp.Conversations))
	}
	c := resp.Conversations[0]
	if c.ID != "c1" || c.Sender != "Alice" || c.Read || c.Summary != nil {
		t.Fatalf("conversation = %+v", c)
	}
	if resp.UnreadCount != 1 {
		t.Fatalf("UnreadCount = %d, want 1", resp.UnreadCount)
	}
}

func TestHTTPErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Conversations(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestMarkReadPermissionRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error": "Full Disk Access required", "permission_required": true}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.MarkRead(context.Background(), "c1")
	if !IsPermission(err) {
		t.Fatalf("IsPermission(%v) = false", err)
	}
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("error = %v, want *PermissionError", err)
	}
}

func TestMarkReadAckFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error": "conversation not found"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.MarkRead(context.Background(), "missing")
	if err == nil {
		t.Fatalf("MarkRead() expected error")
	}
	if IsPermission(err) {
		t.Fatalf("plain failure reported as permission error")
	}
}

func TestSummarizeRejectsMissingSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"summary": null}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	if _, err := client.Summarize(context.Background(), "c1"); err == nil {
		t.Fatalf("Summarize() expected error for missing summary")
	}
}

func TestUnreadCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pet/conversations/unread/count" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"unread_count": 4}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	count, err := client.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "healthy", "services": {"imessage": true}}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if !health.Healthy() {
		t.Fatalf("Healthy() = false")
	}
}

func TestNormalizedUrgency(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"high", UrgencyHigh},
		{"medium", UrgencyMedium},
		{"low", UrgencyLow},
		{"", UrgencyUnknown},
		{"CRITICAL", UrgencyUnknown},
	}
	for _, tc := range cases {
		s := &Summary{Urgency: tc.in}
		if got := s.NormalizedUrgency(); got != tc.want {
			t.Errorf("NormalizedUrgency(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
