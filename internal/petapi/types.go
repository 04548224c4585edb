package petapi

// Urgency levels a summary can carry. Anything else renders as unknown.
const (
	UrgencyHigh    = "high"
	UrgencyMedium  = "medium"
	UrgencyLow     = "low"
	UrgencyUnknown = "unknown"
)

// Message is a single message within a conversation. Immutable once observed.
type Message struct {
	From      string  `json:"from"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// Summary is the structured summary of a conversation. It is set exactly
// once per successful summarize call and is never partially populated.
type Summary struct {
	Who          string   `json:"who"`
	Intent       string   `json:"intent"`
	Requirements []string `json:"requirements"`
	Urgency      string   `json:"urgency"`
	Sentiment    string   `json:"sentiment"`
	ActionItems  []string `json:"action_items"`
	OneLiner     string   `json:"one_liner"`
}

// NormalizedUrgency maps the summary's urgency onto the known levels,
// returning UrgencyUnknown for anything the server invented.
func (s *Summary) NormalizedUrgency() string {
	switch s.Urgency {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return s.Urgency
	default:
		return UrgencyUnknown
	}
}

// Conversation is one tracked conversation as reported by the store.
// The remote store is the source of truth; local copies are replaced
// wholesale on every poll.
type Conversation struct {
	ID           string    `json:"conversation_id"`
	Sender       string    `json:"sender"`
	StartedAt    float64   `json:"started_at"`
	LastActivity float64   `json:"last_activity"`
	Messages     []Message `json:"messages"`
	Read         bool      `json:"read"`
	Summary      *Summary  `json:"summary"`
}

// ConversationsResponse is the response from GET /pet/conversations and
// GET /pet/conversations/unread.
type ConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	UnreadCount   int            `json:"unread_count"`
}

// UnreadCountResponse is the response from GET /pet/conversations/unread/count.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// AckResponse is the acknowledgement returned by the mutation endpoints.
// PermissionRequired distinguishes remote permission/domain denials from
// plain failures; it is reported in-band rather than as an HTTP error.
type AckResponse struct {
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	PermissionRequired bool   `json:"permission_required,omitempty"`
}

// SummarizeResponse is the response from POST /pet/conversations/{id}/summarize.
type SummarizeResponse struct {
	Summary *Summary `json:"summary"`
}

// SummarizeAllResponse is the response from POST /pet/summarize-all.
type SummarizeAllResponse struct {
	Summaries map[string]Summary `json:"summaries"`
	Count     int                `json:"count"`
}

// HealthResponse is the response from GET /health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services,omitempty"`
}

// Healthy reports whether the store considers itself fully operational.
func (h *HealthResponse) Healthy() bool {
	return h.Status == "healthy"
}
