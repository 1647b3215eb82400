package api

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query     string        `json:"query"`
	Hotel     string        `json:"hotel,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	History   []ChatMessage `json:"history,omitempty"`
	Stream    bool          `json:"stream,omitempty"`
}

// ChatMessage is one prior conversation turn supplied by the caller.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	Answer               string   `json:"answer"`
	SessionID            string   `json:"session_id"`
	Hotel                string   `json:"hotel,omitempty"`
	Category             string   `json:"category,omitempty"`
	EvidencePassed       bool     `json:"evidence_passed"`
	NeedsClarification   bool     `json:"needs_clarification"`
	ClarificationOptions []string `json:"clarification_options,omitempty"`
	Sources              []string `json:"sources,omitempty"`
	Score                float64  `json:"score"`
}

// HotelItem is one property in GET /hotels.
type HotelItem struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	LocationURL string `json:"location_url"`
}

// SessionResponse is returned by GET /sessions/:id.
type SessionResponse struct {
	SessionID      string `json:"session_id"`
	CurrentTopic   string `json:"current_topic,omitempty"`
	CurrentHotel   string `json:"current_hotel,omitempty"`
	TopicTurnCount int    `json:"topic_turn_count"`
	CachedChunks   int    `json:"cached_chunks"`
	LastActive     string `json:"last_active"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck is the probe result for one dependency.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
