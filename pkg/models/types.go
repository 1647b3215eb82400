// Package models defines the shared data types that flow through the
// question-answering pipeline: retrieved chunks, conversation messages,
// entity-resolution outcomes, and grounding results.
package models

// Message roles in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chunk is one retrievable text unit with its metadata.
// Score is always the retrieval similarity (1 - distance). When the reranker
// runs it stores its own scores in the Rerank* fields and restores Score to
// the original similarity afterwards, so downstream components can keep
// interpreting Score uniformly.
type Chunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocID      string  `json:"doc_id"`
	Hotel      string  `json:"hotel"`
	HotelName  string  `json:"hotel_name"`
	PageType   string  `json:"page_type"`
	URL        string  `json:"url"`
	Category   string  `json:"category"`
	Language   string  `json:"language"`
	UpdatedAt  string  `json:"updated_at"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`

	RerankScore   *float64 `json:"rerank_score,omitempty"`
	RerankRaw     *float64 `json:"rerank_raw,omitempty"`
	OriginalScore *float64 `json:"original_score,omitempty"`
}

// Rerank quality markers attached to a retrieval pass.
const (
	RerankOK      = "ok"
	RerankPoor    = "poor"
	RerankSkipped = "skipped"
)

// Entity-resolution actions.
const (
	EntityProceed  = "proceed"
	EntityRedirect = "redirect"
	EntityClarify  = "clarify"
)

// RestaurantMatch pairs a restaurant with the hotel that operates it.
type RestaurantMatch struct {
	Restaurant string `json:"restaurant"`
	Hotel      string `json:"hotel"`
}

// RestaurantEntity is the outcome of resolving a restaurant name in a query
// against the alias index.
type RestaurantEntity struct {
	Action         string            `json:"action"`
	MatchedAlias   string            `json:"matched_alias,omitempty"`
	Matches        []RestaurantMatch `json:"matches,omitempty"`
	RedirectHotel  string            `json:"redirect_hotel,omitempty"`
	Message        string            `json:"message,omitempty"`
	ClarifyOptions []string          `json:"clarify_options,omitempty"`
}

// Grounding confidence levels.
const (
	ConfidenceCertain    = "certain"
	ConfidenceUncertain  = "uncertain"
	ConfidenceUngrounded = "ungrounded"
)

// Claim is a single sentence-level assertion extracted from a generated
// answer, with the evidence found for it.
type Claim struct {
	Text            string  `json:"text"`
	EvidenceSpan    string  `json:"evidence_span,omitempty"`
	EvidenceScore   float64 `json:"evidence_score"`
	IsGrounded      bool    `json:"is_grounded"`
	HasNumeric      bool    `json:"has_numeric"`
	NumericVerified bool    `json:"numeric_verified"`
}

// GroundingResult is the aggregate outcome of claim-level verification.
type GroundingResult struct {
	Passed         bool    `json:"passed"`
	VerifiedClaims []Claim `json:"verified_claims,omitempty"`
	RejectedClaims []Claim `json:"rejected_claims,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	Confidence     string  `json:"confidence"`
}
