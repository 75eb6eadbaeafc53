package domain

// UnknownDocID is the bucket for retrieved fragments whose metadata
// carries no document id. It ranks like any other document, but may
// aggregate unrelated fragments.
const UnknownDocID = "(unknown)"

// Fragment is the smallest retrievable unit of document text.
// Fragments are built once at index time and never mutated.
type Fragment struct {
	ID     int    `json:"id"`
	DocID  string `json:"doc_id"`
	Source string `json:"source,omitempty"`
	Text   string `json:"text"`
}

// RetrievedFragment pairs a fragment with its similarity score for one
// query. Higher scores are more relevant.
type RetrievedFragment struct {
	Fragment Fragment
	Score    float64
}

// DocumentRank aggregates the retrieved fragments of one document.
// Fragments are ordered by score descending.
type DocumentRank struct {
	DocID     string              `json:"doc_id"`
	Score     float64             `json:"score"`
	Fragments []RetrievedFragment `json:"-"`
}

// SearchResult is the output of a two-stage search: the bounded context
// for answer generation plus the intermediate ranking for diagnostics.
type SearchResult struct {
	Context      string              `json:"context"`
	ContextChars int                 `json:"context_chars"`
	Ranking      []DocumentRank      `json:"ranking"`
	Included     []RetrievedFragment `json:"-"`
}

// Question is one benchmark question with its reference answer.
type Question struct {
	Index    int    `json:"index"`
	Text     string `json:"question"`
	Expected string `json:"expected_answer"`
	Topic    string `json:"topic,omitempty"`
}

// Verdict values a judge may return.
const (
	VerdictCorrect      = "CORRECT"
	VerdictIncorrect    = "INCORRECT"
	VerdictNotAttempted = "NOT_ATTEMPTED"
)

// Judgment is the judge's assessment of a generated answer against the
// reference answer.
type Judgment struct {
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
}

// Usage reports token counts and latency for one model call.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	LatencyMs        float64 `json:"latency_ms"`
}
