package domain

// SearchOptions configures a hybrid search query.
type SearchOptions struct {
	// TopK is the maximum number of results to return.
	TopK int

	// Threshold drops results scoring below this value (0 disables).
	Threshold float64

	// Rerank enables the second-pass semantic rerank of candidates.
	Rerank bool
}

// QueryResult is a single ranked hit. It is ephemeral: produced per
// query, never persisted.
type QueryResult struct {
	// Text is the matched chunk text.
	Text string `json:"text"`

	// Source is the originating document of the chunk.
	Source string `json:"source"`

	// Score is the blended similarity in [0,1], higher is more
	// relevant. Result slices are sorted descending by Score with ties
	// kept in original vector-store rank order.
	Score float64 `json:"score"`
}

// Answer is the result of a retrieval-augmented LLM question.
type Answer struct {
	// Query is the original question.
	Query string `json:"query"`

	// Text is the generated answer.
	Text string `json:"answer"`

	// Model is the completion model that produced the answer.
	Model string `json:"model"`

	// Context is the retrieved result set handed to the model.
	Context []QueryResult `json:"context,omitempty"`
}
