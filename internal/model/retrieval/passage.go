package retrieval

// Passage is one retrieved piece of supporting context. Passages are
// ephemeral: they exist only within a single retrieval call and are never
// persisted.
type Passage struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}
