package domain

// Exercise is a seeded lucid-dreaming training exercise.
type Exercise struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	SourcePages []int    `json:"source_pages,omitempty"`
	Lines       []string `json:"lines"`
}
