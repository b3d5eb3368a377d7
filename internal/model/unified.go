package model

const (
	SourceLocal = "local"
	SourceWeb   = "web"
)

// UnifiedResult is the fusion-stage output: one schema covering both
// local hits and web results, scored in [0,1].
type UnifiedResult struct {
	Source   string                 `json:"source"`
	Title    string                 `json:"title"`
	Content  string                 `json:"content"`
	URL      string                 `json:"url,omitempty"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}
