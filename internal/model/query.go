package model

// QueryHit is one similarity match returned by the query pipeline.
// Score is the raw vector store distance, surfaced without
// normalization; fusion rescores it when blending with web results.
type QueryHit struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	Meta     map[string]interface{} `json:"meta"`
	Path     string                 `json:"path,omitempty"`
	ChunkIdx int                    `json:"chunk_id,omitempty"`
	FileType string                 `json:"file_type,omitempty"`
}
