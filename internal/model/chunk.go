package model

import "strconv"

// Chunk is one overlapping character window of a file's extracted text.
// Offsets are rune positions within the extracted text. Chunks are
// transient; only their embeddings and metadata reach the vector store.
type Chunk struct {
	File      *FileRecord `json:"file"`
	Index     int         `json:"chunk_idx"`
	CharStart int         `json:"char_start"`
	CharEnd   int         `json:"char_end"`
	Text      string      `json:"text"`
}

// VectorID returns the stable vector store identifier for the chunk.
// It is a pure function of content fingerprint and chunk position, so
// re-embedding unchanged content upserts onto the same ids.
func (c *Chunk) VectorID() string {
	return c.File.SHA256 + ":" + strconv.Itoa(c.Index)
}
