// Package index implements the six stage indexing pipeline: discover,
// diff, parse+chunk, embed, upsert, commit. One RunState record is
// threaded through the stages; each stage fills only its own fields.
package index

import "localagent/internal/model"

// Mode selects how the change detector treats discovered files.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// Request describes one indexing run.
type Request struct {
	Roots        []string
	Mode         Mode
	ForceReembed bool
	Model        string
}

// RunState accumulates the output of every stage. Stats holds per stage
// counters (discovered, changed, chunks, upserted) and Errors collects
// soft per-file failures that did not abort the run.
type RunState struct {
	Files      []*model.FileRecord
	Changed    []*model.FileRecord
	Chunks     []*model.Chunk
	Embeddings [][]float32
	Stats      map[string]int
	Errors     []string
}

func newRunState() *RunState {
	return &RunState{Stats: make(map[string]int)}
}
