package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"localagent/internal/ai"
	"localagent/internal/chunker"
	"localagent/internal/model"
	"localagent/internal/reader"
	"localagent/internal/vectorstore"
)

const defaultEmbedBatchSize = 64

// FingerprintTable is the durable record of committed file states,
// keyed by path. Only the commit stage writes to it.
type FingerprintTable interface {
	LookupAll(ctx context.Context) (map[string]string, error)
	UpsertRecord(ctx context.Context, file *model.FileRecord) error
}

// TextExtractor turns a file path into plain text. It must return an
// empty string instead of failing on unsupported or corrupt input.
type TextExtractor func(path string) string

// Pipeline runs the full indexing flow over configured roots.
type Pipeline struct {
	table          FingerprintTable
	extract        TextExtractor
	embedder       ai.IEmbedder
	store          vectorstore.Store
	targetTokens   int
	overlapTokens  int
	embedBatchSize int
}

type Option func(*Pipeline)

func WithChunking(targetTokens, overlapTokens int) Option {
	return func(p *Pipeline) {
		p.targetTokens = targetTokens
		p.overlapTokens = overlapTokens
	}
}

func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.embedBatchSize = size
		}
	}
}

func WithTextExtractor(extract TextExtractor) Option {
	return func(p *Pipeline) {
		if extract != nil {
			p.extract = extract
		}
	}
}

func NewPipeline(table FingerprintTable, embedder ai.IEmbedder, store vectorstore.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		table:          table,
		extract:        reader.ExtractText,
		embedder:       embedder,
		store:          store,
		targetTokens:   chunker.DefaultTargetTokens,
		overlapTokens:  chunker.DefaultOverlapTokens,
		embedBatchSize: defaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the six stages in order. Soft per-file failures land in
// state.Errors; embedding and store failures abort the run before
// anything is committed.
func (p *Pipeline) Run(ctx context.Context, req *Request) (*RunState, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("mode", string(req.Mode)), zap.Bool("force", req.ForceReembed))
	state := newRunState()

	p.discover(state, req.Roots)
	logger.Info("discover done", zap.Int("discovered", state.Stats["discovered"]))

	committed, err := p.table.LookupAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("diff: load fingerprint table: %w", err)
	}
	state.Changed = DetectChanged(state.Files, committed, req.Mode, req.ForceReembed)
	state.Stats["changed"] = len(state.Changed)

	p.parseAndChunk(ctx, state)
	logger.Info("parse+chunk done", zap.Int("changed", state.Stats["changed"]), zap.Int("chunks", state.Stats["chunks"]))

	if err := p.embed(ctx, state); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := p.upsert(ctx, state, req.Model); err != nil {
		return nil, fmt.Errorf("upsert: %w", err)
	}
	if err := p.commit(ctx, state); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	logger.Info("index run done",
		zap.Int("upserted", state.Stats["upserted"]),
		zap.Int("soft_errors", len(state.Errors)))
	return state, nil
}

func (p *Pipeline) discover(state *RunState, roots []string) {
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				state.Errors = append(state.Errors, fmt.Sprintf("walk:%s: %v", path, err))
				return nil
			}
			if d.IsDir() || !reader.IsSupported(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				state.Errors = append(state.Errors, fmt.Sprintf("stat:%s: %v", path, err))
				return nil
			}
			state.Files = append(state.Files, buildFileRecord(path, info))
			return nil
		})
		if err != nil {
			state.Errors = append(state.Errors, fmt.Sprintf("walk:%s: %v", root, err))
		}
	}
	state.Stats["discovered"] = len(state.Files)
}

func buildFileRecord(path string, info fs.FileInfo) *model.FileRecord {
	rec := &model.FileRecord{
		Path:    path,
		Bytes:   info.Size(),
		MtimeNs: info.ModTime().UnixNano(),
		Mime:    reader.MimeType(path),
		Ext:     strings.ToLower(filepath.Ext(path)),
	}
	rec.SHA256 = fingerprint(path, rec.Bytes, rec.MtimeNs)
	return rec
}

// fingerprint hashes file bytes; when the file cannot be read it falls
// back to a weak size+mtime signature so discovery never hard-fails.
func fingerprint(path string, size, mtimeNs int64) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("sig:%d:%d", size, mtimeNs)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (p *Pipeline) parseAndChunk(ctx context.Context, state *RunState) {
	for _, file := range state.Changed {
		text := p.extract(file.Path)
		if text == "" {
			state.Errors = append(state.Errors, "parse-empty:"+file.Path)
			continue
		}
		for idx, span := range chunker.Split(text, p.targetTokens, p.overlapTokens) {
			state.Chunks = append(state.Chunks, &model.Chunk{
				File:      file,
				Index:     idx,
				CharStart: span.Start,
				CharEnd:   span.End,
				Text:      span.Text,
			})
		}
	}
	state.Stats["chunks"] = len(state.Chunks)
}

func (p *Pipeline) embed(ctx context.Context, state *RunState) error {
	if len(state.Chunks) == 0 {
		state.Stats["embedded"] = 0
		return nil
	}
	texts := make([]string, len(state.Chunks))
	for i, c := range state.Chunks {
		texts[i] = c.Text
	}
	for start := 0; start < len(texts); start += p.embedBatchSize {
		end := start + p.embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return err
		}
		if len(vectors) != end-start {
			return fmt.Errorf("provider returned %d embeddings for %d texts", len(vectors), end-start)
		}
		state.Embeddings = append(state.Embeddings, vectors...)
	}
	state.Stats["embedded"] = len(state.Embeddings)
	return nil
}

func (p *Pipeline) upsert(ctx context.Context, state *RunState, modelName string) error {
	if len(state.Chunks) == 0 {
		state.Stats["upserted"] = 0
		return nil
	}
	if modelName == "" {
		modelName = p.embedder.ModelName()
	}
	batch := &vectorstore.UpsertBatch{
		IDs:        make([]string, len(state.Chunks)),
		Documents:  make([]string, len(state.Chunks)),
		Metadatas:  make([]map[string]interface{}, len(state.Chunks)),
		Embeddings: state.Embeddings,
	}
	for i, c := range state.Chunks {
		batch.IDs[i] = c.VectorID()
		batch.Documents[i] = c.Text
		batch.Metadatas[i] = map[string]interface{}{
			"path":      c.File.Path,
			"sha256":    c.File.SHA256,
			"chunk_idx": c.Index,
			"mime":      c.File.Mime,
			"file_type": c.File.Ext,
			"mtime_ns":  c.File.MtimeNs,
			"model":     modelName,
		}
	}
	if err := p.store.Upsert(ctx, batch); err != nil {
		return err
	}
	state.Stats["upserted"] = len(batch.IDs)
	return nil
}

// commit marks every changed file as seen, parse failures included, so
// a broken file is not retried until its bytes actually change.
func (p *Pipeline) commit(ctx context.Context, state *RunState) error {
	now := time.Now().Unix()
	for _, file := range state.Changed {
		file.LastIndexedAt = now
		if err := p.table.UpsertRecord(ctx, file); err != nil {
			return fmt.Errorf("commit %s: %w", file.Path, err)
		}
	}
	state.Stats["committed"] = len(state.Changed)
	return nil
}
