// Package reader resolves which files are indexable and extracts plain
// text from them. Extraction never fails past this boundary: anything
// unsupported, unreadable or corrupt yields an empty string, which the
// indexing pipeline records as a soft per-file error.
package reader

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var supportedExts = map[string]struct{}{
	".txt": {}, ".md": {},
	".pdf":  {},
	".doc":  {}, ".docx": {},
	".ppt":  {}, ".pptx": {},
	".xls":  {}, ".xlsx": {}, ".csv": {},
	".json": {}, ".xml": {}, ".html": {}, ".htm": {},
}

var plainTextExts = map[string]struct{}{
	".txt": {}, ".json": {}, ".xml": {}, ".html": {}, ".htm": {}, ".csv": {},
}

// IsSupported reports whether the file's extension is on the indexable
// allow-list.
func IsSupported(path string) bool {
	_, ok := supportedExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// MimeType guesses a MIME type from the extension, defaulting to
// application/octet-stream.
func MimeType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return "application/octet-stream"
}

// ExtractText returns the plain text content of the file, or "" when
// the format has no text extractor or the file cannot be read.
func ExtractText(path string) string {
	ext := strings.ToLower(filepath.Ext(path))

	if _, ok := plainTextExts[ext]; ok {
		return readRaw(path)
	}

	if ext == ".md" {
		raw := readRaw(path)
		if raw == "" {
			return ""
		}
		return markdownText(raw)
	}

	// Binary office formats (.pdf .doc .docx .ppt .pptx .xls .xlsx)
	// have no extractor wired; they surface as parse-empty soft errors
	// upstream rather than aborting a run.
	if _, ok := supportedExts[ext]; ok {
		return ""
	}

	// Unknown extension: best effort as text.
	return readRaw(path)
}

func readRaw(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// markdownText walks the goldmark AST and collects text segments,
// including fenced code content, separated by blank lines per block.
func markdownText(markdown string) string {
	source := []byte(markdown)
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(source))

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *gmast.FencedCodeBlock:
			var sb strings.Builder
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(source))
			}
			if code := strings.TrimRight(sb.String(), "\n"); code != "" {
				blocks = append(blocks, code)
			}
		default:
			if txt := nodeText(node, source); txt != "" {
				blocks = append(blocks, txt)
			}
		}
	}
	return strings.Join(blocks, "\n\n")
}

func nodeText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if node.Kind() == gmast.KindText {
			sb.Write(node.(*gmast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
