// Package chunker splits extracted document text into overlapping
// fixed-size character windows. Token counts are approximated at four
// characters per token, which is close enough for retrieval chunking
// without pulling in a real tokenizer.
package chunker

const (
	DefaultTargetTokens  = 800
	DefaultOverlapTokens = 80

	charsPerToken  = 4
	minWindowChars = 200
)

// Span is one chunk of text. Start and End are rune offsets into the
// original text; the last span always ends exactly at the text length.
type Span struct {
	Start int
	End   int
	Text  string
}

// Split produces consecutive windows starting at offset zero and
// advancing by window-minus-overlap. When the overlap is at least as
// large as the window the stride degenerates to the full window, i.e.
// non-overlapping chunks. The loop stops as soon as a window reaches
// the end of the text. Split is pure: equal inputs yield equal output.
func Split(text string, targetTokens, overlapTokens int) []Span {
	if text == "" {
		return nil
	}
	if targetTokens <= 0 {
		targetTokens = DefaultTargetTokens
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}

	window := targetTokens * charsPerToken
	if window < minWindowChars {
		window = minWindowChars
	}
	stride := window - overlapTokens*charsPerToken
	if stride <= 0 {
		stride = window
	}

	runes := []rune(text)
	n := len(runes)

	var spans []Span
	for i := 0; i < n; i += stride {
		j := i + window
		if j > n {
			j = n
		}
		spans = append(spans, Span{Start: i, End: j, Text: string(runes[i:j])})
		if j == n {
			break
		}
	}
	return spans
}
