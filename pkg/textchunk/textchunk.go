// Package textchunk splits long text into overlapping, boundary-aware
// segments for indexing and size-limited transmission.
package textchunk

import (
	"strings"

	"github.com/policynav/policy-navigator/pkg/resilient"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// boundaries are tried in order; the first one found inside the window wins.
var boundaries = []string{". ", "? ", "! ", "\n\n"}

// Span is one chunk of a source string. Start and End are byte offsets into
// the untrimmed source; Text is the window with surrounding whitespace
// stripped.
type Span struct {
	Text  string
	Start int
	End   int
}

// Split cuts text into spans of at most chunkSize bytes with the given
// overlap between consecutive spans. Windows that would cut mid-sentence are
// shortened to end right after the nearest sentence boundary. Split is pure:
// the same input always yields the same spans.
func Split(text string, chunkSize, overlap int) ([]Span, error) {
	if chunkSize <= 0 {
		return nil, resilient.ConfigError("chunk size must be positive")
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, resilient.ConfigError("overlap must be non-negative and smaller than chunk size")
	}

	if len(text) <= chunkSize {
		return []Span{{Text: strings.TrimSpace(text), Start: 0, End: len(text)}}, nil
	}

	var spans []Span
	start := 0
	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			for _, boundary := range boundaries {
				if pos := strings.LastIndex(text[start:end], boundary); pos != -1 {
					end = start + pos + len(boundary)
					break
				}
			}
		}

		spans = append(spans, Span{
			Text:  strings.TrimSpace(text[start:end]),
			Start: start,
			End:   end,
		})

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next <= start {
			// A boundary cut shrank the window below the overlap; step to
			// the window end instead of stalling.
			next = end
		}
		start = next
	}

	return spans, nil
}

// Texts returns just the chunk strings of spans.
func Texts(spans []Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}
