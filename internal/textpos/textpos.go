// Package textpos converts between byte offsets and line/column positions
// and formats single-line excerpts around a match.
package textpos

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/phobologic/callscope/internal/model"
)

// DefaultMaxLineLength is the excerpt width used when none is configured.
const DefaultMaxLineLength = 100

const ellipsis = "..."

// Index maps offsets of one text to positions. Build it once per text.
type Index struct {
	lineStarts []int
	size       int
}

// NewIndex records the start offset of every line in text.
func NewIndex(text string) *Index {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{lineStarts: starts, size: len(text)}
}

// Lines returns the number of lines, counting a trailing empty line.
func (ix *Index) Lines() int {
	return len(ix.lineStarts)
}

// Position returns the 0-based line and byte column of offset. Offsets
// outside the text are clamped to its bounds.
func (ix *Index) Position(offset int) model.Position {
	offset = clamp(offset, 0, ix.size)
	line := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	return model.Position{Line: line, Column: offset - ix.lineStarts[line]}
}

// Range converts a byte span into a position range.
func (ix *Index) Range(s model.Span) model.Range {
	return model.Range{Start: ix.Position(s.Start), End: ix.Position(s.End)}
}

// LineSpan returns the byte span of 0-based line, excluding its newline.
func (ix *Index) LineSpan(line int) model.Span {
	if line < 0 || line >= len(ix.lineStarts) {
		return model.Span{Start: ix.size, End: ix.size}
	}
	start := ix.lineStarts[line]
	end := ix.size
	if line+1 < len(ix.lineStarts) {
		end = ix.lineStarts[line+1] - 1
	}
	return model.Span{Start: start, End: end}
}

// Excerpt returns the trimmed line containing the match at offset. Lines
// longer than maxLen are cut to a maxLen window centred on the match, with
// "..." marking each side that was cut. A maxLen <= 0 selects the default.
func Excerpt(text string, offset, length, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	offset = clamp(offset, 0, len(text))

	lineStart := offset
	for lineStart > 0 && text[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := clamp(offset+length, offset, len(text))
	for lineEnd < len(text) && text[lineEnd] != '\n' {
		lineEnd++
	}

	line := text[lineStart:lineEnd]
	if len(line) > maxLen {
		windowStart := max(0, offset-lineStart-maxLen/2)
		for windowStart > 0 && !utf8.RuneStart(line[windowStart]) {
			windowStart--
		}
		windowEnd := min(len(line), windowStart+maxLen)
		for windowEnd < len(line) && !utf8.RuneStart(line[windowEnd]) {
			windowEnd--
		}
		var b strings.Builder
		if windowStart > 0 {
			b.WriteString(ellipsis)
		}
		b.WriteString(line[windowStart:windowEnd])
		if windowEnd < len(line) {
			b.WriteString(ellipsis)
		}
		line = b.String()
	}
	return strings.TrimSpace(line)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
