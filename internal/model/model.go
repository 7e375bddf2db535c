// Package model defines core data structures for callscope.
package model

// UnknownFunction is reported when no definition span contains an offset.
const UnknownFunction = "Unknown"

// DefinitionKind indicates the syntactic shape a definition was found in.
type DefinitionKind string

const (
	Function DefinitionKind = "function"
	Method   DefinitionKind = "method"
	Binding  DefinitionKind = "binding"
)

// FunctionDefinition is one named callable unit found in the source.
// Start and End are a half-open byte range [Start, End) and Content is
// exactly source[Start:End].
type FunctionDefinition struct {
	Name    string
	Kind    DefinitionKind
	Start   int
	End     int
	Content string
}

// Contains reports whether offset falls inside the definition's span.
func (d *FunctionDefinition) Contains(offset int) bool {
	return d.Start <= offset && offset < d.End
}

// Width returns the span length in bytes.
func (d *FunctionDefinition) Width() int {
	return d.End - d.Start
}

// Span is a half-open byte range into a source text.
type Span struct {
	Start int
	End   int
}

// Contains reports whether the whole of other lies within s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// Position is a 0-based line and byte column.
type Position struct {
	Line   int
	Column int
}

// Range is a start/end pair of positions.
type Range struct {
	Start Position
	End   Position
}

// MatchRecord is one reportable occurrence of a search target.
type MatchRecord struct {
	Text        string // trimmed line excerpt
	Line        int    // 0-based
	Function    string // containing definition or UnknownFunction
	Range       Range
	Offset      Span // absolute byte range of the match
	InSelection bool
}

// ImportBindings maps a local reference form ("local" or "alias.member")
// to the name it was imported or required as.
type ImportBindings map[string]string

// ScopeEntry is one relevant function in a report.
type ScopeEntry struct {
	Function string
	Rank     float64
}

// CallerEdge records that Caller transitively calls Function.
type CallerEdge struct {
	Function string
	Caller   string
}

// ImportNote is an import-resolved reference seen in the selection.
type ImportNote struct {
	Reference string
	Imported  string
}

// Report is the presentable result of one search over one file.
type Report struct {
	Target  string
	File    string
	Scope   []ScopeEntry
	Imports []ImportNote
	Matches []MatchRecord
	Callers []CallerEdge
}
