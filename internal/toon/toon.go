// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/callscope/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a search Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("target: %s", encodeValue(r.Target)))
	parts = append(parts, fmt.Sprintf("file: %s", encodeValue(r.File)))

	var scopeRows [][]string
	for i := range r.Scope {
		s := &r.Scope[i]
		scopeRows = append(scopeRows, []string{s.Function, fmt.Sprintf("%.4f", s.Rank)})
	}
	parts = append(parts, formatTabular("scope", []string{"function", "rank"}, scopeRows))

	if len(r.Imports) > 0 {
		var importRows [][]string
		for i := range r.Imports {
			in := &r.Imports[i]
			importRows = append(importRows, []string{in.Reference, in.Imported})
		}
		parts = append(parts, formatTabular("imports", []string{"reference", "imported"}, importRows))
	}

	var matchRows [][]string
	for i := range r.Matches {
		m := &r.Matches[i]
		origin := "scope"
		if m.InSelection {
			origin = "selection"
		}
		matchRows = append(matchRows, []string{
			fmt.Sprintf("%d", m.Line+1),
			m.Function,
			fmt.Sprintf("%d", m.Offset.Start),
			fmt.Sprintf("%d", m.Offset.End),
			origin,
			m.Text,
		})
	}
	parts = append(parts, formatTabular("matches", []string{"line", "function", "start", "end", "origin", "text"}, matchRows))

	if len(r.Callers) > 0 {
		var callerRows [][]string
		for i := range r.Callers {
			ce := &r.Callers[i]
			callerRows = append(callerRows, []string{ce.Function, ce.Caller})
		}
		parts = append(parts, formatTabular("callers", []string{"function", "caller"}, callerRows))
	}

	return strings.Join(parts, "\n")
}

// EncodeAll encodes several reports separated by blank lines.
func EncodeAll(reports []*model.Report) string {
	encoded := make([]string, len(reports))
	for i, r := range reports {
		encoded[i] = Encode(r)
	}
	return strings.Join(encoded, "\n\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
