package scope

import (
	"regexp"
	"strings"
)

// declaredBodies returns the text following each declaration-like mention of
// name in selection: a braced body cut at its matching brace (or at the end
// of the selection when unbalanced), or the expression up to the end of the
// statement for arrow functions without braces.
func declaredBodies(selection, name string) []string {
	quoted := regexp.QuoteMeta(name)
	patterns := []string{
		`\bfunction\s*\*?\s*` + quoted + `\s*\([^)]*\)`,
		`(?:^|[^\w$.])` + quoted + `\s*(?::(?:[^=;\n{]|=>)*?=|[=:])\s*(?:async\s+)?(?:function\b[^(]*\([^)]*\)|(?:<[^>]*>\s*)?\([^()]*\)\s*(?::[^=]*?)?=>|[A-Za-z_$][\w$]*\s*=>)`,
		`(?:^|[^\w$.])` + quoted + `\s*\([^()]*\)\s*(?::[^{]*)?\{`,
	}

	var bodies []string
	seen := make(map[int]struct{})
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(selection, -1) {
			end := loc[1]
			if strings.HasSuffix(selection[loc[0]:end], "{") {
				end-- // method pattern consumed the opening brace
			}
			start, body := bodyAfter(selection, end)
			if _, dup := seen[start]; dup || body == "" {
				continue
			}
			seen[start] = struct{}{}
			bodies = append(bodies, body)
		}
	}
	return bodies
}

// bodyAfter extracts the body starting at or after from and returns its
// start offset.
func bodyAfter(text string, from int) (int, string) {
	i := from
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	if i >= len(text) {
		return i, ""
	}
	if text[i] == ':' {
		// Return type annotation before a braced body.
		if b := strings.IndexAny(text[i:], "{;\n"); b >= 0 && text[i+b] == '{' {
			i += b
		}
	}
	if text[i] != '{' {
		// Expression body: up to the end of the statement or line.
		end := strings.IndexAny(text[i:], ";\n")
		if end < 0 {
			return i, text[i:]
		}
		return i, text[i : i+end]
	}
	return i, text[i:matchingBrace(text, i)]
}

// matchingBrace returns the offset just past the brace closing the one at
// open, skipping string literals and comments. Unbalanced input runs to the
// end of text.
func matchingBrace(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch c := text[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"', '\'', '`':
			i = skipString(text, i, c)
		case '/':
			if i+1 < len(text) && text[i+1] == '/' {
				if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
					i += nl
				} else {
					return len(text)
				}
			} else if i+1 < len(text) && text[i+1] == '*' {
				if end := strings.Index(text[i+2:], "*/"); end >= 0 {
					i += end + 3
				} else {
					return len(text)
				}
			}
		}
	}
	return len(text)
}

// skipString returns the offset of the quote closing the literal opened at
// start, or the last offset of text if it never closes.
func skipString(text string, start int, quote byte) int {
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(text) - 1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
