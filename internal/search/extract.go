package search

import (
	"regexp"

	"github.com/phobologic/callscope/internal/model"
	"github.com/phobologic/callscope/internal/textpos"
)

// Options controls match extraction.
type Options struct {
	Mode Mode

	// MaxLineLength bounds excerpt width. Zero means textpos.DefaultMaxLineLength.
	MaxLineLength int
}

// Extract finds every occurrence of target inside the selection and inside
// the bodies of the relevant functions. Selection matches come first, then
// function matches in the order of relevant. A function match is dropped
// when it lies within the selection or repeats the range of an earlier
// match. Zero-width matches are never reported.
func Extract(target, text string, sel model.Span, relevant *model.NameSet, tbl *model.Table, opts Options) ([]model.MatchRecord, error) {
	re, err := Compile(target, opts.Mode)
	if err != nil {
		return nil, err
	}
	x := &extractor{
		re:   re,
		text: text,
		tbl:  tbl,
		ix:   textpos.NewIndex(text),
		max:  opts.MaxLineLength,
		seen: make(map[model.Span]struct{}),
	}

	sel = clampSpan(sel, len(text))
	x.scan(sel, func(model.Span) bool { return true }, true)

	if relevant == nil {
		return x.out, nil
	}
	for _, name := range relevant.Names() {
		for _, def := range tbl.All(name) {
			body := model.Span{Start: def.Start, End: def.End}
			if body.Start < 0 || body.End > len(text) || body.Start >= body.End {
				continue
			}
			x.scan(body, func(s model.Span) bool { return !sel.Contains(s) }, false)
		}
	}
	return x.out, nil
}

type extractor struct {
	re   *regexp.Regexp
	text string
	tbl  *model.Table
	ix   *textpos.Index
	max  int
	seen map[model.Span]struct{}
	out  []model.MatchRecord
}

func (x *extractor) scan(within model.Span, keep func(model.Span) bool, inSelection bool) {
	if within.Len() <= 0 {
		return
	}
	for _, loc := range x.re.FindAllStringIndex(x.text[within.Start:within.End], -1) {
		s := model.Span{Start: within.Start + loc[0], End: within.Start + loc[1]}
		if s.Len() == 0 || !keep(s) {
			continue
		}
		if _, dup := x.seen[s]; dup {
			continue
		}
		x.seen[s] = struct{}{}
		x.out = append(x.out, model.MatchRecord{
			Text:        textpos.Excerpt(x.text, s.Start, s.Len(), x.max),
			Line:        x.ix.Position(s.Start).Line,
			Function:    x.tbl.ContainingName(s.Start),
			Range:       x.ix.Range(s),
			Offset:      s,
			InSelection: inSelection,
		})
	}
}

func clampSpan(s model.Span, n int) model.Span {
	s.Start = min(max(s.Start, 0), n)
	s.End = min(max(s.End, s.Start), n)
	return s
}
