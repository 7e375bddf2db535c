package textpos

import (
	"strings"
	"testing"

	"github.com/phobologic/callscope/internal/model"
)

func TestPosition(t *testing.T) {
	t.Parallel()

	ix := NewIndex("ab\ncd\n")
	tests := []struct {
		offset int
		want   model.Position
	}{
		{0, model.Position{Line: 0, Column: 0}},
		{2, model.Position{Line: 0, Column: 2}},
		{3, model.Position{Line: 1, Column: 0}},
		{4, model.Position{Line: 1, Column: 1}},
		{6, model.Position{Line: 2, Column: 0}},
		{99, model.Position{Line: 2, Column: 0}},
		{-5, model.Position{Line: 0, Column: 0}},
	}
	for _, tt := range tests {
		if got := ix.Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
	if ix.Lines() != 3 {
		t.Errorf("Lines() = %d, want 3", ix.Lines())
	}
}

func TestPositionRoundTrip(t *testing.T) {
	t.Parallel()

	text := "function a() {\n  b();\n}\n"
	ix := NewIndex(text)
	for o := 0; o <= len(text); o++ {
		p := ix.Position(o)
		if got := ix.LineSpan(p.Line).Start + p.Column; got != o {
			t.Errorf("Position(%d) = %+v maps back to %d", o, p, got)
		}
	}
	if got := ix.LineSpan(1); text[got.Start:got.End] != "  b();" {
		t.Errorf("LineSpan(1) = %q", text[got.Start:got.End])
	}
}

func TestExcerptShortLine(t *testing.T) {
	t.Parallel()

	text := "first\n    return validate(x);   \nlast"
	off := strings.Index(text, "validate")
	got := Excerpt(text, off, len("validate"), 100)
	if got != "return validate(x);" {
		t.Errorf("Excerpt = %q", got)
	}
	if strings.Contains(got, "...") {
		t.Error("short line must not carry ellipsis")
	}
}

func TestExcerptLongLine(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("a", 150) + "X" + strings.Repeat("b", 49)
	tests := []struct {
		name       string
		offset     int
		wantPrefix bool
		wantSuffix bool
	}{
		{"near end", 150, true, false},
		{"near start", 10, false, true},
		{"middle", 100, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Excerpt(line, tt.offset, 1, 100)
			if strings.HasPrefix(got, "...") != tt.wantPrefix {
				t.Errorf("prefix: got %q", got)
			}
			if strings.HasSuffix(got, "...") != tt.wantSuffix {
				t.Errorf("suffix: got %q", got)
			}
			body := strings.TrimSuffix(strings.TrimPrefix(got, "..."), "...")
			if len(body) != 100 {
				t.Errorf("window length = %d, want 100", len(body))
			}
		})
	}
}

func TestExcerptMultibyte(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		line   string
		offset int
		length int
		want   string
	}{
		{"cut before line end", "a" + strings.Repeat("é", 10) + "needl", 21, 5, "...éééneed..."},
		{"window reaches line end", strings.Repeat("é", 10) + "needle", 22, 4, "...ééneedle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Excerpt(tt.line, tt.offset, tt.length, 10)
			if got != tt.want {
				t.Errorf("Excerpt = %q, want %q", got, tt.want)
			}
			body := strings.TrimSuffix(strings.TrimPrefix(got, "..."), "...")
			if len(body) > 10 {
				t.Errorf("window length = %d, want <= 10", len(body))
			}
		})
	}
}

func TestExcerptDefaultWidth(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("x", 300)
	got := Excerpt(line, 150, 1, 0)
	if len(got) != DefaultMaxLineLength+2*len("...") {
		t.Errorf("len = %d", len(got))
	}
}
