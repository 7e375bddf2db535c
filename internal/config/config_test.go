package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, `
max_line_length: 80
literal: true
language: typescript
include:
  - "src/**"
exclude:
  - "**/*.d.ts"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		MaxLineLength: 80,
		Literal:       true,
		Language:      "typescript",
		Include:       []string{"src/**"},
		Exclude:       []string{"**/*.d.ts"},
		MaxFileSize:   DefaultMaxFileSize,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "max_line_length: [", "parsing config file"},
		{"bad width", "max_line_length: 0", "max_line_length"},
		{"bad size", "max_file_size: -5", "max_file_size"},
		{"bad language", "language: cobol", "unknown language"},
		{"bad glob", "exclude: [\"src/[a\"]", "invalid glob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	cfg, path, err := Find(t.TempDir())
	if err != nil || path != "" {
		t.Fatalf("Find on empty dir: %q, %v", path, err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}

	dir := t.TempDir()
	written := writeConfig(t, dir, "recover: true\n")
	cfg, path, err = Find(dir)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if path != written || !cfg.Recover {
		t.Errorf("Find = %+v from %q", cfg, path)
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
