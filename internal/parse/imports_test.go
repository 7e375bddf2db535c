package parse

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/phobologic/callscope/internal/lang"
	"github.com/phobologic/callscope/internal/model"
)

func TestResolveImports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   model.ImportBindings
	}{
		{
			name:   "destructured require",
			source: "const { validate, format: fmt } = require('./utils');\n",
			want:   model.ImportBindings{"validate": "validate", "fmt": "format"},
		},
		{
			name:   "aliased require with member access",
			source: "const utils = require('./utils');\nfunction run() { return utils.format(utils.trim(x)); }\n",
			want:   model.ImportBindings{"utils.format": "format", "utils.trim": "trim"},
		},
		{
			name:   "named import",
			source: "import { a, b as c } from './m';\n",
			want:   model.ImportBindings{"a": "a", "c": "b"},
		},
		{
			name:   "default import with member access",
			source: "import app from './app';\napp.createGreeting('x');\n",
			want:   model.ImportBindings{"app.createGreeting": "createGreeting"},
		},
		{
			name:   "namespace import with member access",
			source: "import * as path from 'path';\nconst p = path.join('a', 'b');\n",
			want:   model.ImportBindings{"path.join": "join"},
		},
		{
			name:   "default and named together",
			source: "import React, { useState } from 'react';\nReact.createElement('div');\n",
			want:   model.ImportBindings{"useState": "useState", "React.createElement": "createElement"},
		},
		{
			name:   "plain call is not a require",
			source: "const x = load('./m');\nx.run();\n",
			want:   model.ImportBindings{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveImports(context.Background(), []byte(tt.source), Options{Language: lang.Languages["javascript"]})
			if err != nil {
				t.Fatalf("ResolveImports: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("bindings = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveImportsUnparseable(t *testing.T) {
	t.Parallel()

	got, err := ResolveImports(context.Background(), []byte("import { from"), Options{})
	if !errors.Is(err, ErrParseFailed) {
		t.Fatalf("err = %v, want ErrParseFailed", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("bindings = %v, want empty map", got)
	}
}

func TestParseSharedTree(t *testing.T) {
	t.Parallel()

	source := "const { check } = require('./c');\nfunction run() { check(); }\n"
	f, err := Parse(context.Background(), []byte(source), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer f.Close()

	if !f.Analyze().Graph.Calls("run", "check") {
		t.Error("missing run -> check")
	}
	if f.Imports()["check"] != "check" {
		t.Error("missing check binding")
	}
}
