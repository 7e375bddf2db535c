// Package parse builds the definition table, call graph and import bindings
// of a JavaScript-family source file using tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/callscope/internal/lang"
	"github.com/phobologic/callscope/internal/model"
)

// ErrParseFailed reports source text that could not be turned into a usable
// tree. Callers recover by continuing with empty structures.
var ErrParseFailed = errors.New("parse failed")

// Options configures a parse.
type Options struct {
	// Language selects the grammar. Nil selects lang.Default.
	Language *lang.Language

	// Recover keeps whatever tree-sitter recovered from a source with
	// syntax errors instead of reporting ErrParseFailed.
	Recover bool
}

// Analysis is the definition table and call graph of one source text.
type Analysis struct {
	Table *model.Table
	Graph *model.CallGraph
}

// Empty returns an analysis with no definitions and no edges.
func Empty() *Analysis {
	return &Analysis{Table: model.NewTable(), Graph: model.NewCallGraph()}
}

// File is a parsed source text. Close releases the tree.
type File struct {
	tree   *sitter.Tree
	source []byte
}

// Parse parses source. Any failure is reported as ErrParseFailed; a
// source with syntax errors fails unless opts.Recover is set.
func Parse(ctx context.Context, source []byte, opts Options) (*File, error) {
	l := opts.Language
	if l == nil {
		l = lang.Languages[lang.Default]
	}

	parser := l.NewParser()
	defer parser.Close()

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: no tree", ErrParseFailed)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("%w: no root node", ErrParseFailed)
	}
	if root.HasError() && !opts.Recover {
		pos := firstErrorPoint(root)
		tree.Close()
		return nil, fmt.Errorf("%w: syntax error near line %d column %d", ErrParseFailed, pos.Row+1, pos.Column+1)
	}

	return &File{tree: tree, source: source}, nil
}

// Close releases the underlying tree.
func (f *File) Close() {
	if f != nil && f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Analyze parses source and builds its definition table and call graph. On
// failure it returns an empty analysis together with an ErrParseFailed error.
func Analyze(ctx context.Context, source []byte, opts Options) (*Analysis, error) {
	f, err := Parse(ctx, source, opts)
	if err != nil {
		slog.Debug("analysis degraded to empty", slog.String("error", err.Error()))
		return Empty(), err
	}
	defer f.Close()
	return f.Analyze(), nil
}

// ResolveImports parses source and returns its import bindings. On failure
// it returns an empty map together with an ErrParseFailed error.
func ResolveImports(ctx context.Context, source []byte, opts Options) (model.ImportBindings, error) {
	f, err := Parse(ctx, source, opts)
	if err != nil {
		slog.Debug("import resolution degraded to empty", slog.String("error", err.Error()))
		return model.ImportBindings{}, err
	}
	defer f.Close()
	return f.Imports(), nil
}

// firstErrorPoint returns the start of the first ERROR or MISSING node.
func firstErrorPoint(root *sitter.Node) sitter.Point {
	iter := sitter.NewIterator(root, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			return n.StartPoint()
		}
	}
	return root.StartPoint()
}
