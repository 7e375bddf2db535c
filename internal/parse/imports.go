package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/callscope/internal/lang"
	"github.com/phobologic/callscope/internal/model"
)

const (
	nodeImportStatement          = "import_statement"
	nodeImportClause             = "import_clause"
	nodeNamedImports             = "named_imports"
	nodeImportSpecifier          = "import_specifier"
	nodeNamespaceImport          = "namespace_import"
	nodeObjectPattern            = "object_pattern"
	nodeShorthandPropertyPattern = "shorthand_property_identifier_pattern"
	nodePairPattern              = "pair_pattern"
	nodeObjectAssignmentPattern  = "object_assignment_pattern"
	nodeAssignmentPattern        = "assignment_pattern"
	nodeString                   = "string"
	nodeArguments                = "arguments"
	requireFunction              = "require"
)

// Imports returns the file's import bindings. It recognizes
//
//	const { a, b: c } = require('m')   a -> a, c -> b
//	const m = require('m'); m.f()      m.f -> f
//	import { a, b as c } from 'm'      a -> a, c -> b
//	import m from 'm'; m.f()           m.f -> f
//	import * as m from 'm'; m.f()      m.f -> f
//
// Module aliases are tracked without regard to scope: every member access
// on an identifier spelled like an alias is recorded.
func (f *File) Imports() model.ImportBindings {
	bindings := model.ImportBindings{}
	aliases := make(map[string]struct{})

	root := f.tree.RootNode()
	visit(root, func(n *sitter.Node) {
		switch n.Type() {
		case nodeVariableDeclarator:
			if !isRequireCall(n.ChildByFieldName("value"), f.source) {
				return
			}
			target := n.ChildByFieldName("name")
			if target == nil {
				return
			}
			switch target.Type() {
			case nodeIdentifier:
				aliases[lang.NodeText(target, f.source)] = struct{}{}
			case nodeObjectPattern:
				bindDestructured(target, f.source, bindings)
			}

		case nodeImportStatement:
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if clause := n.NamedChild(i); clause != nil && clause.Type() == nodeImportClause {
					bindImportClause(clause, f.source, bindings, aliases)
				}
			}
		}
	})

	if len(aliases) == 0 {
		return bindings
	}
	visit(root, func(n *sitter.Node) {
		if n.Type() != nodeMemberExpression {
			return
		}
		obj, prop := n.ChildByFieldName("object"), n.ChildByFieldName("property")
		if obj == nil || prop == nil || obj.Type() != nodeIdentifier || prop.Type() != nodePropertyIdentifier {
			return
		}
		alias := lang.NodeText(obj, f.source)
		if _, ok := aliases[alias]; !ok {
			return
		}
		member := lang.NodeText(prop, f.source)
		bindings[alias+"."+member] = member
	})
	return bindings
}

// isRequireCall reports whether n is require("...").
func isRequireCall(n *sitter.Node, source []byte) bool {
	if n == nil || n.Type() != nodeCallExpression {
		return false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != nodeIdentifier || lang.NodeText(fn, source) != requireFunction {
		return false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.Type() != nodeArguments || args.NamedChildCount() == 0 {
		return false
	}
	first := args.NamedChild(0)
	return first != nil && first.Type() == nodeString
}

// bindDestructured maps each local name of { a, b: c, d = 1 } to its key.
func bindDestructured(pattern *sitter.Node, source []byte, bindings model.ImportBindings) {
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		prop := pattern.NamedChild(i)
		if prop == nil {
			continue
		}
		switch prop.Type() {
		case nodeShorthandPropertyPattern:
			name := lang.NodeText(prop, source)
			bindings[name] = name
		case nodeObjectAssignmentPattern:
			if left := prop.ChildByFieldName("left"); left != nil && left.Type() == nodeShorthandPropertyPattern {
				name := lang.NodeText(left, source)
				bindings[name] = name
			}
		case nodePairPattern:
			key, value := prop.ChildByFieldName("key"), prop.ChildByFieldName("value")
			if key == nil || value == nil {
				continue
			}
			if value.Type() == nodeAssignmentPattern {
				value = value.ChildByFieldName("left")
			}
			if value != nil && value.Type() == nodeIdentifier {
				bindings[lang.NodeText(value, source)] = unquote(lang.NodeText(key, source))
			}
		}
	}
}

// bindImportClause handles default, namespace and named imports.
func bindImportClause(clause *sitter.Node, source []byte, bindings model.ImportBindings, aliases map[string]struct{}) {
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case nodeIdentifier:
			aliases[lang.NodeText(child, source)] = struct{}{}
		case nodeNamespaceImport:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if id := child.NamedChild(j); id != nil && id.Type() == nodeIdentifier {
					aliases[lang.NodeText(id, source)] = struct{}{}
				}
			}
		case nodeNamedImports:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				specifier := child.NamedChild(j)
				if specifier == nil || specifier.Type() != nodeImportSpecifier {
					continue
				}
				name := specifier.ChildByFieldName("name")
				if name == nil {
					continue
				}
				imported := unquote(lang.NodeText(name, source))
				local := imported
				if alias := specifier.ChildByFieldName("alias"); alias != nil {
					local = lang.NodeText(alias, source)
				}
				bindings[local] = imported
			}
		}
	}
}

// visit calls fn for n and every named descendant, depth first.
func visit(n *sitter.Node, fn func(*sitter.Node)) {
	fn(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil {
			visit(child, fn)
		}
	}
}

func unquote(s string) string {
	return strings.Trim(s, "\"'`")
}
