package parse

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/callscope/internal/lang"
	"github.com/phobologic/callscope/internal/model"
)

// Node types shared by the javascript, typescript and tsx grammars.
const (
	nodeFunctionDeclaration          = "function_declaration"
	nodeGeneratorFunctionDeclaration = "generator_function_declaration"
	nodeMethodDefinition             = "method_definition"
	nodeVariableDeclarator           = "variable_declarator"
	nodePair                         = "pair"
	nodeFieldDefinition              = "field_definition"
	nodePublicFieldDefinition        = "public_field_definition"
	nodeCallExpression               = "call_expression"
	nodeMemberExpression             = "member_expression"
	nodeParenthesizedExpression      = "parenthesized_expression"
	nodeIdentifier                   = "identifier"
	nodePropertyIdentifier           = "property_identifier"
	nodePrivatePropertyIdentifier    = "private_property_identifier"
)

// functionValues are the expression node types that make a binding a
// definition. Older grammar releases name function expressions "function".
var functionValues = map[string]struct{}{
	"function":            {},
	"function_expression": {},
	"arrow_function":      {},
	"generator_function":  {},
}

// Analyze builds the definition table and call graph in a single walk.
// Calls are attributed to the innermost enclosing definition; calls outside
// every definition produce no edge.
func (f *File) Analyze() *Analysis {
	b := &graphBuilder{
		source: f.source,
		table:  model.NewTable(),
		graph:  model.NewCallGraph(),
	}
	b.walk(f.tree.RootNode())
	return &Analysis{Table: b.table, Graph: b.graph}
}

type graphBuilder struct {
	source []byte
	table  *model.Table
	graph  *model.CallGraph
	stack  []string // enclosing definition names, innermost last
}

func (b *graphBuilder) walk(n *sitter.Node) {
	def, isDef := definitionAt(n, b.source)
	if isDef {
		b.table.Add(def)
		b.graph.Ensure(def.Name)
		b.stack = append(b.stack, def.Name)
	}

	if n.Type() == nodeCallExpression && len(b.stack) > 0 {
		if callee := calleeName(n, b.source); callee != "" {
			b.graph.AddEdge(b.stack[len(b.stack)-1], callee)
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil {
			b.walk(child)
		}
	}

	if isDef {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// definitionAt recognizes a named function-like definition rooted at n.
// The recorded span is the declaration or method node itself, or the bound
// function expression for variable, property and field bindings.
func definitionAt(n *sitter.Node, source []byte) (model.FunctionDefinition, bool) {
	switch n.Type() {
	case nodeFunctionDeclaration, nodeGeneratorFunctionDeclaration:
		name := n.ChildByFieldName("name")
		if name == nil || name.Type() != nodeIdentifier {
			return model.FunctionDefinition{}, false
		}
		return newDefinition(lang.NodeText(name, source), model.Function, n, source), true

	case nodeMethodDefinition:
		name := n.ChildByFieldName("name")
		if name == nil || !isPropertyName(name) {
			return model.FunctionDefinition{}, false
		}
		return newDefinition(lang.NodeText(name, source), model.Method, n, source), true

	case nodeVariableDeclarator:
		// Destructuring targets are skipped: only a simple name binds.
		return boundFunction(n.ChildByFieldName("name"), n.ChildByFieldName("value"), source, nodeIdentifier)

	case nodePair:
		return boundFunction(n.ChildByFieldName("key"), n.ChildByFieldName("value"), source, nodePropertyIdentifier)

	case nodeFieldDefinition:
		return boundFunction(n.ChildByFieldName("property"), n.ChildByFieldName("value"), source, nodePropertyIdentifier, nodePrivatePropertyIdentifier)

	case nodePublicFieldDefinition:
		return boundFunction(n.ChildByFieldName("name"), n.ChildByFieldName("value"), source, nodePropertyIdentifier, nodePrivatePropertyIdentifier)
	}
	return model.FunctionDefinition{}, false
}

func boundFunction(name, value *sitter.Node, source []byte, nameTypes ...string) (model.FunctionDefinition, bool) {
	if name == nil || value == nil {
		return model.FunctionDefinition{}, false
	}
	if _, ok := functionValues[value.Type()]; !ok {
		return model.FunctionDefinition{}, false
	}
	for _, t := range nameTypes {
		if name.Type() == t {
			return newDefinition(lang.NodeText(name, source), model.Binding, value, source), true
		}
	}
	return model.FunctionDefinition{}, false
}

func newDefinition(name string, kind model.DefinitionKind, span *sitter.Node, source []byte) model.FunctionDefinition {
	start, end := int(span.StartByte()), int(span.EndByte())
	return model.FunctionDefinition{
		Name:    name,
		Kind:    kind,
		Start:   start,
		End:     end,
		Content: string(source[start:end]),
	}
}

func isPropertyName(n *sitter.Node) bool {
	switch n.Type() {
	case nodePropertyIdentifier, nodePrivatePropertyIdentifier, nodeIdentifier:
		return true
	}
	return false
}

// calleeName resolves the name a call targets. A bare identifier is used
// as is; for a property access only the property name is kept, so calls on
// unrelated objects sharing a method name fold into one node.
func calleeName(call *sitter.Node, source []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case nodeIdentifier:
		return lang.NodeText(fn, source)
	case nodeMemberExpression:
		prop := fn.ChildByFieldName("property")
		if prop == nil || !isPropertyName(prop) {
			return ""
		}
		return lang.NodeText(prop, source)
	case nodeParenthesizedExpression:
		// (foo)() unwraps to foo.
		if fn.NamedChildCount() == 1 {
			if inner := fn.NamedChild(0); inner != nil && inner.Type() == nodeIdentifier {
				return lang.NodeText(inner, source)
			}
		}
	}
	return ""
}
