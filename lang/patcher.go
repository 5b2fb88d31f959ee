package lang

import (
	"reflect"

	"github.com/expr-lang/expr/ast"
)

// methodBuiltins maps string and array methods onto the evaluator builtins
// that implement them. The receiver becomes the first argument.
var methodBuiltins = map[string]string{
	"toUpperCase": "upper",
	"toLowerCase": "lower",
	"trim":        "trim",
	"split":       "split",
	"join":        "join",
	"startsWith":  "hasPrefix",
	"endsWith":    "hasSuffix",
	"indexOf":     "indexOf",
	"repeat":      "repeat",
	"replaceAll":  "replace",
}

// methodPatcher rewrites member syntax common in block code into builtin
// calls: x.length becomes len(x) and s.toUpperCase() becomes upper(s).
// Receivers known to be maps or structs are left alone so their own
// members stay reachable.
type methodPatcher struct{}

// Visit implements ast.Visitor.
func (methodPatcher) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok || prop.Value != "length" || hasMembers(n.Node) {
			return
		}

		ast.Patch(node, &ast.BuiltinNode{
			Name:      "len",
			Arguments: []ast.Node{n.Node},
		})

	case *ast.CallNode:
		member, ok := n.Callee.(*ast.MemberNode)
		if !ok || hasMembers(member.Node) {
			return
		}

		prop, ok := member.Property.(*ast.StringNode)
		if !ok {
			return
		}

		name, ok := methodBuiltins[prop.Value]
		if !ok {
			return
		}

		args := make([]ast.Node, 0, len(n.Arguments)+1)
		args = append(args, member.Node)
		args = append(args, n.Arguments...)

		ast.Patch(node, &ast.BuiltinNode{Name: name, Arguments: args})
	}
}

// hasMembers reports whether the checked type of n is a map or struct.
func hasMembers(n ast.Node) bool {
	t := n.Type()
	if t == nil {
		return false
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Kind() == reflect.Map || t.Kind() == reflect.Struct
}
