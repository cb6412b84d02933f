// Package scope computes which declarations are visible at a tree position.
package scope

import (
	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/index"
)

// Resolve returns the declarations visible at the node identified by id,
// innermost first. Function definitions expose their parameters and
// themselves to their subtree, compound statements expose declarations that
// precede the position, and the source file exposes earlier top-level
// declarations. Names are deduplicated keeping the innermost binding. A node
// without a recorded parent yields an empty result.
func Resolve(ix *index.Index, id string) []ast.Declaration {
	if ix == nil {
		return nil
	}
	var found []ast.Declaration
	current := id
	for {
		parent, info, ok := ix.ParentNode(current)
		if !ok {
			break
		}
		switch p := parent.(type) {
		case *ast.FunctionDefinition:
			for _, param := range p.Parameters {
				if decl, ok := param.(ast.Declaration); ok {
					found = append(found, decl)
				}
			}
			found = append(found, p)
		case *ast.CompoundStatement:
			for i := 0; i < info.Position && i < len(p.Statements); i++ {
				if decl, ok := p.Statements[i].(ast.Declaration); ok {
					found = append(found, decl)
				}
			}
		case *ast.SourceFile:
			for i := 0; i < info.Position && i < len(p.Declarations); i++ {
				if decl, ok := p.Declarations[i].(ast.Declaration); ok {
					found = append(found, decl)
				}
			}
		}
		current = parent.NodeID()
	}
	return dedupe(found)
}

func dedupe(decls []ast.Declaration) []ast.Declaration {
	seen := make(map[string]struct{}, len(decls))
	out := make([]ast.Declaration, 0, len(decls))
	for _, d := range decls {
		name := d.DeclName()
		if _, shadowed := seen[name]; shadowed {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Lookup returns the visible declarations named name. Shadowing leaves at
// most one entry.
func Lookup(ix *index.Index, id, name string) []ast.Declaration {
	var out []ast.Declaration
	for _, d := range Resolve(ix, id) {
		if d.DeclName() == name {
			out = append(out, d)
		}
	}
	return out
}

// Functions returns the visible function declarations and definitions.
func Functions(ix *index.Index, id string) []ast.Declaration {
	var out []ast.Declaration
	for _, d := range Resolve(ix, id) {
		switch d.(type) {
		case *ast.FunctionDeclaration, *ast.FunctionDefinition:
			out = append(out, d)
		}
	}
	return out
}

// Variables returns the visible variables and parameters.
func Variables(ix *index.Index, id string) []ast.Declaration {
	var out []ast.Declaration
	for _, d := range Resolve(ix, id) {
		switch d.(type) {
		case *ast.VariableDeclaration, *ast.Parameter:
			out = append(out, d)
		}
	}
	return out
}

// Target returns the declaration a reference-like node points to. It reports
// false when the node carries no target, the target id is not indexed, or the
// indexed node is not a declaration.
func Target(ix *index.Index, n ast.Node) (ast.Declaration, bool) {
	if ix == nil || n == nil {
		return nil, false
	}
	var targetID string
	switch n := n.(type) {
	case *ast.Reference:
		targetID = n.TargetID
	case *ast.CallExpression:
		targetID = n.TargetID
	case *ast.AssignmentExpression:
		targetID = n.TargetID
	default:
		return nil, false
	}
	if targetID == "" {
		return nil, false
	}
	target, ok := ix.Node(targetID)
	if !ok {
		return nil, false
	}
	decl, ok := target.(ast.Declaration)
	return decl, ok
}

// InScope reports whether the target of a reference-like node is visible at
// the reference's position.
func InScope(ix *index.Index, n ast.Node) bool {
	decl, ok := Target(ix, n)
	if !ok {
		return false
	}
	for _, d := range Resolve(ix, n.NodeID()) {
		if d.NodeID() == decl.NodeID() {
			return true
		}
	}
	return false
}

// Label is the display name of a reference-like node: its target's name, or
// the empty string when there is no current target.
func Label(ix *index.Index, n ast.Node) string {
	if decl, ok := Target(ix, n); ok {
		return decl.DeclName()
	}
	if call, ok := n.(*ast.CallExpression); ok {
		return call.Name
	}
	return ""
}
