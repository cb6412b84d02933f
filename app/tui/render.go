package tui

import (
	"strings"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/index"
	"github.com/lexcodex/structedit/framework/scope"
)

const indentUnit = "    "

// projection renders a tree as C source lines. The node named by selected is
// highlighted and the line it starts on is remembered for scrolling.
type projection struct {
	ix       *index.Index
	selected string

	lines        []string
	selectedLine int
	depth        int
	current      strings.Builder
}

// Project renders the tree held by ix.
func Project(ix *index.Index, selected string) (lines []string, selectedLine int) {
	p := &projection{ix: ix, selected: selected, selectedLine: -1}
	root := ix.Root()
	if root == nil {
		return nil, -1
	}
	if len(root.Declarations) == 0 {
		p.write(p.mark(root, emptyStyle.Render("empty document")))
		p.newline()
	}
	for _, d := range root.Declarations {
		p.statement(d)
	}
	return p.lines, p.selectedLine
}

func (p *projection) write(s string) {
	if p.current.Len() == 0 {
		p.current.WriteString(strings.Repeat(indentUnit, p.depth))
	}
	p.current.WriteString(s)
}

func (p *projection) newline() {
	p.lines = append(p.lines, p.current.String())
	p.current.Reset()
}

// mark styles text as the rendering of n.
func (p *projection) mark(n ast.Node, text string) string {
	if n == nil || n.NodeID() != p.selected {
		return text
	}
	if p.selectedLine < 0 {
		p.selectedLine = len(p.lines)
	}
	return selectedStyle.Render(text)
}

func (p *projection) statement(n ast.Node) {
	switch n := n.(type) {
	case *ast.Include:
		path := `"` + n.Path + `"`
		if n.System {
			path = "<" + n.Path + ">"
		}
		p.write(p.mark(n, keywordStyle.Render("#include")+" "+path))
		p.newline()
	case *ast.FunctionDeclaration:
		p.write(p.mark(n, p.signature(n.ReturnType, n.Name, n.Parameters)+";"))
		p.newline()
	case *ast.FunctionDefinition:
		p.write(p.mark(n, p.signature(n.ReturnType, n.Name, n.Parameters)) + " ")
		p.body(n.Body)
	case *ast.VariableDeclaration:
		text := typeStyle.Render(orHole(n.Type)) + " " + orHole(n.Name)
		if n.Value != nil {
			text += " = " + p.expr(n.Value)
		}
		p.write(p.mark(n, text+";"))
		p.newline()
	case *ast.Comment:
		p.write(p.mark(n, commentStyle.Render("// "+n.Text)))
		p.newline()
	case *ast.CompoundStatement:
		p.body(n)
	case *ast.IfStatement:
		p.write(p.mark(n, keywordStyle.Render("if")) + " (" + p.expr(n.Condition) + ") ")
		p.body(n.Body)
		if n.Else != nil {
			p.elseBranch(n.Else)
		}
	case *ast.ElseClause:
		p.elseBranch(n)
	case *ast.ReturnStatement:
		text := keywordStyle.Render("return")
		if n.Value != nil {
			text += " " + p.expr(n.Value)
		}
		p.write(p.mark(n, text+";"))
		p.newline()
	case ast.Expr:
		p.write(p.expr(n) + ";")
		p.newline()
	default:
		p.write(p.mark(n, string(n.Kind())))
		p.newline()
	}
}

func (p *projection) elseBranch(n ast.ElseBranch) {
	switch e := n.(type) {
	case *ast.ElseClause:
		p.write(p.mark(e, keywordStyle.Render("else")) + " ")
		p.body(e.Body)
	default:
		p.write(keywordStyle.Render("else") + " " + p.expr(n))
		p.newline()
	}
}

// body renders a braced block, or a single statement on the current line.
func (p *projection) body(n ast.Node) {
	block, ok := n.(*ast.CompoundStatement)
	if !ok {
		if n == nil {
			p.write(holeStyle.Render("⟨body⟩"))
			p.newline()
			return
		}
		p.statement(n)
		return
	}
	p.write(p.mark(block, "{"))
	p.newline()
	p.depth++
	for _, s := range block.Statements {
		p.statement(s)
	}
	p.depth--
	p.write("}")
	p.newline()
}

func (p *projection) signature(returnType, name string, params []ast.Param) string {
	parts := make([]string, 0, len(params))
	for _, param := range params {
		parts = append(parts, p.param(param))
	}
	return typeStyle.Render(orHole(returnType)) + " " + orHole(name) + "(" + strings.Join(parts, ", ") + ")"
}

func (p *projection) param(n ast.Param) string {
	switch n := n.(type) {
	case *ast.Parameter:
		return p.mark(n, typeStyle.Render(orHole(n.Type))+" "+orHole(n.Name))
	default:
		return p.expr(n)
	}
}

// expr renders an expression inline. Placeholders from any family render
// through here too.
func (p *projection) expr(n ast.Node) string {
	switch n := n.(type) {
	case nil:
		return holeStyle.Render("⟨⟩")
	case *ast.Unknown:
		text := n.Text
		if text == "" {
			text = "?"
		}
		return p.mark(n, holeStyle.Render("⟨"+text+"⟩"))
	case *ast.Reference:
		return p.mark(n, p.reference(n))
	case *ast.CallExpression:
		args := make([]string, 0, len(n.Arguments))
		for _, a := range n.Arguments {
			args = append(args, p.expr(a))
		}
		name := scope.Label(p.ix, n)
		if name == "" {
			name = holeStyle.Render("⟨call⟩")
		}
		return p.mark(n, name+"("+strings.Join(args, ", ")+")")
	case *ast.AssignmentExpression:
		return p.mark(n, p.reference(n)+" = "+p.expr(n.Value))
	case *ast.NumberLiteral:
		return p.mark(n, literalStyle.Render(n.Value))
	case *ast.StringLiteral:
		return p.mark(n, literalStyle.Render(`"`+n.Value+`"`))
	case *ast.BinaryExpression:
		return p.mark(n, p.expr(n.Left)+" "+orHole(n.Operator)+" "+p.expr(n.Right))
	}
	return p.mark(n, string(n.Kind()))
}

// reference renders the target name of a reference-like node. A target that
// is missing or no longer visible renders as a hole.
func (p *projection) reference(n ast.Node) string {
	name := scope.Label(p.ix, n)
	switch {
	case name == "":
		return holeStyle.Render("⟨ref⟩")
	case !scope.InScope(p.ix, n):
		return errorStyle.Render(name)
	}
	return name
}

func orHole(s string) string {
	if s == "" {
		return holeStyle.Render("⟨⟩")
	}
	return s
}
