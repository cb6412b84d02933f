// Package complete proposes replacements for the node being edited. A
// candidate is offered only when the node it builds fits the slot that holds
// the edited node.
package complete

import (
	"strconv"
	"strings"

	"github.com/lexcodex/structedit/framework/ast"
	"github.com/lexcodex/structedit/framework/index"
	"github.com/lexcodex/structedit/framework/match"
	"github.com/lexcodex/structedit/framework/scope"
)

// Source tells where a candidate came from.
type Source string

const (
	SourceScope    Source = "scope"
	SourceTemplate Source = "template"
	SourceLiteral  Source = "literal"
)

// Candidate is one replacement proposal.
type Candidate struct {
	Label  string
	Detail string
	Source Source
	build  func(args []string) ast.Node
}

// Build constructs the replacement node with fresh ids. query is the text the
// user typed; words after the first fill in names, types, and paths.
func (c Candidate) Build(query string) ast.Node {
	if c.build == nil {
		return nil
	}
	words := strings.Fields(query)
	if len(words) > 0 {
		words = words[1:]
	}
	return c.build(words)
}

// Suggestion is a ranked candidate with highlight positions in its label.
type Suggestion struct {
	Candidate Candidate
	Indices   []int
	Tier      match.Tier
}

var types = []string{"int", "char", "void", "float", "double", "long"}

var operators = []string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "&&", "||"}

// Candidates lists the proposals for the slot holding the node identified by
// id, in scope order followed by templates.
func Candidates(ix *index.Index, id string) []Candidate {
	if ix == nil {
		return nil
	}
	parent, info, ok := ix.ParentNode(id)
	if !ok {
		return nil
	}
	var all []Candidate
	all = append(all, fromScope(ix, id)...)
	all = append(all, templates()...)

	out := make([]Candidate, 0, len(all))
	for _, c := range all {
		if ast.Fits(parent, info.Field, c.Build("")) {
			out = append(out, c)
		}
	}
	return out
}

// Suggest ranks the candidates for id against query. Only the first word of
// query is matched; numeric or quoted input adds a literal proposal.
func Suggest(ix *index.Index, id, query string) []Suggestion {
	cands := Candidates(ix, id)
	if lit, ok := literal(query); ok {
		if parent, info, found := ix.ParentNode(id); found && ast.Fits(parent, info.Field, lit.Build(query)) {
			cands = append([]Candidate{lit}, cands...)
		}
	}
	key := ""
	if words := strings.Fields(query); len(words) > 0 {
		key = words[0]
	}
	options := make([]match.Option, len(cands))
	for i, c := range cands {
		options[i] = match.Option{Label: c.Label, Detail: c.Detail}
	}
	ranked := match.Rank(options, key)
	out := make([]Suggestion, len(ranked))
	for i, m := range ranked {
		out[i] = Suggestion{Candidate: cands[m.Index], Indices: m.Indices, Tier: m.Tier}
	}
	return out
}

func fromScope(ix *index.Index, id string) []Candidate {
	var out []Candidate
	for _, d := range scope.Variables(ix, id) {
		targetID, name := d.NodeID(), d.DeclName()
		typ, _ := ast.Scalar(d, ast.FieldType)
		out = append(out, Candidate{
			Label:  name,
			Detail: typ,
			Source: SourceScope,
			build: func([]string) ast.Node {
				return &ast.Reference{ID: ast.NewID(), TargetID: targetID}
			},
		}, Candidate{
			Label:  name + " =",
			Detail: "assign " + typ,
			Source: SourceScope,
			build: func([]string) ast.Node {
				return &ast.AssignmentExpression{ID: ast.NewID(), TargetID: targetID, Value: ast.NewUnknown("")}
			},
		})
	}
	for _, d := range scope.Functions(ix, id) {
		targetID, name := d.NodeID(), d.DeclName()
		ret, _ := ast.Scalar(d, ast.FieldReturnType)
		arity := ast.ListLen(d, ast.FieldParameterList)
		out = append(out, Candidate{
			Label:  name + "()",
			Detail: ret,
			Source: SourceScope,
			build: func([]string) ast.Node {
				call := &ast.CallExpression{ID: ast.NewID(), TargetID: targetID, Name: name}
				for i := 0; i < arity; i++ {
					call.Arguments = append(call.Arguments, ast.NewUnknown(""))
				}
				return call
			},
		})
	}
	return out
}

func templates() []Candidate {
	out := []Candidate{
		{Label: "if", Detail: "if statement", Source: SourceTemplate, build: func([]string) ast.Node {
			return &ast.IfStatement{
				ID:        ast.NewID(),
				Condition: ast.NewUnknown(""),
				Body:      &ast.CompoundStatement{ID: ast.NewID()},
			}
		}},
		{Label: "else", Detail: "else clause", Source: SourceTemplate, build: func([]string) ast.Node {
			return &ast.ElseClause{ID: ast.NewID(), Body: &ast.CompoundStatement{ID: ast.NewID()}}
		}},
		{Label: "return", Detail: "return statement", Source: SourceTemplate, build: func(args []string) ast.Node {
			ret := &ast.ReturnStatement{ID: ast.NewID()}
			if len(args) > 0 {
				ret.Value = ast.NewUnknown(strings.Join(args, " "))
			}
			return ret
		}},
		{Label: "{}", Detail: "block", Source: SourceTemplate, build: func([]string) ast.Node {
			return &ast.CompoundStatement{ID: ast.NewID()}
		}},
		{Label: "#include", Detail: "include directive", Source: SourceTemplate, build: func(args []string) ast.Node {
			path := first(args, "")
			system := strings.HasPrefix(path, "<")
			return &ast.Include{ID: ast.NewID(), Path: strings.Trim(path, `<>"`), System: system}
		}},
		{Label: "//", Detail: "comment", Source: SourceTemplate, build: func(args []string) ast.Node {
			return &ast.Comment{ID: ast.NewID(), Text: strings.Join(args, " ")}
		}},
		{Label: "function", Detail: "function definition", Source: SourceTemplate, build: func(args []string) ast.Node {
			typ, name := typeAndName(args)
			return &ast.FunctionDefinition{
				ID:         ast.NewID(),
				Name:       name,
				ReturnType: typ,
				Body:       &ast.CompoundStatement{ID: ast.NewID()},
			}
		}},
		{Label: "prototype", Detail: "function declaration", Source: SourceTemplate, build: func(args []string) ast.Node {
			typ, name := typeAndName(args)
			return &ast.FunctionDeclaration{ID: ast.NewID(), Name: name, ReturnType: typ}
		}},
	}
	for _, typ := range types {
		out = append(out,
			Candidate{Label: typ, Detail: "variable", Source: SourceTemplate, build: func(args []string) ast.Node {
				return &ast.VariableDeclaration{ID: ast.NewID(), Type: typ, Name: first(args, "")}
			}},
			Candidate{Label: typ, Detail: "parameter", Source: SourceTemplate, build: func(args []string) ast.Node {
				return &ast.Parameter{ID: ast.NewID(), Type: typ, Name: first(args, "")}
			}},
		)
	}
	for _, op := range operators {
		out = append(out, Candidate{Label: op, Detail: "binary expression", Source: SourceTemplate, build: func([]string) ast.Node {
			return &ast.BinaryExpression{
				ID:       ast.NewID(),
				Left:     ast.NewUnknown(""),
				Operator: op,
				Right:    ast.NewUnknown(""),
			}
		}})
	}
	return out
}

func literal(query string) (Candidate, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Candidate{}, false
	}
	if _, err := strconv.ParseFloat(q, 64); err == nil {
		return Candidate{Label: q, Detail: "number", Source: SourceLiteral, build: func([]string) ast.Node {
			return &ast.NumberLiteral{ID: ast.NewID(), Value: q}
		}}, true
	}
	if strings.HasPrefix(q, `"`) {
		text := strings.TrimSuffix(strings.TrimPrefix(q, `"`), `"`)
		return Candidate{Label: strings.Fields(q)[0], Detail: "string", Source: SourceLiteral, build: func([]string) ast.Node {
			return &ast.StringLiteral{ID: ast.NewID(), Value: text}
		}}, true
	}
	return Candidate{}, false
}

func typeAndName(args []string) (string, string) {
	switch len(args) {
	case 0:
		return "int", ""
	case 1:
		return "int", args[0]
	default:
		return args[0], args[1]
	}
}

func first(args []string, fallback string) string {
	if len(args) == 0 {
		return fallback
	}
	return args[0]
}
