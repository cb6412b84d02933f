// Package asttest builds small trees with readable ids for tests.
package asttest

import "github.com/lexcodex/structedit/framework/ast"

// Fixture is the program
//
//	int x;
//	int y;
//	int foo(int a) {
//		x;
//		return a;
//	}
//	int z;
type Fixture struct {
	File   *ast.SourceFile
	X      *ast.VariableDeclaration
	Y      *ast.VariableDeclaration
	Z      *ast.VariableDeclaration
	Foo    *ast.FunctionDefinition
	A      *ast.Parameter
	Body   *ast.CompoundStatement
	RefX   *ast.Reference
	Return *ast.ReturnStatement
	RefA   *ast.Reference
}

// Program returns a fresh Fixture.
func Program() *Fixture {
	f := &Fixture{
		X:    &ast.VariableDeclaration{ID: "x", Name: "x", Type: "int"},
		Y:    &ast.VariableDeclaration{ID: "y", Name: "y", Type: "int"},
		Z:    &ast.VariableDeclaration{ID: "z", Name: "z", Type: "int"},
		A:    &ast.Parameter{ID: "a", Name: "a", Type: "int"},
		RefX: &ast.Reference{ID: "ref-x", TargetID: "x"},
		RefA: &ast.Reference{ID: "ref-a", TargetID: "a"},
	}
	f.Return = &ast.ReturnStatement{ID: "ret", Value: f.RefA}
	f.Body = &ast.CompoundStatement{ID: "body", Statements: []ast.Statement{f.RefX, f.Return}}
	f.Foo = &ast.FunctionDefinition{
		ID:         "foo",
		Name:       "foo",
		ReturnType: "int",
		Parameters: []ast.Param{f.A},
		Body:       f.Body,
	}
	f.File = &ast.SourceFile{
		ID:           "file",
		Path:         "main.c",
		Declarations: []ast.Decl{f.X, f.Y, f.Foo, f.Z},
	}
	return f
}

// Identity returns the program
//
//	int foo(int x) { return x; }
//
// and the reference inside the return statement.
func Identity() (*ast.SourceFile, *ast.Reference) {
	ref := &ast.Reference{ID: "ref", TargetID: "px"}
	file := &ast.SourceFile{
		ID:   "file",
		Path: "identity.c",
		Declarations: []ast.Decl{
			&ast.FunctionDefinition{
				ID:         "foo",
				Name:       "foo",
				ReturnType: "int",
				Parameters: []ast.Param{&ast.Parameter{ID: "px", Name: "x", Type: "int"}},
				Body: &ast.CompoundStatement{ID: "body", Statements: []ast.Statement{
					&ast.ReturnStatement{ID: "ret", Value: ref},
				}},
			},
		},
	}
	return file, ref
}

// Block returns a function whose body holds the given statements and the
// source file that contains it.
func Block(stmts ...ast.Statement) (*ast.SourceFile, *ast.CompoundStatement) {
	body := &ast.CompoundStatement{ID: "body", Statements: stmts}
	file := &ast.SourceFile{
		ID: "file",
		Declarations: []ast.Decl{
			&ast.FunctionDefinition{ID: "main", Name: "main", ReturnType: "int", Body: body},
		},
	}
	return file, body
}
