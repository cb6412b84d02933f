package ast

// Node is implemented by every element of the tree.
type Node interface {
	NodeID() string
	Kind() Kind
}

// Kind enumerates the node variants.
type Kind string

const (
	KindSourceFile          Kind = "sourceFile"
	KindInclude             Kind = "preprocessorInclude"
	KindFunctionDeclaration Kind = "functionDeclaration"
	KindFunctionDefinition  Kind = "functionDefinition"
	KindVariableDeclaration Kind = "variableDeclaration"
	KindParameter           Kind = "functionParameter"
	KindComment             Kind = "comment"
	KindUnknown             Kind = "unknown"

	KindCompoundStatement Kind = "compoundStatement"
	KindIfStatement       Kind = "ifStatement"
	KindElseClause        Kind = "elseClause"
	KindReturnStatement   Kind = "returnStatement"

	KindCallExpression       Kind = "callExpression"
	KindReference            Kind = "reference"
	KindAssignmentExpression Kind = "assignmentExpression"
	KindNumberLiteral        Kind = "numberLiteral"
	KindStringLiteral        Kind = "stringLiteral"
	KindBinaryExpression     Kind = "binaryExpression"
)

// Kinds lists every variant, root first.
func Kinds() []Kind {
	return []Kind{
		KindSourceFile, KindInclude, KindFunctionDeclaration, KindFunctionDefinition,
		KindVariableDeclaration, KindParameter, KindComment, KindUnknown,
		KindCompoundStatement, KindIfStatement, KindElseClause, KindReturnStatement,
		KindCallExpression, KindReference, KindAssignmentExpression,
		KindNumberLiteral, KindStringLiteral, KindBinaryExpression,
	}
}

// Decl is a node that may occupy a top-level slot of a source file.
type Decl interface {
	Node
	isDecl()
}

// Param is a node that may occupy a parameter list slot.
type Param interface {
	Node
	isParam()
}

// Block is a node that may occupy a function body slot.
type Block interface {
	Node
	isBlock()
}

// Statement is a node that may occupy a compound statement slot or the body
// of an if/else.
type Statement interface {
	Node
	isStatement()
}

// ElseBranch is a node that may occupy the else slot of an if statement.
type ElseBranch interface {
	Node
	isElseBranch()
}

// Expr is a node that may occupy an expression slot.
type Expr interface {
	Node
	isExpr()
}

// Declaration is a named binding that participates in scope resolution.
type Declaration interface {
	Node
	DeclName() string
}

// SourceFile is the root of a document.
type SourceFile struct {
	ID           string
	Path         string
	Declarations []Decl
}

// Include is a preprocessor include directive.
type Include struct {
	ID     string
	Path   string
	System bool
}

// FunctionDeclaration is a prototype without a body.
type FunctionDeclaration struct {
	ID         string
	Name       string
	ReturnType string
	Parameters []Param
}

// FunctionDefinition is a function with a body.
type FunctionDefinition struct {
	ID         string
	Name       string
	ReturnType string
	Parameters []Param
	Body       Block
}

// VariableDeclaration declares a variable with an optional initializer.
type VariableDeclaration struct {
	ID    string
	Name  string
	Type  string
	Value Expr
}

// Parameter is a single function parameter.
type Parameter struct {
	ID   string
	Name string
	Type string
}

// Comment holds comment text without delimiters.
type Comment struct {
	ID   string
	Text string
}

// Unknown is a placeholder for code that has not been resolved to a typed
// construct yet. It is valid in every slot.
type Unknown struct {
	ID   string
	Text string
}

// CompoundStatement is a braced statement list.
type CompoundStatement struct {
	ID         string
	Statements []Statement
}

// IfStatement has a required condition and body and an optional else.
type IfStatement struct {
	ID        string
	Condition Expr
	Body      Statement
	Else      ElseBranch
}

// ElseClause is the else branch of an if statement.
type ElseClause struct {
	ID   string
	Body Statement
}

// ReturnStatement returns an optional value.
type ReturnStatement struct {
	ID    string
	Value Expr
}

// CallExpression calls the function identified by TargetID. Name is the
// callee text used when the target cannot be resolved.
type CallExpression struct {
	ID        string
	TargetID  string
	Name      string
	Arguments []Expr
}

// Reference names the declaration identified by TargetID.
type Reference struct {
	ID       string
	TargetID string
}

// AssignmentExpression assigns Value to the declaration identified by TargetID.
type AssignmentExpression struct {
	ID       string
	TargetID string
	Value    Expr
}

// NumberLiteral keeps the literal text as written.
type NumberLiteral struct {
	ID    string
	Value string
}

// StringLiteral keeps the unquoted literal text.
type StringLiteral struct {
	ID    string
	Value string
}

// BinaryExpression applies Operator to Left and Right.
type BinaryExpression struct {
	ID       string
	Left     Expr
	Operator string
	Right    Expr
}

func (n *SourceFile) NodeID() string           { return n.ID }
func (n *Include) NodeID() string              { return n.ID }
func (n *FunctionDeclaration) NodeID() string  { return n.ID }
func (n *FunctionDefinition) NodeID() string   { return n.ID }
func (n *VariableDeclaration) NodeID() string  { return n.ID }
func (n *Parameter) NodeID() string            { return n.ID }
func (n *Comment) NodeID() string              { return n.ID }
func (n *Unknown) NodeID() string              { return n.ID }
func (n *CompoundStatement) NodeID() string    { return n.ID }
func (n *IfStatement) NodeID() string          { return n.ID }
func (n *ElseClause) NodeID() string           { return n.ID }
func (n *ReturnStatement) NodeID() string      { return n.ID }
func (n *CallExpression) NodeID() string       { return n.ID }
func (n *Reference) NodeID() string            { return n.ID }
func (n *AssignmentExpression) NodeID() string { return n.ID }
func (n *NumberLiteral) NodeID() string        { return n.ID }
func (n *StringLiteral) NodeID() string        { return n.ID }
func (n *BinaryExpression) NodeID() string     { return n.ID }

func (*SourceFile) Kind() Kind           { return KindSourceFile }
func (*Include) Kind() Kind              { return KindInclude }
func (*FunctionDeclaration) Kind() Kind  { return KindFunctionDeclaration }
func (*FunctionDefinition) Kind() Kind   { return KindFunctionDefinition }
func (*VariableDeclaration) Kind() Kind  { return KindVariableDeclaration }
func (*Parameter) Kind() Kind            { return KindParameter }
func (*Comment) Kind() Kind              { return KindComment }
func (*Unknown) Kind() Kind              { return KindUnknown }
func (*CompoundStatement) Kind() Kind    { return KindCompoundStatement }
func (*IfStatement) Kind() Kind          { return KindIfStatement }
func (*ElseClause) Kind() Kind           { return KindElseClause }
func (*ReturnStatement) Kind() Kind      { return KindReturnStatement }
func (*CallExpression) Kind() Kind       { return KindCallExpression }
func (*Reference) Kind() Kind            { return KindReference }
func (*AssignmentExpression) Kind() Kind { return KindAssignmentExpression }
func (*NumberLiteral) Kind() Kind        { return KindNumberLiteral }
func (*StringLiteral) Kind() Kind        { return KindStringLiteral }
func (*BinaryExpression) Kind() Kind     { return KindBinaryExpression }

// Top-level family.
func (*Include) isDecl()             {}
func (*FunctionDeclaration) isDecl() {}
func (*FunctionDefinition) isDecl()  {}
func (*VariableDeclaration) isDecl() {}
func (*Comment) isDecl()             {}
func (*Unknown) isDecl()             {}

func (*Parameter) isParam() {}
func (*Unknown) isParam()   {}

func (*CompoundStatement) isBlock() {}
func (*Unknown) isBlock()           {}

func (*ElseClause) isElseBranch() {}
func (*Unknown) isElseBranch()    {}

// Statement family.
func (*VariableDeclaration) isStatement()  {}
func (*FunctionDeclaration) isStatement()  {}
func (*Comment) isStatement()              {}
func (*CompoundStatement) isStatement()    {}
func (*IfStatement) isStatement()          {}
func (*ReturnStatement) isStatement()      {}
func (*CallExpression) isStatement()       {}
func (*Reference) isStatement()            {}
func (*AssignmentExpression) isStatement() {}
func (*NumberLiteral) isStatement()        {}
func (*StringLiteral) isStatement()        {}
func (*BinaryExpression) isStatement()     {}
func (*Unknown) isStatement()              {}

// Expression family.
func (*CallExpression) isExpr()       {}
func (*Reference) isExpr()            {}
func (*AssignmentExpression) isExpr() {}
func (*NumberLiteral) isExpr()        {}
func (*StringLiteral) isExpr()        {}
func (*BinaryExpression) isExpr()     {}
func (*Unknown) isExpr()              {}

func (n *VariableDeclaration) DeclName() string { return n.Name }
func (n *Parameter) DeclName() string           { return n.Name }
func (n *FunctionDeclaration) DeclName() string { return n.Name }
func (n *FunctionDefinition) DeclName() string  { return n.Name }
