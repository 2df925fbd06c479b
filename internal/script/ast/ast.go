// Package ast defines the Script Language's abstract syntax tree, produced
// once per file by internal/script/parser and walked by internal/script/interp.
package ast

import "github.com/bobsh/bob/internal/script/lexer"

// Node is any AST node.
type Node interface {
	Pos() lexer.Pos
}

// Program is the root node: a sequence of top-level statements.
type Program struct {
	Stmts []Stmt
	P     lexer.Pos
}

func (p *Program) Pos() lexer.Pos { return p.P }

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Base carries a node's source position and is embedded by every
// concrete node type.
type Base struct{ P lexer.Pos }

func (b Base) Pos() lexer.Pos { return b.P }

// --- Statements ---

// VarDecl is `var name [: type] [= value]`.
type VarDecl struct {
	Base
	Name  string
	Type  string // optional type annotation, empty if untyped
	Value Expr   // nil if uninitialized
}

func (*VarDecl) stmtNode() {}

// Assign is `target = value` where target is an Ident, FieldAccess, or Index.
type Assign struct {
	Base
	Target Expr
	Value  Expr
}

func (*Assign) stmtNode() {}

// FuncDecl is a named function or method declaration.
type FuncDecl struct {
	Base
	Name   string
	Params []string
	Body   *Block
	Static bool
}

func (*FuncDecl) stmtNode() {}

// ClassDecl is a class declaration with a body of statements (fields,
// methods, nested static members) evaluated in the class's static scope.
type ClassDecl struct {
	Base
	Name string
	Body []Stmt
}

func (*ClassDecl) stmtNode() {}

// ExternDecl declares a host-provided class or free function prototype,
// making its name resolvable without a script-side definition.
type ExternDecl struct {
	Base
	Name string
}

func (*ExternDecl) stmtNode() {}

// ImportStmt is `import a.b.c`.
type ImportStmt struct {
	Base
	Path []string // ["a", "b", "c"]
}

func (*ImportStmt) stmtNode() {}

// ExprStmt wraps an expression evaluated for side effects.
type ExprStmt struct {
	Base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// PrintStmt is `print expr`.
type PrintStmt struct {
	Base
	X Expr
}

func (*PrintStmt) stmtNode() {}

// AssertStmt is `assert cond[, message]`.
type AssertStmt struct {
	Base
	Cond    Expr
	Message Expr // nil if no message given
	Source  string
}

func (*AssertStmt) stmtNode() {}

// ReturnStmt is `return [value]`.
type ReturnStmt struct {
	Base
	Value Expr // nil for bare return
}

func (*ReturnStmt) stmtNode() {}

// BreakStmt is `break`.
type BreakStmt struct{ Base }

func (*BreakStmt) stmtNode() {}

// ContinueStmt is `continue`.
type ContinueStmt struct{ Base }

func (*ContinueStmt) stmtNode() {}

// Block is a brace-delimited statement list.
type Block struct {
	Base
	Stmts []Stmt
}

func (*Block) stmtNode() {}

// IfStmt is an if/elif/else chain; Elifs holds additional (cond, block)
// branches and Else is nil if there is no final else.
type IfStmt struct {
	Base
	Cond  Expr
	Then  *Block
	Elifs []ElifBranch
	Else  *Block
}

func (*IfStmt) stmtNode() {}

// ElifBranch is one `elif cond { ... }` branch.
type ElifBranch struct {
	Cond Expr
	Body *Block
}

// ForStmt is `for item in iterable { ... }`.
type ForStmt struct {
	Base
	Var      string
	Iterable Expr
	Body     *Block
}

func (*ForStmt) stmtNode() {}

// --- Expressions ---

// NoneLit is the `none` literal.
type NoneLit struct{ Base }

func (*NoneLit) exprNode() {}

// BoolLit is `true`/`false`.
type BoolLit struct {
	Base
	Value bool
}

func (*BoolLit) exprNode() {}

// IntLit is an integer literal.
type IntLit struct {
	Base
	Value int64
}

func (*IntLit) exprNode() {}

// StringLit is a string literal.
type StringLit struct {
	Base
	Value string
}

func (*StringLit) exprNode() {}

// Ident is an identifier reference; the `self` keyword parses to SelfExpr.
type Ident struct {
	Base
	Name string
}

func (*Ident) exprNode() {}

// VecLit is a vector literal `[e1, e2, ...]`.
type VecLit struct {
	Base
	Elems []Expr
}

func (*VecLit) exprNode() {}

// MapEntry is one `key: value` pair in a MapLit, in source order.
type MapEntry struct {
	Key   Expr
	Value Expr
}

// MapLit is a map literal `{k1: v1, ...}`, insertion-ordered.
type MapLit struct {
	Base
	Entries []MapEntry
}

func (*MapLit) exprNode() {}

// Unary is a unary expression (`-x`, `!x`).
type Unary struct {
	Base
	Op lexer.Kind
	X  Expr
}

func (*Unary) exprNode() {}

// Binary is a binary expression (arithmetic, comparison, logical).
type Binary struct {
	Base
	Op    lexer.Kind
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}

// Index is `a[k]`.
type Index struct {
	Base
	X     Expr
	Index Expr
}

func (*Index) exprNode() {}

// FieldAccess is `a.b`.
type FieldAccess struct {
	Base
	X     Expr
	Field string
}

func (*FieldAccess) exprNode() {}

// Call is `f(args)`, where f may itself be a FieldAccess for method calls.
type Call struct {
	Base
	Fn   Expr
	Args []Expr
}

func (*Call) exprNode() {}

// Lambda is `fn(params){ body }` or the short form `fn(params) expr`.
type Lambda struct {
	Base
	Params []string
	Body   *Block // for the block form
	Expr   Expr   // for the short form, nil if Body is set
}

func (*Lambda) exprNode() {}

// SelfExpr is the `self` keyword used as an expression.
type SelfExpr struct{ Base }

func (*SelfExpr) exprNode() {}
