// Package syntax is the Python front-end. It parses one source file with
// Tree-sitter and converts the raw AST into a small closed node model that
// the rest of the pipeline pattern-matches on. Downstream code never probes
// Tree-sitter node types directly.
package syntax

// Tree is the parsed structural view of one Python source file.
// All slices are in document order. The tree is immutable after Parse.
type Tree struct {
	Imports   []ImportDecl
	Classes   []ClassDecl // every class in the file, nested included
	Functions []FuncDecl  // every def in the file, methods included
}

// ImportDecl is one imported target. `import a.b, c` produces two decls,
// `from a.b import x, y` produces one decl for "a.b".
type ImportDecl struct {
	Target string // raw dotted target, e.g. "app.models" or ".util"
	Line   int    // 1-based
}

// ClassDecl is a class definition with the pieces the extractors need:
// base-type names and direct-body assignments.
type ClassDecl struct {
	Name    string
	Bases   []string // raw source text of each positional base
	Line    int
	Assigns []Assign // direct body assignments only, not nested scopes
}

// FuncDecl is a function or method definition.
type FuncDecl struct {
	Name       string
	Decorators []string // trailing decorator names ("get" for @app.get(...))
	Line       int
	Body       []Stmt
}

// StmtKind enumerates the closed statement variants.
type StmtKind int

const (
	StmtOther StmtKind = iota
	StmtIf             // if / elif
	StmtWhile
	StmtFor
	StmtWith
	StmtTry
	StmtAssign
	StmtExpr
)

// Stmt is one statement in a function body. Compound statements carry their
// nested blocks in Children; AndOps counts binary `and` operators in this
// statement's own expressions (children blocks count their own).
type Stmt struct {
	Kind     StmtKind
	Line     int
	AndOps   int
	Assign   *Assign // set when Kind == StmtAssign
	Children []Stmt
}

// Assign is a simple-target assignment. CallName is the trailing name of
// the right-hand-side call ("" when the RHS is not a call); FirstArg is the
// first positional argument when it is a bare identifier, else "".
type Assign struct {
	Target   string
	CallName string
	FirstArg string
	Line     int
}

// Walk visits every statement in the subtree, depth first.
func Walk(stmts []Stmt, visit func(*Stmt)) {
	for i := range stmts {
		visit(&stmts[i])
		Walk(stmts[i].Children, visit)
	}
}
