package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"graft/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseError is returned when a file cannot be turned into a Tree.
// Callers treat it as recoverable: the file is logged and excluded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Frontend wraps a Tree-sitter Python parser. A Frontend is not safe for
// concurrent use; the scanner pools one per worker.
type Frontend struct {
	parser *sitter.Parser
}

// NewFrontend creates a Python front-end.
func NewFrontend() *Frontend {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Frontend{parser: parser}
}

// Parse converts one file's text into a Tree. Files whose AST contains
// syntax errors are rejected wholesale rather than half-extracted.
func (f *Frontend) Parse(ctx context.Context, path string, content []byte) (*Tree, error) {
	start := time.Now()
	logging.SyntaxDebug("parsing %s", filepath.Base(path))

	raw, err := f.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer raw.Close()

	root := raw.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("source contains syntax errors")}
	}

	c := &converter{src: content}
	tree := &Tree{}
	c.walkModule(root, tree)

	logging.SyntaxDebug("parsed %s: %d imports, %d classes, %d functions in %v",
		filepath.Base(path), len(tree.Imports), len(tree.Classes), len(tree.Functions), time.Since(start))
	return tree, nil
}

type converter struct {
	src []byte
}

func (c *converter) text(n *sitter.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// walkModule collects imports, classes and functions from the whole file,
// recursing into every scope.
func (c *converter) walkModule(node *sitter.Node, tree *Tree) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			tree.Imports = append(tree.Imports, c.importTargets(child)...)

		case "import_from_statement":
			if mod := child.ChildByFieldName("module_name"); mod != nil {
				tree.Imports = append(tree.Imports, ImportDecl{Target: c.text(mod), Line: line(child)})
			}

		case "class_definition":
			tree.Classes = append(tree.Classes, c.parseClass(child))
			if body := child.ChildByFieldName("body"); body != nil {
				c.walkModule(body, tree)
			}

		case "function_definition":
			tree.Functions = append(tree.Functions, c.parseFunc(child, nil))
			if body := child.ChildByFieldName("body"); body != nil {
				c.walkModule(body, tree)
			}

		case "decorated_definition":
			c.walkDecorated(child, tree)

		default:
			c.walkModule(child, tree)
		}
	}
}

// walkDecorated handles a decorated class or function definition.
func (c *converter) walkDecorated(node *sitter.Node, tree *Tree) {
	var decorators []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "decorator" {
			if name := c.decoratorName(child); name != "" {
				decorators = append(decorators, name)
			}
		}
	}

	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	switch def.Type() {
	case "function_definition":
		tree.Functions = append(tree.Functions, c.parseFunc(def, decorators))
		if body := def.ChildByFieldName("body"); body != nil {
			c.walkModule(body, tree)
		}
	case "class_definition":
		tree.Classes = append(tree.Classes, c.parseClass(def))
		if body := def.ChildByFieldName("body"); body != nil {
			c.walkModule(body, tree)
		}
	}
}

// importTargets expands `import a.b, c as d` into one decl per target.
func (c *converter) importTargets(node *sitter.Node) []ImportDecl {
	var decls []ImportDecl
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			decls = append(decls, ImportDecl{Target: c.text(child), Line: line(node)})
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				decls = append(decls, ImportDecl{Target: c.text(name), Line: line(node)})
			}
		}
	}
	return decls
}

// decoratorName extracts the trailing name of a decorator expression:
// @get, @app.get, @router.get("/x") all yield "get".
func (c *converter) decoratorName(node *sitter.Node) string {
	if node.NamedChildCount() == 0 {
		return ""
	}
	return trailingName(node.NamedChild(0), c.src)
}

// trailingName resolves identifier / attribute / call expressions to their
// last name component.
func trailingName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "identifier":
		return string(src[n.StartByte():n.EndByte()])
	case "attribute":
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			return string(src[attr.StartByte():attr.EndByte()])
		}
	case "call":
		if fn := n.ChildByFieldName("function"); fn != nil {
			return trailingName(fn, src)
		}
	}
	return ""
}

func (c *converter) parseClass(node *sitter.Node) ClassDecl {
	decl := ClassDecl{Line: line(node)}
	if name := node.ChildByFieldName("name"); name != nil {
		decl.Name = c.text(name)
	}

	// Positional bases only; keyword arguments (metaclass=...) are not bases.
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			if base.Type() == "keyword_argument" {
				continue
			}
			decl.Bases = append(decl.Bases, c.text(base))
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			stmt := body.NamedChild(i)
			if stmt.Type() != "expression_statement" {
				continue
			}
			for j := 0; j < int(stmt.NamedChildCount()); j++ {
				if inner := stmt.NamedChild(j); inner.Type() == "assignment" {
					if a := c.parseAssign(inner); a != nil {
						decl.Assigns = append(decl.Assigns, *a)
					}
				}
			}
		}
	}
	return decl
}

func (c *converter) parseFunc(node *sitter.Node, decorators []string) FuncDecl {
	decl := FuncDecl{Line: line(node), Decorators: decorators}
	if name := node.ChildByFieldName("name"); name != nil {
		decl.Name = c.text(name)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		decl.Body = c.convertBlock(body)
	}
	return decl
}

func (c *converter) convertBlock(block *sitter.Node) []Stmt {
	var out []Stmt
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if s := c.convertStmt(block.NamedChild(i)); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// convertStmt maps one Tree-sitter statement onto the closed variant model.
// Each variant counts `and` operators in its own header expressions; nested
// blocks become Children and count their own.
func (c *converter) convertStmt(n *sitter.Node) *Stmt {
	switch n.Type() {
	case "if_statement":
		s := &Stmt{Kind: StmtIf, Line: line(n), AndOps: c.countAnds(n)}
		if body := n.ChildByFieldName("consequence"); body != nil {
			s.Children = c.convertBlock(body)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "elif_clause":
				// elif is a decision point of its own.
				nested := Stmt{Kind: StmtIf, Line: line(child), AndOps: c.countAnds(child)}
				if body := child.ChildByFieldName("consequence"); body != nil {
					nested.Children = c.convertBlock(body)
				}
				s.Children = append(s.Children, nested)
			case "else_clause":
				if body := child.ChildByFieldName("body"); body != nil {
					s.Children = append(s.Children, c.convertBlock(body)...)
				}
			}
		}
		return s

	case "while_statement":
		s := &Stmt{Kind: StmtWhile, Line: line(n), AndOps: c.countAnds(n)}
		s.Children = c.childBlocks(n)
		return s

	case "for_statement":
		s := &Stmt{Kind: StmtFor, Line: line(n), AndOps: c.countAnds(n)}
		s.Children = c.childBlocks(n)
		return s

	case "with_statement":
		s := &Stmt{Kind: StmtWith, Line: line(n), AndOps: c.countAnds(n)}
		s.Children = c.childBlocks(n)
		return s

	case "try_statement":
		s := &Stmt{Kind: StmtTry, Line: line(n), AndOps: c.countAnds(n)}
		s.Children = c.childBlocks(n)
		return s

	case "expression_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if inner := n.NamedChild(i); inner.Type() == "assignment" {
				s := &Stmt{Kind: StmtAssign, Line: line(n), AndOps: c.countAnds(n)}
				s.Assign = c.parseAssign(inner)
				return s
			}
		}
		return &Stmt{Kind: StmtExpr, Line: line(n), AndOps: c.countAnds(n)}

	case "function_definition", "class_definition", "decorated_definition":
		// Nested scope: not a branching construct itself, but its body
		// still contributes to the enclosing function's count.
		s := &Stmt{Kind: StmtOther, Line: line(n)}
		s.Children = c.childBlocks(n)
		return s

	default:
		s := &Stmt{Kind: StmtOther, Line: line(n), AndOps: c.countAnds(n)}
		s.Children = c.childBlocks(n)
		return s
	}
}

// childBlocks converts every block found directly under the node or under
// one of its clauses (except/else/finally and the like).
func (c *converter) childBlocks(n *sitter.Node) []Stmt {
	var out []Stmt
	var visit func(node *sitter.Node, depth int)
	visit = func(node *sitter.Node, depth int) {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "block" {
				out = append(out, c.convertBlock(child)...)
				continue
			}
			// Clauses (except_clause, else_clause, finally_clause,
			// with_clause) sit one level above their blocks.
			if depth == 0 {
				visit(child, depth+1)
			}
		}
	}
	visit(n, 0)
	return out
}

// countAnds counts binary `and` operators in the node's own expressions,
// stopping at nested blocks and clauses so children statements are not
// double counted. A chain `a and b and c` parses as two nested binary
// nodes, giving operands-1.
func (c *converter) countAnds(n *sitter.Node) int {
	stop := map[string]bool{
		"block":          true,
		"elif_clause":    true,
		"else_clause":    true,
		"except_clause":  true,
		"finally_clause": true,
	}

	count := 0
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		if stop[node.Type()] {
			return
		}
		if node.Type() == "boolean_operator" {
			if op := node.ChildByFieldName("operator"); op != nil && c.text(op) == "and" {
				count++
			}
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			visit(node.NamedChild(i))
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		visit(n.NamedChild(i))
	}
	return count
}

func (c *converter) parseAssign(n *sitter.Node) *Assign {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return nil
	}

	a := &Assign{Target: c.text(left), Line: line(n)}
	if right.Type() != "call" {
		return a
	}

	if fn := right.ChildByFieldName("function"); fn != nil {
		a.CallName = trailingName(fn, c.src)
	}
	if args := right.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg.Type() == "keyword_argument" {
				continue
			}
			if arg.Type() == "identifier" {
				a.FirstArg = c.text(arg)
			}
			break // only the first positional argument matters
		}
	}
	return a
}
