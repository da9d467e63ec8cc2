// Package astutil wraps tree-sitter parsing for the JavaScript/TypeScript
// family of source files neurolint operates on, and provides small
// AST-walking helpers used by the server-action hardening layer.
package astutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"neurolint/internal/logging"
)

// Dialect identifies which grammar a source file should be parsed with.
type Dialect string

const (
	DialectJavaScript Dialect = "javascript"
	DialectTypeScript Dialect = "typescript"
	DialectTSX        Dialect = "tsx" // also covers .jsx
)

// DialectForPath chooses a dialect from a file's extension. .tsx and .jsx
// both need the JSX-capable grammar: the plain "typescript" tree-sitter
// grammar cannot parse JSX syntax, which matters for this tool since JSX
// key-prop and dangerouslySetInnerHTML detection are JSX-heavy.
func DialectForPath(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts":
		return DialectTypeScript
	case ".tsx", ".jsx":
		return DialectTSX
	default:
		return DialectJavaScript
	}
}

// Tree wraps a parsed tree-sitter tree together with the source bytes it
// was parsed from, since nearly every walk needs both.
type Tree struct {
	Source []byte
	root   *sitter.Node
	tree   *sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// Root returns the tree's root node.
func (t *Tree) Root() *sitter.Node {
	return t.root
}

func parserFor(d Dialect) *sitter.Parser {
	p := sitter.NewParser()
	switch d {
	case DialectTypeScript:
		p.SetLanguage(typescript.GetLanguage())
	case DialectTSX:
		p.SetLanguage(tsx.GetLanguage())
	default:
		p.SetLanguage(javascript.GetLanguage())
	}
	return p
}

// Parse parses source with the grammar appropriate to path's extension.
// An error is returned only when the parser itself fails. A tree that
// parsed with syntax errors is still returned with a nil error (the
// errors are only logged), so callers that need valid syntax check
// Root().HasError() themselves.
func Parse(path string, source []byte) (*Tree, error) {
	d := DialectForPath(path)
	parser := parserFor(d)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		logging.ExtractDebug("astutil: parse failed for %s: %v", path, err)
		return nil, fmt.Errorf("astutil: failed to parse %s: %w", path, err)
	}
	root := tree.RootNode()
	if root == nil || root.HasError() {
		logging.ExtractDebug("astutil: %s parsed with syntax errors", path)
	}
	return &Tree{Source: source, root: root, tree: tree}, nil
}

// Text returns the verbatim source text spanned by node.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Line returns node's 1-indexed starting line.
func Line(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPoint().Row) + 1
}

// Walk performs a pre-order traversal over node and its named descendants,
// calling visit for every node. Traversal stops descending into a subtree
// when visit returns false for that node's children, but visit is always
// called for the node itself first.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		Walk(node.NamedChild(i), visit)
	}
}

// FindAll collects every named descendant of root (root included) whose
// Type() equals nodeType.
func FindAll(root *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() == nodeType {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Ancestors returns node's chain of parents, innermost first.
func Ancestors(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for p := node.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// EnclosingOfType walks up from node and returns the nearest ancestor
// whose Type() equals nodeType, or nil if none exists.
func EnclosingOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Type() == nodeType {
			return p
		}
	}
	return nil
}

// CalleeName returns the dotted callee text of a call_expression node,
// e.g. "console.log" or "eval", or "" if node is not a call_expression.
func CalleeName(node *sitter.Node, source []byte) string {
	if node == nil || node.Type() != "call_expression" {
		return ""
	}
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	return Text(fn, source)
}
