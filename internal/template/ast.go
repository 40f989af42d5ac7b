// Package template provides the template engine used to render views.
// It supports {{ expr }} for Starlark expression evaluation, {% stmt %} for control
// flow and registered block extensions, and {# comment #} for comments.
package template

import "strings"

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// Node is the interface for all template AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// TextNode represents literal text (passed through unchanged).
type TextNode struct {
	nodeBase
	Text string
}

// ExprNode represents a {{ expr }} expression.
// The Expr field contains the Starlark expression source (without delimiters).
type ExprNode struct {
	nodeBase
	Expr string
}

// Statement is a {% keyword args %} tag split into its keyword and argument source.
type Statement struct {
	Keyword string
	Args    string
	Pos     Position
}

// parseStatement splits raw statement content into keyword and arguments.
// A trailing ':' on the arguments is dropped ("if x:" and "if x" are equivalent).
func parseStatement(tok Token) Statement {
	content := strings.TrimSpace(tok.Value)
	keyword, args, _ := strings.Cut(content, " ")
	if i := strings.IndexAny(keyword, "\t\n("); i > 0 {
		args = keyword[i:] + " " + args
		keyword = keyword[:i]
	}
	keyword = strings.TrimSuffix(keyword, ":")
	args = strings.TrimSpace(args)
	args = strings.TrimSpace(strings.TrimSuffix(args, ":"))
	return Statement{Keyword: keyword, Args: args, Pos: tok.Pos}
}

// ForBlock represents a complete for loop with its body.
type ForBlock struct {
	nodeBase
	VarNames []string // Loop variable names; more than one unpacks each item
	IterExpr string   // Iterator expression (evaluated by Starlark)
	Body     []Node   // Nodes inside the loop
}

// IfBlock represents a complete if/elif/else conditional.
type IfBlock struct {
	nodeBase
	Condition string   // if condition expression
	Body      []Node   // Nodes for the if branch
	ElseIfs   []Branch // elif branches (may be empty)
	Else      []Node   // else branch (may be nil)
}

// Branch represents an elif branch.
type Branch struct {
	Condition string
	Body      []Node
	pos       Position
}

// NodeList is a captured template fragment, the source of a body thunk.
type NodeList struct {
	Nodes []Node
}

// Template represents a complete parsed template.
type Template struct {
	Nodes []Node
	File  string // Source file path
}
