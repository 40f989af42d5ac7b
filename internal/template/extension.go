package template

import (
	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"go.starlark.net/starlark"
)

// Body renders a captured template fragment against the live render context.
// It may be called any number of times during one Run; each call sees the
// context as it is at that moment.
type Body func() (string, error)

// Extension is a custom block tag.
//
// Parse is called with the parser positioned just after the opening statement
// and must consume everything up to and including the block's end statement.
// Run is called at render time with the evaluated arguments in signature order
// and one Body per captured fragment in capture order. A fragment that was not
// present in the source is passed as a nil Body. Run's output is written as-is.
type Extension interface {
	Tags() []string
	Parse(p *Parser, open Statement) (*CallExtension, error)
	Run(ctx *starctx.ExecutionContext, args []starlark.Value, bodies []Body) (starctx.SafeString, error)
}

// Signature is the parsed argument list of a block tag.
type Signature struct {
	Source string   // Argument source, evaluated as one Starlark expression
	Arity  int      // Number of arguments
	Tuple  bool     // Source evaluates to a tuple holding the arguments
	Pos    Position // Position of the opening statement
}

// CallExtension is the AST node produced by an extension's Parse. It pairs the
// parsed arguments with the ordered list of captured fragments.
type CallExtension struct {
	nodeBase
	Ext       Extension
	Tag       string
	Signature *Signature
	Bodies    []*NodeList // nil entries are absent fragments
}

// NewCallExtension creates the node for a block opened by the open statement.
func NewCallExtension(ext Extension, open Statement, sig *Signature, bodies ...*NodeList) *CallExtension {
	return &CallExtension{
		nodeBase:  nodeBase{pos: open.Pos},
		Ext:       ext,
		Tag:       open.Keyword,
		Signature: sig,
		Bodies:    bodies,
	}
}
