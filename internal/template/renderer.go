package template

import (
	"errors"
	"fmt"
	"strings"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"go.starlark.net/starlark"
	"golang.org/x/net/html"
)

// renderer renders a parsed template against one execution context.
type renderer struct {
	file       string
	ctx        *starctx.ExecutionContext
	autoescape bool
}

// RenderString parses and renders a template that uses only the built-in
// statements, with autoescaping disabled.
func RenderString(input, file string, ctx *starctx.ExecutionContext) (string, error) {
	tmpl, err := ParseString(input, file)
	if err != nil {
		return "", err
	}
	r := &renderer{file: file, ctx: ctx}
	return r.render(tmpl.Nodes)
}

// render renders nodes and returns the full output, or no output on error.
func (r *renderer) render(nodes []Node) (string, error) {
	var sb strings.Builder
	if err := r.renderNodes(&sb, nodes); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *renderer) renderNodes(sb *strings.Builder, nodes []Node) error {
	for _, node := range nodes {
		if err := r.renderNode(sb, node); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderNode(sb *strings.Builder, node Node) error {
	switch n := node.(type) {
	case *TextNode:
		sb.WriteString(n.Text)
		return nil
	case *ExprNode:
		return r.renderExpr(sb, n)
	case *ForBlock:
		return r.renderFor(sb, n)
	case *IfBlock:
		return r.renderIf(sb, n)
	case *CallExtension:
		return r.renderExtension(sb, n)
	default:
		return NewRenderErrorf(node.Pos(), "unknown node type %T", node)
	}
}

func (r *renderer) renderExpr(sb *strings.Builder, n *ExprNode) error {
	v, err := r.ctx.EvalExpr(n.Expr, r.file, n.pos.Line)
	if err != nil {
		return WrapRenderError(n.pos, "expression failed", err)
	}

	if safe, ok := v.(starctx.SafeString); ok {
		sb.WriteString(string(safe))
		return nil
	}

	text := starctx.ToText(v)
	if r.autoescape {
		text = html.EscapeString(text)
	}
	sb.WriteString(text)
	return nil
}

func (r *renderer) renderFor(sb *strings.Builder, n *ForBlock) error {
	seq, err := r.ctx.EvalExpr(n.IterExpr, r.file, n.pos.Line)
	if err != nil {
		return WrapRenderError(n.pos, "for iterator failed", err)
	}

	iter := starlark.Iterate(seq)
	if iter == nil {
		return NewRenderErrorf(n.pos, "cannot iterate over %s", seq.Type())
	}
	defer iter.Done()

	for i := len(n.VarNames) - 1; i >= 0; i-- {
		restore := r.ctx.Save(n.VarNames[i])
		defer restore()
	}

	var item starlark.Value
	for iter.Next(&item) {
		if err := r.bindLoopVars(n, item); err != nil {
			return err
		}
		if err := r.renderNodes(sb, n.Body); err != nil {
			return err
		}
	}
	return nil
}

// bindLoopVars assigns one iteration's item to the loop variables, unpacking
// it when the loop declares more than one name.
func (r *renderer) bindLoopVars(n *ForBlock, item starlark.Value) error {
	if len(n.VarNames) == 1 {
		r.ctx.Set(n.VarNames[0], item)
		return nil
	}

	indexable, ok := item.(starlark.Indexable)
	if !ok {
		return NewRenderErrorf(n.pos, "cannot unpack %s into %d variables", item.Type(), len(n.VarNames))
	}
	if indexable.Len() != len(n.VarNames) {
		return NewRenderErrorf(n.pos, "cannot unpack %d values into %d variables", indexable.Len(), len(n.VarNames))
	}
	for i, name := range n.VarNames {
		r.ctx.Set(name, indexable.Index(i))
	}
	return nil
}

func (r *renderer) renderIf(sb *strings.Builder, n *IfBlock) error {
	ok, err := r.truth(n.Condition, n.pos)
	if err != nil {
		return err
	}
	if ok {
		return r.renderNodes(sb, n.Body)
	}

	for _, branch := range n.ElseIfs {
		ok, err := r.truth(branch.Condition, branch.pos)
		if err != nil {
			return err
		}
		if ok {
			return r.renderNodes(sb, branch.Body)
		}
	}

	return r.renderNodes(sb, n.Else)
}

func (r *renderer) truth(cond string, pos Position) (bool, error) {
	v, err := r.ctx.EvalExpr(cond, r.file, pos.Line)
	if err != nil {
		return false, WrapRenderError(pos, "condition failed", err)
	}
	return bool(v.Truth()), nil
}

func (r *renderer) renderExtension(sb *strings.Builder, n *CallExtension) error {
	args, err := r.evalSignature(n.Signature)
	if err != nil {
		return WrapRenderError(n.pos, fmt.Sprintf("arguments to '%s' failed", n.Tag), err)
	}

	bodies := make([]Body, len(n.Bodies))
	for i, list := range n.Bodies {
		bodies[i] = r.body(list)
	}

	out, err := n.Ext.Run(r.ctx, args, bodies)
	if err != nil {
		var renderErr *RenderError
		if errors.As(err, &renderErr) {
			return err
		}
		return WrapRenderError(n.pos, fmt.Sprintf("'%s' block failed", n.Tag), err)
	}

	sb.WriteString(string(out))
	return nil
}

// evalSignature evaluates block arguments in order.
func (r *renderer) evalSignature(sig *Signature) ([]starlark.Value, error) {
	if sig == nil || sig.Arity == 0 {
		return nil, nil
	}

	v, err := r.ctx.EvalExpr(sig.Source, r.file, sig.Pos.Line)
	if err != nil {
		return nil, err
	}
	if !sig.Tuple {
		return []starlark.Value{v}, nil
	}

	tuple, ok := v.(starlark.Tuple)
	if !ok || tuple.Len() != sig.Arity {
		return nil, fmt.Errorf("expected %d arguments, got %s", sig.Arity, v.Type())
	}
	return []starlark.Value(tuple), nil
}

// body returns the thunk for a captured fragment, or nil for an absent one.
func (r *renderer) body(list *NodeList) Body {
	if list == nil {
		return nil
	}
	return func() (string, error) {
		var sb strings.Builder
		if err := r.renderNodes(&sb, list.Nodes); err != nil {
			return "", err
		}
		return sb.String(), nil
	}
}
