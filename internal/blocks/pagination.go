package blocks

import (
	"fmt"
	"strings"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"github.com/leapstack-labs/leapview/internal/template"
	"go.starlark.net/starlark"
)

// PageVar is the render variable holding the page number of the marker being rendered.
const PageVar = "pageNo"

// Pagination renders a window of page markers around the current page:
//
//	{% pagination state, nrAround %}
//	  main body
//	{% current %}
//	  current-page body
//	{% dotdot %}
//	  separator body (optional)
//	{% endpagination %}
//
// state is a dict or struct with integer fields current and lastPage.
type Pagination struct{}

func (Pagination) Tags() []string { return []string{"pagination"} }

func (e Pagination) Parse(p *template.Parser, open template.Statement) (*template.CallExtension, error) {
	sig, err := p.ParseSignature(open)
	if err != nil {
		return nil, err
	}
	if err := requireArity(sig, open, 2); err != nil {
		return nil, err
	}

	main, err := p.ParseUntilBlocks("current", "endpagination")
	if err != nil {
		return nil, err
	}
	if err := p.AdvanceAfterBlockEnd("current"); err != nil {
		return nil, err
	}

	current, err := p.ParseUntilBlocks("dotdot", "endpagination")
	if err != nil {
		return nil, err
	}

	var separator *template.NodeList
	ok, err := p.SkipSymbol("dotdot")
	if err != nil {
		return nil, err
	}
	if ok {
		nodes, err := p.ParseUntilBlocks("endpagination")
		if err != nil {
			return nil, err
		}
		separator = &template.NodeList{Nodes: nodes}
	}

	if err := p.AdvanceAfterBlockEnd("endpagination"); err != nil {
		return nil, err
	}

	return template.NewCallExtension(e, open, sig,
		&template.NodeList{Nodes: main},
		&template.NodeList{Nodes: current},
		separator,
	), nil
}

func (Pagination) Run(ctx *starctx.ExecutionContext, args []starlark.Value, bodies []template.Body) (starctx.SafeString, error) {
	current, err := intField(args[0], "current")
	if err != nil {
		return "", err
	}
	last, err := intField(args[0], "lastPage")
	if err != nil {
		return "", err
	}
	radius, err := starlark.AsInt32(args[1])
	if err != nil {
		return "", fmt.Errorf("nrAround: %w", err)
	}

	main, currentBody, separator := bodies[0], bodies[1], bodies[2]
	start, end := Window(current, last, radius)

	restore := ctx.Save(PageVar)
	defer restore()

	var sb strings.Builder
	emit := func(body template.Body) error {
		out, err := body()
		if err != nil {
			return err
		}
		sb.WriteString(out)
		return nil
	}

	if separator != nil && start > 1 {
		if err := emit(separator); err != nil {
			return "", err
		}
	}

	for i := start; i <= end; i++ {
		ctx.Set(PageVar, starlark.MakeInt(i))
		body := main
		if i == current {
			body = currentBody
		}
		if err := emit(body); err != nil {
			return "", err
		}
	}

	if separator != nil && end < last {
		if err := emit(separator); err != nil {
			return "", err
		}
	}

	return starctx.SafeString(sb.String()), nil
}

// Window returns the inclusive range of pages shown around current.
// The window is shifted to stay inside [1, last] and keeps the width
// 2*radius+1 when last allows it. Inputs are not validated.
func Window(current, last, radius int) (start, end int) {
	start = current - radius
	end = current + radius

	if start < 1 {
		end += 1 - start
		start = 1
	}
	if end > last {
		start -= end - last
		end = last
	}
	if start < 1 {
		start = 1
	}
	return start, end
}

// intField reads an integer field from a dict or struct.
func intField(state starlark.Value, name string) (int, error) {
	var v starlark.Value
	switch s := state.(type) {
	case starlark.Mapping:
		got, found, err := s.Get(starlark.String(name))
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("pagination state has no key %q", name)
		}
		v = got
	case starlark.HasAttrs:
		got, err := s.Attr(name)
		if err != nil {
			return 0, err
		}
		if got == nil {
			return 0, fmt.Errorf("pagination state has no field %q", name)
		}
		v = got
	default:
		return 0, fmt.Errorf("pagination state must be a dict or struct, got %s", state.Type())
	}

	n, err := starlark.AsInt32(v)
	if err != nil {
		return 0, fmt.Errorf("pagination %s: %w", name, err)
	}
	return n, nil
}
