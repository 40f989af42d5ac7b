package blocks

import (
	"errors"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"github.com/leapstack-labs/leapview/internal/template"
	"go.starlark.net/starlark"
)

// MarkdownFunc converts markdown source to HTML.
type MarkdownFunc func(src string) (string, error)

// Markdown renders {% markdown %}...{% endmarkdown %}: the body is rendered
// first and the result converted to HTML.
type Markdown struct {
	convert MarkdownFunc
}

// NewMarkdown creates the markdown block using convert.
func NewMarkdown(convert MarkdownFunc) *Markdown {
	return &Markdown{convert: convert}
}

func (m *Markdown) Tags() []string { return []string{"markdown"} }

func (m *Markdown) Parse(p *template.Parser, open template.Statement) (*template.CallExtension, error) {
	sig, err := p.ParseSignature(open)
	if err != nil {
		return nil, err
	}
	if err := requireArity(sig, open, 0); err != nil {
		return nil, err
	}

	body, err := p.ParseUntilBlocks("endmarkdown")
	if err != nil {
		return nil, err
	}
	if err := p.AdvanceAfterBlockEnd("endmarkdown"); err != nil {
		return nil, err
	}

	return template.NewCallExtension(m, open, sig, &template.NodeList{Nodes: body}), nil
}

func (m *Markdown) Run(_ *starctx.ExecutionContext, _ []starlark.Value, bodies []template.Body) (starctx.SafeString, error) {
	if m.convert == nil {
		return "", errors.New("no markdown renderer configured")
	}

	src, err := bodies[0]()
	if err != nil {
		return "", err
	}
	html, err := m.convert(src)
	if err != nil {
		return "", err
	}
	return starctx.SafeString(html), nil
}
