// Package blocks implements the custom block tags available to views:
// markdown, meta and pagination.
package blocks

import (
	"fmt"

	"github.com/leapstack-labs/leapview/internal/template"
)

// Options configures the block extensions.
type Options struct {
	// Markdown converts the body of a markdown block to HTML.
	Markdown MarkdownFunc
}

// Register adds the markdown, meta and pagination blocks to env.
func Register(env *template.Environment, opts Options) error {
	exts := []template.Extension{
		NewMarkdown(opts.Markdown),
		MetaTags{},
		Pagination{},
	}
	for _, ext := range exts {
		if err := env.Register(ext); err != nil {
			return fmt.Errorf("register %v: %w", ext.Tags(), err)
		}
	}
	return nil
}

// requireArity fails parsing when a block is given the wrong number of arguments.
func requireArity(sig *template.Signature, open template.Statement, want int) error {
	if sig.Arity != want {
		return template.NewParseErrorf(open.Pos, "'%s' takes %d argument(s), got %d", open.Keyword, want, sig.Arity)
	}
	return nil
}
