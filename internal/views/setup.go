package views

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapview/internal/blocks"
	"github.com/leapstack-labs/leapview/internal/helpers"
	"github.com/leapstack-labs/leapview/internal/markdown"
	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"github.com/leapstack-labs/leapview/internal/template"
	"go.starlark.net/starlark"
)

// Options configures Open.
type Options struct {
	Dir        string
	HelpersDir string // optional; a missing directory loads no helpers
	Autoescape bool
	Markdown   markdown.Options
	Logger     *slog.Logger
}

// NewEnvironment builds the template environment used for views: helper
// namespaces as globals and the markdown, meta and pagination blocks.
func NewEnvironment(opts Options) (*template.Environment, *markdown.Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	registry, err := helpers.Load(opts.HelpersDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load helpers: %w", err)
	}

	md := markdown.New(opts.Markdown)
	env := template.NewEnvironment(
		template.WithAutoescape(opts.Autoescape),
		template.WithGlobals(registry.Globals()),
		template.WithGlobals(starlark.StringDict{
			PageNoVar:     starlark.MakeInt(1),
			LiveReloadVar: starctx.SafeString(""),
		}),
		template.WithLogger(logger),
	)
	if err := blocks.Register(env, blocks.Options{Markdown: md.Render}); err != nil {
		return nil, nil, err
	}

	logger.Debug("environment ready",
		slog.Int("helpers", registry.Len()),
		slog.Bool("autoescape", opts.Autoescape))
	return env, md, nil
}

// Open builds the environment and returns the views Set for opts.Dir.
func Open(opts Options) (*Set, error) {
	env, md, err := NewEnvironment(opts)
	if err != nil {
		return nil, err
	}
	return NewSet(Config{
		Dir:      opts.Dir,
		Env:      env,
		Markdown: md.Render,
		Logger:   opts.Logger,
	})
}
