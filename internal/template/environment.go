package template

import (
	"fmt"
	"log/slog"
	"sync"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"go.starlark.net/starlark"
)

// Environment compiles and renders templates with a fixed set of globals and
// registered block extensions.
type Environment struct {
	mu         sync.RWMutex
	extensions map[string]Extension
	globals    starlark.StringDict
	autoescape bool
	logger     *slog.Logger
}

// Option configures an Environment.
type Option func(*Environment)

// WithAutoescape turns HTML escaping of {{ }} output on or off.
func WithAutoescape(on bool) Option {
	return func(e *Environment) {
		e.autoescape = on
	}
}

// WithGlobals adds globals visible to every template. Later values win.
func WithGlobals(globals starlark.StringDict) Option {
	return func(e *Environment) {
		for name, v := range globals {
			e.globals[name] = v
		}
	}
}

// WithLogger sets the logger used for registration and render diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnvironment creates an environment with the predeclared builtins and
// autoescaping enabled.
func NewEnvironment(opts ...Option) *Environment {
	e := &Environment{
		extensions: make(map[string]Extension),
		globals:    starctx.Predeclared(),
		autoescape: true,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a block extension under each of its tags.
// A tag already registered, or one that is a built-in statement, is rejected
// and nothing is registered.
func (e *Environment) Register(ext Extension) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tags := ext.Tags()
	if len(tags) == 0 {
		return fmt.Errorf("extension %T has no tags", ext)
	}
	for _, tag := range tags {
		if !isIdentifier(tag) {
			return fmt.Errorf("invalid tag name %q", tag)
		}
		if builtinKeywords[tag] {
			return fmt.Errorf("tag %q is a built-in statement", tag)
		}
		if _, exists := e.extensions[tag]; exists {
			return fmt.Errorf("tag %q is already registered", tag)
		}
	}

	for _, tag := range tags {
		e.extensions[tag] = ext
		e.logger.Debug("registered block extension", slog.String("tag", tag))
	}
	return nil
}

// Extension returns the extension registered for tag.
func (e *Environment) Extension(tag string) (Extension, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ext, ok := e.extensions[tag]
	return ext, ok
}

// Globals returns the globals shared by every render.
func (e *Environment) Globals() starlark.StringDict {
	return e.globals
}

// Compile parses src into a template. Syntax errors satisfy IsSyntaxError.
func (e *Environment) Compile(src, file string) (*Template, error) {
	e.mu.RLock()
	extensions := make(map[string]Extension, len(e.extensions))
	for tag, ext := range e.extensions {
		extensions[tag] = ext
	}
	e.mu.RUnlock()

	return parse(src, file, extensions)
}

// NewContext builds a render context from Go data over the environment's globals.
func (e *Environment) NewContext(data map[string]any) (*starctx.ExecutionContext, error) {
	return starctx.ContextFromGo(e.globals, data)
}

// Render renders a compiled template against ctx.
// On error no output is returned.
func (e *Environment) Render(tmpl *Template, ctx *starctx.ExecutionContext) (string, error) {
	r := &renderer{file: tmpl.File, ctx: ctx, autoescape: e.autoescape}
	out, err := r.render(tmpl.Nodes)
	if err != nil {
		e.logger.Debug("render failed", slog.String("file", tmpl.File), slog.String("error", err.Error()))
		return "", err
	}
	return out, nil
}

// RenderData renders a compiled template against Go data.
func (e *Environment) RenderData(tmpl *Template, data map[string]any) (string, error) {
	ctx, err := e.NewContext(data)
	if err != nil {
		return "", err
	}
	return e.Render(tmpl, ctx)
}

// RenderString compiles and renders src in one step.
func (e *Environment) RenderString(src, file string, data map[string]any) (string, error) {
	tmpl, err := e.Compile(src, file)
	if err != nil {
		return "", err
	}
	return e.RenderData(tmpl, data)
}
