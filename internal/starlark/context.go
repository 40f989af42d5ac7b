package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// ExecutionContext is the live variable scope of a single template render.
//
// Globals (builtins and helper namespaces) are shared and never written.
// Vars hold the render data and the loop variables written by block constructs;
// they are owned by one render and must not be shared across goroutines.
type ExecutionContext struct {
	globals starlark.StringDict
	vars    starlark.StringDict
	thread  *starlark.Thread
}

// ContextOption is a functional option for configuring ExecutionContext.
type ContextOption func(*ExecutionContext)

// WithVar sets a render variable on the new context.
func WithVar(name string, value starlark.Value) ContextOption {
	return func(ctx *ExecutionContext) {
		ctx.vars[name] = value
	}
}

// WithVars copies all the given variables into the new context.
func WithVars(vars starlark.StringDict) ContextOption {
	return func(ctx *ExecutionContext) {
		for name, value := range vars {
			ctx.vars[name] = value
		}
	}
}

// NewContext creates an execution context over the given globals.
func NewContext(globals starlark.StringDict, opts ...ContextOption) *ExecutionContext {
	if globals == nil {
		globals = starlark.StringDict{}
	}
	ctx := &ExecutionContext{
		globals: globals,
		vars:    make(starlark.StringDict),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// ContextFromGo converts Go render data into an execution context.
func ContextFromGo(globals starlark.StringDict, data map[string]any) (*ExecutionContext, error) {
	ctx := NewContext(globals)
	for _, name := range sortedKeys(data) {
		v, err := GoToStarlark(data[name])
		if err != nil {
			return nil, fmt.Errorf("render variable %q: %w", name, err)
		}
		ctx.vars[name] = v
	}
	return ctx, nil
}

// Globals returns the shared globals of the context.
func (ctx *ExecutionContext) Globals() starlark.StringDict {
	return ctx.globals
}

// Lookup returns the value bound to name, preferring render variables over globals.
func (ctx *ExecutionContext) Lookup(name string) (starlark.Value, bool) {
	if v, ok := ctx.vars[name]; ok {
		return v, true
	}
	v, ok := ctx.globals[name]
	return v, ok
}

// Set binds a render variable.
func (ctx *ExecutionContext) Set(name string, value starlark.Value) {
	ctx.vars[name] = value
}

// Delete removes a render variable. Globals are unaffected.
func (ctx *ExecutionContext) Delete(name string) {
	delete(ctx.vars, name)
}

// Save snapshots the render variable name and returns a function that restores it.
// If the variable was absent when Save was called, restore removes it again.
// Restore functions must run in reverse order of their Save calls.
func (ctx *ExecutionContext) Save(name string) (restore func()) {
	prev, had := ctx.vars[name]
	return func() {
		if had {
			ctx.vars[name] = prev
			return
		}
		delete(ctx.vars, name)
	}
}

// EvalExpr evaluates a single Starlark expression against the context.
// This is used for {{ expr }} template expressions and block arguments.
func (ctx *ExecutionContext) EvalExpr(expr string, filename string, line int) (starlark.Value, error) {
	env := make(starlark.StringDict, len(ctx.globals)+len(ctx.vars))
	for k, v := range ctx.globals {
		env[k] = v
	}
	for k, v := range ctx.vars {
		env[k] = v
	}

	result, err := starlark.Eval(ctx.getThread(filename), filename, expr, env) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return nil, &EvalError{
			File:    filename,
			Line:    line,
			Expr:    expr,
			Message: err.Error(),
		}
	}

	return result, nil
}

// EvalExprString evaluates a Starlark expression and returns its printed text.
func (ctx *ExecutionContext) EvalExprString(expr string, filename string, line int) (string, error) {
	result, err := ctx.EvalExpr(expr, filename, line)
	if err != nil {
		return "", err
	}
	return ToText(result), nil
}

func (ctx *ExecutionContext) getThread(name string) *starlark.Thread {
	if ctx.thread == nil {
		ctx.thread = &starlark.Thread{
			Print: func(_ *starlark.Thread, _ string) {
				// Template execution should not print
			},
		}
	}
	ctx.thread.Name = name
	return ctx.thread
}

// EvalError represents an error during Starlark expression evaluation.
type EvalError struct {
	File    string
	Line    int
	Expr    string
	Message string
}

func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: error evaluating %q: %s", e.File, e.Line, e.Expr, e.Message)
	}
	return fmt.Sprintf("%s: error evaluating %q: %s", e.File, e.Expr, e.Message)
}
