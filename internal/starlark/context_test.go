package starlark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext(Predeclared(),
		WithVar("env", starlark.String("dev")),
		WithVars(starlark.StringDict{"n": starlark.MakeInt(2)}),
	)

	require.NotNil(t, ctx, "NewContext returned nil")

	for _, name := range []string{"env", "n", "safe", "escape", "date", "paginate"} {
		_, ok := ctx.Lookup(name)
		assert.True(t, ok, "name %q not found", name)
	}

	ctx = NewContext(nil)
	assert.NotNil(t, ctx.Globals())
	_, ok := ctx.Lookup("safe")
	assert.False(t, ok)
}

func TestContextFromGo(t *testing.T) {
	ctx, err := ContextFromGo(nil, map[string]any{
		"title": "Posts",
		"tags":  []any{"go", 1},
	})
	require.NoError(t, err)

	v, ok := ctx.Lookup("title")
	require.True(t, ok)
	assert.Equal(t, starlark.String("Posts"), v)

	v, ok = ctx.Lookup("tags")
	require.True(t, ok)
	assert.Equal(t, `["go", 1]`, v.String())

	_, err = ContextFromGo(nil, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `render variable "ch"`)
}

func TestExecutionContext_VarsShadowGlobals(t *testing.T) {
	globals := starlark.StringDict{"page_no": starlark.MakeInt(1)}
	ctx := NewContext(globals, WithVar("page_no", starlark.MakeInt(4)))

	v, ok := ctx.Lookup("page_no")
	require.True(t, ok)
	assert.Equal(t, starlark.MakeInt(4), v)

	out, err := ctx.EvalExprString("page_no * 2", "test.html", 1)
	require.NoError(t, err)
	assert.Equal(t, "8", out)

	ctx.Delete("page_no")
	out, err = ctx.EvalExprString("page_no", "test.html", 1)
	require.NoError(t, err)
	assert.Equal(t, "1", out, "global visible once the var is gone")
	assert.Equal(t, starlark.MakeInt(1), globals["page_no"], "globals are never written")
}

func TestExecutionContext_Save(t *testing.T) {
	ctx := NewContext(nil, WithVar("x", starlark.String("outer")))

	restoreX := ctx.Save("x")
	restoreY := ctx.Save("y")
	ctx.Set("x", starlark.MakeInt(1))
	ctx.Set("y", starlark.MakeInt(2))

	restoreY()
	restoreX()

	v, ok := ctx.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, starlark.String("outer"), v)

	_, ok = ctx.Lookup("y")
	assert.False(t, ok, "absent variable is removed again")
}

func TestExecutionContext_EvalExpr(t *testing.T) {
	site := starlark.NewDict(1)
	require.NoError(t, site.SetKey(starlark.String("name"), starlark.String("leapview")))

	ctx := NewContext(Predeclared(),
		WithVar("env", starlark.String("prod")),
		WithVar("site", site),
	)

	tests := []struct {
		name    string
		expr    string
		want    string
		wantErr bool
	}{
		{
			name: "simple string",
			expr: `"hello"`,
			want: "hello",
		},
		{
			name: "variable",
			expr: `env`,
			want: "prod",
		},
		{
			name: "dict access",
			expr: `site["name"]`,
			want: "leapview",
		},
		{
			name: "string concatenation",
			expr: `"site: " + site["name"]`,
			want: "site: leapview",
		},
		{
			name: "conditional expression",
			expr: `"production" if env == "prod" else "development"`,
			want: "production",
		},
		{
			name: "arithmetic",
			expr: `1 + 2`,
			want: "3",
		},
		{
			name: "none prints empty",
			expr: `None`,
			want: "",
		},
		{
			name: "builtin",
			expr: `escape("<b>")`,
			want: "&lt;b&gt;",
		},
		{
			name:    "undefined variable",
			expr:    `undefined_var`,
			wantErr: true,
		},
		{
			name:    "syntax error",
			expr:    `if`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ctx.EvalExprString(tt.expr, "test.html", 1)

			if tt.wantErr {
				assert.Error(t, err, "expected error")
				return
			}

			require.NoError(t, err, "unexpected error")
			assert.Equal(t, tt.want, result, "EvalExprString()")
		})
	}
}

func TestExecutionContext_EvalExprError(t *testing.T) {
	ctx := NewContext(nil)

	_, err := ctx.EvalExpr("missing + 1", "views/index.tmpl", 7)
	require.Error(t, err)

	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "views/index.tmpl", evalErr.File)
	assert.Equal(t, 7, evalErr.Line)
	assert.Equal(t, "missing + 1", evalErr.Expr)
	assert.Contains(t, evalErr.Message, "missing")
}

func TestEvalError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *EvalError
		want string
	}{
		{
			name: "with line",
			err:  &EvalError{File: "a.html", Line: 3, Expr: "x", Message: "undefined: x"},
			want: `a.html:3: error evaluating "x": undefined: x`,
		},
		{
			name: "without line",
			err:  &EvalError{File: "a.html", Expr: "x", Message: "undefined: x"},
			want: `a.html: error evaluating "x": undefined: x`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
