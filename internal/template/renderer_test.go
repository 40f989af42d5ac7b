package template

import (
	"strings"
	"testing"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func newTestContext(t *testing.T) *starctx.ExecutionContext {
	t.Helper()
	ctx, err := starctx.ContextFromGo(starctx.Predeclared(), map[string]any{
		"env":   "dev",
		"title": "Posts",
		"site":  map[string]any{"name": "leapview", "lang": "en"},
		"tags":  []string{"go", "web"},
	})
	require.NoError(t, err)
	return ctx
}

func TestRenderer_Expressions(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "<p>hello</p>", "<p>hello</p>"},
		{"simple expression", `<h1>{{ title }}</h1>`, "<h1>Posts</h1>"},
		{"multiple expressions", `{{ site["name"] }}/{{ site["lang"] }}`, "leapview/en"},
		{"string concatenation", `{{ title + " | " + site["name"] }}`, "Posts | leapview"},
		{"integer expression", `{{ 1 + 2 }}`, "3"},
		{"boolean expression", `{{ True }}`, "True"},
		{"none renders empty", `[{{ None }}]`, "[]"},
		{"list index", `{{ tags[1] }}`, "web"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext(t))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRenderer_ForLoop(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		containsAll []string // for cases where exact match is hard due to whitespace
	}{
		{
			name:     "inline loop",
			input:    `{% for x in [1, 2, 3] %}{{ x }}{% endfor %}`,
			expected: "123",
		},
		{
			name:     "empty loop",
			input:    `before{% for x in [] %}{{ x }}{% endfor %}after`,
			expected: "beforeafter",
		},
		{
			name:     "unpacking loop",
			input:    `{% for k, v in [("a", 1), ("b", 2)] %}{{ k }}={{ v }};{% endfor %}`,
			expected: "a=1;b=2;",
		},
		{
			name: "loop over data",
			input: `<ul>
{% for tag in tags %}
  <li>{{ tag }}</li>
{% endfor %}
</ul>`,
			containsAll: []string{"<li>go</li>", "<li>web</li>"},
		},
		{
			name: "nested loop",
			input: `{% for i in [0, 1, 2] %}
{% for j in [0, 1] %}
({{ i }}, {{ j }})
{% endfor %}
{% endfor %}`,
			containsAll: []string{"(0, 0)", "(0, 1)", "(1, 0)", "(1, 1)", "(2, 0)", "(2, 1)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext(t))
			require.NoError(t, err)

			if tt.expected != "" {
				assert.Equal(t, tt.expected, result)
			}
			for _, s := range tt.containsAll {
				assert.Contains(t, result, s)
			}
		})
	}
}

func TestRenderer_LoopVariableRestored(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Set("x", starlark.String("outer"))

	result, err := RenderString(`{% for x in [1, 2] %}{{ x }}{% endfor %}{{ x }}`, "test.html", ctx)
	require.NoError(t, err)
	assert.Equal(t, "12outer", result)

	_, err = RenderString(`{% for y in [1] %}{{ y }}{% endfor %}`, "test.html", ctx)
	require.NoError(t, err)
	_, ok := ctx.Lookup("y")
	assert.False(t, ok, "loop variable should not leak")
}

func TestRenderer_IfStatement(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"if true", `{% if env == "dev" %}DEV{% endif %}`, "DEV"},
		{"if false", `{% if env == "prod" %}PROD{% endif %}`, ""},
		{"if-else true branch", `{% if env == "dev" %}DEV{% else %}NOT_DEV{% endif %}`, "DEV"},
		{"if-else false branch", `{% if env == "prod" %}PROD{% else %}NOT_PROD{% endif %}`, "NOT_PROD"},
		{"if-elif-else", `{% if env == "prod" %}PROD{% elif env == "dev" %}DEV{% else %}OTHER{% endif %}`, "DEV"},
		{"nested for-if", `{% for x in [1, 2, 3] %}{% if x > 1 %}{{ x }}{% endif %}{% endfor %}`, "23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString(tt.input, "test.html", newTestContext(t))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRenderer_TruthyFalsy(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		expected  string
	}{
		{"True", `True`, "yes"},
		{"False", `False`, "no"},
		{"1", `1`, "yes"},
		{"0", `0`, "no"},
		{"empty string", `""`, "no"},
		{"non-empty string", `"hello"`, "yes"},
		{"empty list", `[]`, "no"},
		{"non-empty list", `[1]`, "yes"},
		{"None", `None`, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{% if ` + tt.condition + ` %}yes{% else %}no{% endif %}`
			result, err := RenderString(input, "test.html", newTestContext(t))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRenderer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"undefined variable", `{{ undefined_variable }}`},
		{"undefined iterator", `{% for x in undefined %}{{ x }}{% endfor %}`},
		{"undefined condition", `{% if undefined %}yes{% endif %}`},
		{"non-iterable for", `{% for x in 42 %}{{ x }}{% endfor %}`},
		{"bad unpack", `{% for a, b in [1, 2] %}{{ a }}{% endfor %}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderString("partial "+tt.input, "test.html", newTestContext(t))
			require.Error(t, err)
			assert.Empty(t, result, "no partial output on error")

			var renderErr *RenderError
			assert.ErrorAs(t, err, &renderErr)
			assert.False(t, IsSyntaxError(err))
		})
	}
}

func TestRenderer_Autoescape(t *testing.T) {
	env := NewEnvironment()

	out, err := env.RenderString(`<p>{{ text }}</p>{{ safe(text) }}{{ escape(text) }}`, "test.html",
		map[string]any{"text": `<b>"x" & y</b>`})
	require.NoError(t, err)
	assert.Equal(t,
		`<p>&lt;b&gt;&#34;x&#34; &amp; y&lt;/b&gt;</p><b>"x" & y</b>&lt;b&gt;&#34;x&#34; &amp; y&lt;/b&gt;`,
		out)

	raw := NewEnvironment(WithAutoescape(false))
	out, err = raw.RenderString(`{{ text }}`, "test.html", map[string]any{"text": "<i>"})
	require.NoError(t, err)
	assert.Equal(t, "<i>", out)
}

func TestRenderer_FullExample(t *testing.T) {
	input := `<ul>
{% for tag in tags %}
  <li>{{ tag }}</li>
{% endfor %}
</ul>
{% if env == "prod" %}
  <script src="analytics.js"></script>
{% else %}
  <!-- dev -->
{% endif %}
<footer>{{ site["name"] }}</footer>`

	result, err := RenderString(input, "test.html", newTestContext(t))
	require.NoError(t, err)

	for _, tag := range []string{"go", "web"} {
		assert.Contains(t, result, "<li>"+tag+"</li>")
	}
	assert.Contains(t, result, "<!-- dev -->")
	assert.NotContains(t, result, "analytics.js")
	assert.True(t, strings.HasSuffix(result, "<footer>leapview</footer>"))
}
