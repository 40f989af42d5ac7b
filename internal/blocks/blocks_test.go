package blocks

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leapview/internal/template"
	"github.com/leapstack-labs/leapview/internal/testutil"
	"github.com/stretchr/testify/require"
)

// newTestEnvironment returns an environment with all blocks registered and a
// markdown converter that wraps its input.
func newTestEnvironment(t *testing.T) *template.Environment {
	t.Helper()
	env := template.NewEnvironment(template.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, Register(env, Options{
		Markdown: func(src string) (string, error) {
			return "<md>" + strings.TrimSpace(src) + "</md>", nil
		},
	}))
	return env
}

func render(t *testing.T, env *template.Environment, src string, data map[string]any) string {
	t.Helper()
	out, err := env.RenderString(src, "test.html", data)
	require.NoError(t, err)
	return out
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnvironment(t)
	err := Register(env, Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}
