package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapview/internal/cli/config"
	"github.com/leapstack-labs/leapview/internal/cli/testutil"
	"github.com/leapstack-labs/leapview/internal/server"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs cmd with args against cfg and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(config.WithConfig(context.Background(), cfg))
	return stdout.String(), stderr.String(), err
}

func TestNewRenderCommand(t *testing.T) {
	cmd := NewRenderCommand()

	assert.Equal(t, "render <view>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"data", "var", "page", "output"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewBuildCommand(t *testing.T) {
	cmd := NewBuildCommand()

	assert.Equal(t, "build", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"out", "jobs", "data", "var"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewHelpersCommand(t *testing.T) {
	cmd := NewHelpersCommand()

	assert.Equal(t, "helpers", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("port"))
	assert.NotNil(t, cmd.Flags().Lookup("watch"))
}

func TestRenderCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	dataFile := filepath.Join(dir, "posts.yaml")
	require.NoError(t, os.WriteFile(dataFile, []byte("posts:\n  - title: A\n  - title: <b>\n"), 0o600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"index with helper", []string{"/"}, "<h1>Home</h1>Hello, test!"},
		{"markdown view", []string{"/about.html"}, "<h1 id=\"about\">About</h1>\n"},
		{"default page", []string{"/list"}, "[1]23~"},
		{"page flag", []string{"/list", "--page", "3"}, "~2[3]4~"},
		{"var flag", []string{"/greet", "--var", "name=Bob"}, "Hi Bob"},
		{"data file", []string{"/posts", "--data", dataFile}, "<A><&lt;b&gt;>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewRenderCommand(), testutil.ProjectConfig(dir), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderCommand_Output(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	target := filepath.Join(t.TempDir(), "public", "index.html")

	out, errOut, err := execute(t, NewRenderCommand(), testutil.ProjectConfig(dir), "/", "-o", target)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Rendered index.tmpl")

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Home</h1>Hello, test!", string(content))
}

func TestRenderCommand_Errors(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	scalar := filepath.Join(dir, "scalar.yaml")
	require.NoError(t, os.WriteFile(scalar, []byte("- a\n- b\n"), 0o600))

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{"missing view", []string{"/nope"}, `view "/nope" not found`},
		{"undefined variable", []string{"/greet"}, "name"},
		{"missing data file", []string{"/", "--data", filepath.Join(dir, "none.yaml")}, "failed to read data file"},
		{"data not a mapping", []string{"/", "--data", scalar}, "must contain a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewRenderCommand(), testutil.ProjectConfig(dir), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestRenderCommand_MissingViewsDir(t *testing.T) {
	cfg := testutil.ProjectConfig(t.TempDir())

	_, _, err := execute(t, NewRenderCommand(), cfg, "/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "views directory does not exist")
}

func TestListCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, _, err := execute(t, NewListCommand(), testutil.ProjectConfig(dir))
	require.NoError(t, err)

	for _, want := range []string{"VIEW", "about.md.tmpl", "About", "yes", "index.tmpl", "Home", "(5 views)"} {
		assert.Contains(t, out, want)
	}
}

func TestListCommand_Empty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "views"), 0o750))

	out, _, err := execute(t, NewListCommand(), testutil.ProjectConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, "(0 views)\n", out)
}

func TestHelpersCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, _, err := execute(t, NewHelpersCommand(), testutil.ProjectConfig(dir))
	require.NoError(t, err)

	assert.Contains(t, out, "site.greet(who)")
	assert.Contains(t, out, "Returns a greeting.")
	assert.NotContains(t, out, "Used by the index view", "only the first docstring line is shown")
	assert.Contains(t, out, "site.star:3")
	assert.NotContains(t, out, "_private")
	assert.Contains(t, out, "(1 helpers)")
}

func TestHelpersCommand_Empty(t *testing.T) {
	out, _, err := execute(t, NewHelpersCommand(), testutil.ProjectConfig(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "(0 helpers)\n", out)
}

func TestServeCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfg := testutil.ProjectConfig(dir)
	cfg.Serve.Port = 9999

	var got *server.Server
	orig := serve
	serve = func(_ context.Context, srv *server.Server) error {
		got = srv
		return nil
	}
	t.Cleanup(func() { serve = orig })

	out, _, err := execute(t, NewServeCommand(), cfg)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Contains(t, out, "http://localhost:9999")
}

func TestBuildCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfg := testutil.ProjectConfig(dir)
	dataFile := filepath.Join(dir, "posts.yaml")
	require.NoError(t, os.WriteFile(dataFile, []byte("posts:\n  - title: A\n"), 0o600))

	out, _, err := execute(t, NewBuildCommand(), cfg, "--data", dataFile, "--var", "name=Bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 5 pages -> "+cfg.Build.OutputDir)
	assert.Contains(t, out, "/about.html")

	for name, want := range map[string]string{
		"index.html": "<h1>Home</h1>Hello, test!",
		"greet.html": "Hi Bob",
		"posts.html": "<A>",
		"list.html":  "[1]23~",
	} {
		content, err := os.ReadFile(filepath.Join(cfg.Build.OutputDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, string(content), name)
	}
	assert.FileExists(t, filepath.Join(cfg.Build.OutputDir, "manifest.json"))
}

func TestBuildCommand_RenderError(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	_, _, err := execute(t, NewBuildCommand(), testutil.ProjectConfig(dir))
	require.Error(t, err, "greet.tmpl needs name")
}
