package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "leapview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("views-dir", "", "views directory")
	flags.String("helpers-dir", "", "helpers directory")
	flags.Bool("verbose", false, "verbose output")
	flags.Int("port", 0, "port")
	flags.Bool("watch", true, "watch")
	flags.String("out", "", "output directory")
	flags.Int("jobs", 0, "jobs")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)
	root, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, DefaultViewsDir), cfg.ViewsDir)
	assert.Equal(t, filepath.Join(root, DefaultHelpersDir), cfg.HelpersDir)
	assert.True(t, cfg.Autoescape)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, ServeConfig{Port: DefaultPort, Watch: true}, cfg.Serve)
	assert.Equal(t, MarkdownConfig{Unsafe: true}, cfg.Markdown)
	assert.Equal(t, BuildConfig{OutputDir: filepath.Join(root, DefaultOutputDir)}, cfg.Build)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `views_dir: pages
autoescape: false
serve:
  port: 3000
  watch: false
markdown:
  hard_wraps: true
build:
  output_dir: dist
  jobs: 2
`)

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, absDir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(absDir, "pages"), cfg.ViewsDir, "relative to the config file")
	assert.False(t, cfg.Autoescape)
	assert.Equal(t, ServeConfig{Port: 3000, Watch: false}, cfg.Serve)
	assert.Equal(t, MarkdownConfig{Unsafe: true, HardWraps: true}, cfg.Markdown)
	assert.Equal(t, BuildConfig{OutputDir: filepath.Join(absDir, "dist"), Jobs: 2}, cfg.Build)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeConfig(t, root, "views_dir: site\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	wantRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
	assert.Equal(t, "site", filepath.Base(cfg.ViewsDir))
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), "views_dir: from_file\nserve:\n  port: 3000\n")
	t.Setenv("LEAPVIEW_VIEWS_DIR", "/from_env")
	t.Setenv("LEAPVIEW_SERVE_PORT", "4000")
	t.Setenv("LEAPVIEW_MARKDOWN_HARD_WRAPS", "true")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "/from_env", cfg.ViewsDir)
	assert.Equal(t, 4000, cfg.Serve.Port)
	assert.True(t, cfg.Markdown.HardWraps)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	chdir(t, dir)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	cfgPath := writeConfig(t, t.TempDir(), "views_dir: from_file\nserve:\n  port: 3000\n")
	t.Setenv("LEAPVIEW_VIEWS_DIR", "from_env")
	t.Setenv("LEAPVIEW_SERVE_PORT", "4000")

	flags := testFlags()
	require.NoError(t, flags.Set("views-dir", "from_flag"))
	require.NoError(t, flags.Set("port", "5000"))
	require.NoError(t, flags.Set("verbose", "true"))
	require.NoError(t, flags.Set("out", "site"))
	require.NoError(t, flags.Set("jobs", "3"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cwd, "site"), cfg.Build.OutputDir)
	assert.Equal(t, 3, cfg.Build.Jobs)

	assert.Equal(t, filepath.Join(cwd, "from_flag"), cfg.ViewsDir, "flag paths resolve against the working directory")
	assert.Equal(t, 5000, cfg.Serve.Port)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), "serve:\n  port: 3000\n")
	t.Setenv("LEAPVIEW_SERVE_PORT", "4000")

	cfg, err := LoadConfig(cfgPath, testFlags())
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Serve.Port, "unchanged flags do not override")
	assert.True(t, cfg.Serve.Watch)
}

func TestLoadConfig_Invalid(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, t.TempDir(), "serve:\n  port: 70000\n")

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve.port 70000 is out of range")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"LEAPVIEW_VIEWS_DIR":           "views_dir",
		"LEAPVIEW_SERVE_PORT":          "serve.port",
		"LEAPVIEW_MARKDOWN_HARD_WRAPS": "markdown.hard_wraps",
		"LEAPVIEW_VERBOSE":             "verbose",
		"LEAPVIEW_BUILD_OUTPUT_DIR":    "build.output_dir",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.ViewsDir = ""
	assert.ErrorContains(t, cfg.Validate(), "views_dir is required")

	cfg = Default()
	cfg.Serve.Port = -1
	assert.ErrorContains(t, cfg.Validate(), "out of range")

	cfg = Default()
	cfg.Build.Jobs = -2
	assert.ErrorContains(t, cfg.Validate(), "build.jobs -2 must not be negative")
}

func TestConfig_ValidateDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.ViewsDir = dir
	assert.NoError(t, cfg.ValidateDirectories())

	cfg.ViewsDir = filepath.Join(dir, "missing")
	assert.ErrorContains(t, cfg.ValidateDirectories(), "views directory does not exist")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	cfg.ViewsDir = file
	assert.ErrorContains(t, cfg.ValidateDirectories(), "not a directory")
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Default(), GetConfig(ctx))
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{ViewsDir: "x"}
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)

	ctx = WithLogger(WithConfig(ctx, cfg), logger)
	assert.Same(t, cfg, GetConfig(ctx))
	assert.Same(t, logger, GetLogger(ctx))

	GetLogger(ctx).Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	NewLogger(&buf, false).Info("quiet")
	assert.Empty(t, buf.String())
}
