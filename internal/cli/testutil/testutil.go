// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapview/internal/cli/config"
)

// projectFiles is the fixture written by SetupTestProject.
var projectFiles = map[string]string{
	"leapview.yaml": "views_dir: views\nhelpers_dir: helpers\n",

	"views/index.tmpl": `---
title: Home
---
<h1>{{ page.title }}</h1>{{ site.greet("test") }}`,

	"views/about.md.tmpl": `---
title: About
---
# About`,

	"views/list.tmpl": `{% pagination paginate(page_no, 5), 1 %}{{ pageNo }}{% current %}[{{ pageNo }}]{% dotdot %}~{% endpagination %}`,

	"views/greet.tmpl": `Hi {{ name }}`,

	"views/posts.tmpl": `{% for p in posts %}<{{ p["title"] }}>{% endfor %}`,

	"helpers/site.star": `"""Site helpers."""

def greet(who):
    """Returns a greeting.

    Used by the index view.
    """
    return "Hello, " + who + "!"

def _private():
    return None
`,
}

// SetupTestProject creates a temporary project with test views and helpers.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range projectFiles {
		path := filepath.Join(tmpDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// ProjectConfig returns the default configuration pointed at a project
// created by SetupTestProject.
func ProjectConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.ProjectRoot = dir
	cfg.ViewsDir = filepath.Join(dir, config.DefaultViewsDir)
	cfg.HelpersDir = filepath.Join(dir, config.DefaultHelpersDir)
	cfg.Build.OutputDir = filepath.Join(dir, config.DefaultOutputDir)
	return cfg
}
