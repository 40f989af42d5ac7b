// Package views resolves logical view paths to template files under a views
// directory and renders them: frontmatter, markdown conversion and layouts.
package views

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapview/internal/blocks"
	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"github.com/leapstack-labs/leapview/internal/template"
)

// maxLayoutDepth bounds layout chains so a cycle fails instead of recursing.
const maxLayoutDepth = 8

// Render variables set by the view pipeline.
const (
	PageVar       = "page"
	MetaTagsVar   = "meta_tags"
	ContentVar    = "content"
	PageNoVar     = "page_no"    // requested page number; 1 unless the caller sets it
	LiveReloadVar = "livereload" // live-reload snippet; empty unless the server sets it
	PathVar       = "path"       // request path; set by the server and static builds
)

// Config configures a Set.
type Config struct {
	Dir      string
	Env      *template.Environment
	Markdown blocks.MarkdownFunc // converts markdown views; required for .md.tmpl files
	Logger   *slog.Logger
}

// Set is a views directory bound to a template environment.
type Set struct {
	dir      string
	env      *template.Environment
	markdown blocks.MarkdownFunc
	cache    *Cache
	logger   *slog.Logger
}

// NewSet creates a Set for cfg.Dir.
func NewSet(cfg Config) (*Set, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("views dir %s: %w", cfg.Dir, err)
	}
	env := cfg.Env
	if env == nil {
		env = template.NewEnvironment()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Set{
		dir:      dir,
		env:      env,
		markdown: cfg.Markdown,
		cache:    NewCache(),
		logger:   logger,
	}, nil
}

// Dir returns the absolute views directory.
func (s *Set) Dir() string { return s.dir }

// Cache returns the compiled view cache.
func (s *Set) Cache() *Cache { return s.cache }

// Resolve finds and loads the view for target. A miss returns nil, nil.
func (s *Set) Resolve(target string) (*View, error) {
	file, err := FindFile(s.dir, target)
	if err != nil || file == "" {
		return nil, err
	}
	return s.Load(file)
}

// Load compiles the view in file, using the cache.
func (s *Set) Load(file string) (*View, error) {
	if v, ok := s.cache.Get(file); ok {
		return v, nil
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read view: %w", err)
	}

	name := s.relName(file)
	meta, body, err := ParseFrontmatter(string(content))
	if err != nil {
		var fmErr *FrontmatterError
		var unknownErr *UnknownFieldError
		switch {
		case errors.As(err, &fmErr):
			fmErr.File = name
		case errors.As(err, &unknownErr):
			unknownErr.File = name
		}
		return nil, err
	}

	tmpl, err := s.env.Compile(body, name)
	if err != nil {
		return nil, err
	}

	v := &View{
		File:       file,
		Name:       name,
		IsMarkdown: IsMarkdown(file),
		Meta:       meta,
		tmpl:       tmpl,
		set:        s,
	}
	s.cache.Put(v)
	s.logger.Debug("view compiled", slog.String("view", name))
	return v, nil
}

// List loads every view file under the directory, sorted by name.
// Files whose name starts with "." are skipped.
func (s *Set) List() ([]*View, error) {
	var views []*View
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != s.dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		v, err := s.Load(path)
		if err != nil {
			return err
		}
		views = append(views, v)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

// Watch invalidates compiled views as files change until ctx is done.
func (s *Set) Watch(ctx context.Context, onChange func(path string)) error {
	return s.cache.Watch(ctx, s.dir, s.logger, onChange)
}

func (s *Set) relName(file string) string {
	rel, err := filepath.Rel(s.dir, file)
	if err != nil {
		return file
	}
	return filepath.ToSlash(rel)
}

// View is a compiled view file.
type View struct {
	File       string // absolute path
	Name       string // slash-separated path relative to the views directory
	IsMarkdown bool
	Meta       *Meta

	tmpl *template.Template
	set  *Set
}

// Render renders the view with vars, applying markdown conversion and the
// layout chain. vars is not modified.
func (v *View) Render(vars map[string]any) (string, error) {
	return v.render(vars, v.Meta, 0)
}

func (v *View) render(vars map[string]any, page *Meta, depth int) (string, error) {
	pageValue, err := page.PageValue()
	if err != nil {
		return "", fmt.Errorf("%s: frontmatter: %w", v.Name, err)
	}

	data := make(map[string]any, len(vars)+len(v.Meta.Data)+2)
	maps.Copy(data, v.Meta.Data)
	maps.Copy(data, vars)
	data[PageVar] = pageValue
	data[MetaTagsVar] = page.Tags()

	out, err := v.set.env.RenderData(v.tmpl, data)
	if err != nil {
		return "", err
	}

	if v.IsMarkdown {
		if v.set.markdown == nil {
			return "", fmt.Errorf("%s: no markdown renderer configured", v.Name)
		}
		out, err = v.set.markdown(out)
		if err != nil {
			return "", fmt.Errorf("%s: markdown: %w", v.Name, err)
		}
	}

	if v.Meta.Layout == "" {
		return out, nil
	}
	if depth >= maxLayoutDepth {
		return "", fmt.Errorf("%s: layout chain deeper than %d", v.Name, maxLayoutDepth)
	}

	layout, err := v.set.Resolve(v.Meta.Layout)
	if err != nil {
		return "", fmt.Errorf("%s: layout %q: %w", v.Name, v.Meta.Layout, err)
	}
	if layout == nil {
		return "", fmt.Errorf("%s: layout %q not found", v.Name, v.Meta.Layout)
	}

	layoutVars := maps.Clone(vars)
	if layoutVars == nil {
		layoutVars = make(map[string]any, 1)
	}
	layoutVars[ContentVar] = starctx.SafeString(out)
	return layout.render(layoutVars, page, depth+1)
}
