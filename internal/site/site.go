// Package site builds a static copy of a views directory. Every page view is
// rendered to an HTML file at the path the server would answer it on, and the
// result is listed in a manifest.
package site

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/leapview/internal/views"
	"golang.org/x/sync/errgroup"
)

// ManifestFile is written to the root of the output directory.
const ManifestFile = "manifest.json"

// Config configures a Builder.
type Config struct {
	Views     *views.Set
	OutputDir string
	Vars      map[string]any // render variables shared by every page
	Jobs      int            // concurrent renders; 0 means one per CPU
	Logger    *slog.Logger
}

// Builder renders the pages of a views set into an output directory.
type Builder struct {
	views     *views.Set
	outputDir string
	vars      map[string]any
	jobs      int
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Builder.
func New(cfg Config) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &Builder{
		views:     cfg.Views,
		outputDir: cfg.OutputDir,
		vars:      cfg.Vars,
		jobs:      jobs,
		logger:    logger,
		now:       time.Now,
	}
}

// Build renders every page and writes the manifest. It stops at the first
// render or write error; files already written are left in place.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	all, err := b.views.List()
	if err != nil {
		return nil, err
	}

	pages, skipped, err := b.pages(all)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.jobs)

	var mu sync.Mutex
	var size int
	for _, p := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := b.write(p)
			if err != nil {
				return err
			}
			mu.Lock()
			size += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest := newManifest(b.now(), pages, skipped, size)
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.outputDir, ManifestFile), data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", ManifestFile, err)
	}

	b.logger.Debug("site built",
		slog.String("output", b.outputDir),
		slog.Int("pages", len(pages)),
		slog.Int("skipped", skipped))
	return manifest, nil
}

// pages selects the views that are served on their own path. Views under a
// directory starting with "_" are partials or layouts. A view shadowed by
// another file resolving to the same path is counted as skipped.
func (b *Builder) pages(all []*views.View) (pages []*Page, skipped int, err error) {
	for _, v := range all {
		if !IsPage(v.Name) {
			continue
		}
		urlPath := URLPath(v.Name)
		served, err := b.views.Resolve(urlPath)
		if err != nil {
			return nil, 0, err
		}
		if served == nil || served.File != v.File {
			b.logger.Debug("view shadowed", slog.String("view", v.Name), slog.String("path", urlPath))
			skipped++
			continue
		}
		pages = append(pages, &Page{
			Path:   urlPath,
			View:   v.Name,
			Title:  v.Meta.Title,
			Output: OutputName(v.Name),
			view:   v,
		})
	}
	return pages, skipped, nil
}

func (b *Builder) write(p *Page) (int, error) {
	vars := maps.Clone(b.vars)
	if vars == nil {
		vars = map[string]any{}
	}
	vars[views.PathVar] = p.Path

	out, err := p.view.Render(vars)
	if err != nil {
		return 0, err
	}

	target := filepath.Join(b.outputDir, filepath.FromSlash(p.Output))
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", p.Output, err)
	}
	if err := os.WriteFile(target, []byte(out), 0600); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", p.Output, err)
	}
	b.logger.Debug("page written", slog.String("view", p.View), slog.String("output", p.Output))
	return len(out), nil
}

// IsPage reports whether the view name is a standalone page, that is no
// path segment starts with "_".
func IsPage(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, "_") {
			return false
		}
	}
	return true
}

// OutputName maps a view name to the HTML file it is written to:
// "blog/hello.md.tmpl" becomes "blog/hello.html".
func OutputName(name string) string {
	dir, base := path.Split(name)
	stem, _, _ := strings.Cut(base, ".")
	return dir + stem + ".html"
}

// URLPath is the request path the server answers the view on. Index views are
// served on their directory.
func URLPath(name string) string {
	out := OutputName(name)
	if dir, base := path.Split(out); base == "index.html" {
		return "/" + dir
	}
	return "/" + out
}
