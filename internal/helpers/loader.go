// Package helpers loads Starlark helper modules that templates can call.
// Each .star file in the helpers directory becomes a namespace named after
// the file, so helpers/fmt.star is available as fmt.money(x) in templates.
package helpers

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"go.starlark.net/starlark"
)

// Loader scans a directory for .star files and executes them as helper modules.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader for dir. A nil logger discards output.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{dir: dir, logger: logger}
}

// Module is an executed helper file.
type Module struct {
	// Namespace is the file name without .star
	Namespace string

	// Path is the path of the .star file
	Path string

	// Exports holds the module's globals whose names do not start with _
	Exports starlark.StringDict
}

// Load executes every .star file in the directory, in name order.
// A missing directory yields no modules and no error.
func (l *Loader) Load() ([]*Module, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("no helpers directory", slog.String("dir", l.dir))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access helpers directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("helpers path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan helpers directory: %w", err)
	}

	modules := make([]*Module, 0, len(files))
	for _, file := range files {
		module, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("loaded helper module",
			slog.String("namespace", module.Namespace),
			slog.Int("exports", len(module.Exports)))
		modules = append(modules, module)
	}

	return modules, nil
}

func (l *Loader) loadFile(path string) (*Module, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob inside the helpers directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	namespace := strings.TrimSuffix(filepath.Base(path), ".star")
	if err := validateNamespace(namespace); err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	thread := &starlark.Thread{
		Name: "load:" + namespace,
		Print: func(_ *starlark.Thread, msg string) {
			l.logger.Debug("helper print", slog.String("namespace", namespace), slog.String("msg", msg))
		},
	}

	// Helpers may use the template builtins (escape, date, ...).
	globals, err := starlark.ExecFile(thread, path, content, starctx.Predeclared()) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}

	exports := make(starlark.StringDict, len(globals))
	for name, value := range globals {
		if !strings.HasPrefix(name, "_") {
			exports[name] = value
		}
	}
	exports.Freeze()

	return &Module{Namespace: namespace, Path: path, Exports: exports}, nil
}

// validateNamespace checks that name can be used as a Starlark identifier.
func validateNamespace(name string) error {
	if name == "" {
		return errors.New("namespace cannot be empty")
	}
	for i, r := range name {
		switch {
		case r == '_' || isLetter(r):
		case i > 0 && isDigit(r):
		case i == 0 && isDigit(r):
			return fmt.Errorf("namespace must start with letter or underscore: %s", name)
		default:
			return fmt.Errorf("namespace contains invalid character: %s", name)
		}
	}
	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// LoadError reports a helper file that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("helpers/%s: %s", filepath.Base(e.File), e.Message)
}
