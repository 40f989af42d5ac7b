package helpers

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"go.starlark.net/starlark"
)

// ReservedNamespaces cannot be used as helper file names: they are template
// builtins or variables set by the renderer.
var ReservedNamespaces = append(slices.Clone(starctx.ReservedNames),
	"page", "content", "meta_tags", "pageNo", "page_no", "livereload", "path",
)

// Registry holds the helper modules exposed to templates.
type Registry struct {
	modules map[string]*Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register adds a module under its namespace.
func (r *Registry) Register(m *Module) error {
	if slices.Contains(ReservedNamespaces, m.Namespace) {
		return &RegistryError{Namespace: m.Namespace, Message: "namespace is reserved"}
	}
	if existing, ok := r.modules[m.Namespace]; ok {
		return &RegistryError{
			Namespace: m.Namespace,
			Message:   fmt.Sprintf("namespace already registered by %s", existing.Path),
		}
	}
	r.modules[m.Namespace] = m
	return nil
}

// RegisterAll registers modules in order, stopping at the first error.
func (r *Registry) RegisterAll(modules []*Module) error {
	for _, m := range modules {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the module for namespace, or nil.
func (r *Registry) Get(namespace string) *Module {
	return r.modules[namespace]
}

// Has reports whether namespace is registered.
func (r *Registry) Has(namespace string) bool {
	_, ok := r.modules[namespace]
	return ok
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// Namespaces returns the registered namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Globals returns one module value per namespace, for use as template globals.
func (r *Registry) Globals() starlark.StringDict {
	globals := make(starlark.StringDict, len(r.modules))
	for name, m := range r.modules {
		globals[name] = &module{name: name, exports: m.Exports}
	}
	return globals
}

// Load loads the helpers in dir into a new registry.
func Load(dir string, logger *slog.Logger) (*Registry, error) {
	modules, err := NewLoader(dir, logger).Load()
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	if err := registry.RegisterAll(modules); err != nil {
		return nil, err
	}
	return registry, nil
}

// module exposes a helper module's exports as attributes.
type module struct {
	name    string
	exports starlark.StringDict
}

var _ starlark.HasAttrs = (*module)(nil)

func (m *module) String() string        { return fmt.Sprintf("<module %s>", m.name) }
func (m *module) Type() string          { return "module" }
func (m *module) Freeze()               { m.exports.Freeze() }
func (m *module) Truth() starlark.Bool  { return starlark.True }
func (m *module) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: module") }

func (m *module) Attr(name string) (starlark.Value, error) {
	if v, ok := m.exports[name]; ok {
		return v, nil
	}
	return nil, starlark.NoSuchAttrError(fmt.Sprintf("module %s has no attribute %s", m.name, name))
}

func (m *module) AttrNames() []string {
	return m.exports.Keys()
}

// RegistryError reports a helper module that could not be registered.
type RegistryError struct {
	Namespace string
	Message   string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("helper namespace %q: %s", e.Namespace, e.Message)
}
