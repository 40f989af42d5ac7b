package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.starlark.net/syntax"
)

// Function describes a public function defined in a helper file.
type Function struct {
	Name      string
	Args      []string // argument names, with defaults as "x=None"
	Docstring string
	Line      int
}

// Signature returns the function's call signature, e.g. "money(x, currency=\"EUR\")".
func (f *Function) Signature() string {
	return f.Name + "(" + strings.Join(f.Args, ", ") + ")"
}

// Namespace describes a helper file without executing it.
type Namespace struct {
	Name      string
	Path      string
	Functions []*Function
}

// Describe statically parses every helper file in dir.
// A missing directory yields nothing.
func Describe(dir string) ([]*Namespace, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan helpers directory: %w", err)
	}

	var namespaces []*Namespace
	for _, file := range files {
		content, err := os.ReadFile(file) //nolint:gosec // G304: path comes from a glob inside the helpers directory
		if err != nil {
			return nil, &LoadError{File: file, Message: fmt.Sprintf("failed to read file: %v", err)}
		}
		ns, err := ParseFile(file, content)
		if err != nil {
			return nil, err
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces, nil
}

// ParseFile extracts the public functions of a helper file from its syntax tree.
func ParseFile(filename string, content []byte) (*Namespace, error) {
	f, err := syntax.Parse(filename, content, 0) //nolint:staticcheck // SA1019: will migrate to FileOptions later
	if err != nil {
		return nil, &LoadError{File: filename, Message: err.Error()}
	}

	ns := &Namespace{
		Name: strings.TrimSuffix(filepath.Base(filename), ".star"),
		Path: filename,
	}

	for _, stmt := range f.Stmts {
		def, ok := stmt.(*syntax.DefStmt)
		if !ok || strings.HasPrefix(def.Name.Name, "_") {
			continue
		}
		ns.Functions = append(ns.Functions, &Function{
			Name:      def.Name.Name,
			Args:      paramNames(def.Params),
			Docstring: docstring(def.Body),
			Line:      int(def.Name.NamePos.Line),
		})
	}

	return ns, nil
}

func paramNames(params []syntax.Expr) []string {
	var args []string
	for _, param := range params {
		switch p := param.(type) {
		case *syntax.Ident:
			args = append(args, p.Name)
		case *syntax.BinaryExpr:
			if ident, ok := p.X.(*syntax.Ident); ok && p.Op == syntax.EQ {
				args = append(args, ident.Name+"="+exprString(p.Y))
			}
		case *syntax.UnaryExpr:
			ident, ok := p.X.(*syntax.Ident)
			if !ok {
				continue // bare * separator
			}
			args = append(args, p.Op.String()+ident.Name)
		}
	}
	return args
}

// docstring returns the leading string literal of a function body.
func docstring(body []syntax.Stmt) string {
	if len(body) == 0 {
		return ""
	}
	expr, ok := body[0].(*syntax.ExprStmt)
	if !ok {
		return ""
	}
	lit, ok := expr.X.(*syntax.Literal)
	if !ok || lit.Token != syntax.STRING {
		return ""
	}
	s, _ := lit.Value.(string)
	return strings.TrimSpace(s)
}

func exprString(expr syntax.Expr) string {
	switch e := expr.(type) {
	case *syntax.Literal:
		return e.Raw
	case *syntax.Ident:
		return e.Name
	case *syntax.ListExpr:
		return "[]"
	case *syntax.DictExpr:
		return "{}"
	case *syntax.TupleExpr:
		return "()"
	case *syntax.UnaryExpr:
		if e.Op == syntax.MINUS {
			return "-" + exprString(e.X)
		}
		return exprString(e.X)
	default:
		return "..."
	}
}
