package blocks

import (
	"fmt"
	"sort"
	"strings"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"github.com/leapstack-labs/leapview/internal/template"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// MetaTags renders {% meta tags %} as one <meta> element per key of the
// mapping tags, in ascending key order.
type MetaTags struct{}

func (MetaTags) Tags() []string { return []string{"meta"} }

func (e MetaTags) Parse(p *template.Parser, open template.Statement) (*template.CallExtension, error) {
	sig, err := p.ParseSignature(open)
	if err != nil {
		return nil, err
	}
	if err := requireArity(sig, open, 1); err != nil {
		return nil, err
	}
	return template.NewCallExtension(e, open, sig), nil
}

func (MetaTags) Run(_ *starctx.ExecutionContext, args []starlark.Value, _ []template.Body) (starctx.SafeString, error) {
	if len(args) == 0 || args[0] == nil || args[0] == starlark.None {
		return "", nil
	}

	entries, err := metaEntries(args[0])
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "<meta name=\"%s\" content=\"%s\">\n", EscapeTrim(name), EscapeTrim(metaContent(entries[name])))
	}
	return starctx.SafeString(sb.String()), nil
}

// metaEntries flattens a dict or struct into name/value pairs.
func metaEntries(v starlark.Value) (map[string]starlark.Value, error) {
	entries := make(map[string]starlark.Value)

	switch m := v.(type) {
	case starlark.IterableMapping:
		for _, item := range m.Items() {
			entries[starctx.ToText(item[0])] = item[1]
		}
	case *starlarkstruct.Struct:
		for _, name := range m.AttrNames() {
			attr, err := m.Attr(name)
			if err != nil {
				return nil, err
			}
			entries[name] = attr
		}
	default:
		return nil, fmt.Errorf("meta tags must be a mapping, got %s", v.Type())
	}

	return entries, nil
}

// metaContent renders a meta value; lists and tuples are joined with ",".
func metaContent(v starlark.Value) string {
	var seq starlark.Indexable
	switch val := v.(type) {
	case *starlark.List:
		seq = val
	case starlark.Tuple:
		seq = val
	default:
		return starctx.ToText(v)
	}

	parts := make([]string, seq.Len())
	for i := range parts {
		parts[i] = starctx.ToText(seq.Index(i))
	}
	return strings.Join(parts, ",")
}
