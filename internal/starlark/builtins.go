package starlark

import (
	"fmt"
	"time"

	"github.com/ncruces/go-strftime"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"golang.org/x/net/html"
)

// isoLayout matches the default output of the date helper: local offset, never "Z".
const isoLayout = "2006-01-02T15:04:05-07:00"

// dateInputLayouts are tried in order when a date is given as a string.
var dateInputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReservedNames are the predeclared globals that helper namespaces may not shadow.
var ReservedNames = []string{"safe", "escape", "date", "paginate"}

// Predeclared returns the builtin globals available to every template:
// safe, escape, date, paginate.
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"safe":     starlark.NewBuiltin("safe", safeBuiltin),
		"escape":   starlark.NewBuiltin("escape", escapeBuiltin),
		"date":     starlark.NewBuiltin("date", dateBuiltin),
		"paginate": starlark.NewBuiltin("paginate", paginateBuiltin),
	}
}

// safe(x) marks the text of x as already escaped.
func safeBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	return SafeString(ToText(v)), nil
}

// escape(x) HTML-escapes the text of x. The result is safe.
func escapeBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if s, ok := v.(SafeString); ok {
		return s, nil
	}
	return SafeString(html.EscapeString(ToText(v))), nil
}

// date(value, format=None) formats a timestamp. value is a date string or unix seconds;
// format is a strftime layout, defaulting to ISO 8601 with offset.
func dateBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var value starlark.Value
	var format starlark.Value = starlark.None
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "value", &value, "format?", &format); err != nil {
		return nil, err
	}

	t, err := toTime(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}

	if format == starlark.None {
		return starlark.String(t.Format(isoLayout)), nil
	}
	layout, ok := starlark.AsString(format)
	if !ok {
		return nil, fmt.Errorf("%s: format must be a string, got %s", fn.Name(), format.Type())
	}
	return starlark.String(strftime.Format(layout, t)), nil
}

func toTime(v starlark.Value) (time.Time, error) {
	switch val := v.(type) {
	case starlark.String:
		for _, layout := range dateInputLayouts {
			if t, err := time.Parse(layout, string(val)); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", string(val))
	case starlark.Int:
		sec, ok := val.Int64()
		if !ok {
			return time.Time{}, fmt.Errorf("timestamp out of range: %s", val)
		}
		return time.Unix(sec, 0).UTC(), nil
	case starlark.Float:
		return time.UnixMilli(int64(float64(val) * 1000)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("cannot convert %s to a date", v.Type())
	}
}

// paginate(current, last_page) builds the pagination state consumed by the pagination block.
func paginateBuiltin(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var current, lastPage int
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "current", &current, "last_page", &lastPage); err != nil {
		return nil, err
	}
	return NewPagination(current, lastPage), nil
}

// NewPagination returns a pagination state struct with current, lastPage, previous and next.
// previous and next are None at the first and last page.
func NewPagination(current, lastPage int) starlark.Value {
	var previous, next starlark.Value = starlark.None, starlark.None
	if current > 1 {
		previous = starlark.MakeInt(current - 1)
	}
	if current < lastPage {
		next = starlark.MakeInt(current + 1)
	}
	return starlarkstruct.FromStringDict(starlark.String("pagination"), starlark.StringDict{
		"current":  starlark.MakeInt(current),
		"lastPage": starlark.MakeInt(lastPage),
		"previous": previous,
		"next":     next,
	})
}
