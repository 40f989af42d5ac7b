package views

import (
	"fmt"
	"regexp"

	starctx "github.com/leapstack-labs/leapview/internal/starlark"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"gopkg.in/yaml.v3"
)

// Meta is the YAML frontmatter of a view.
// Unknown fields cause parse errors (use Data for custom values).
type Meta struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Layout      string         `yaml:"layout"`    // view path of the layout wrapping this view
	MetaTags    map[string]any `yaml:"meta_tags"` // rendered by {% meta meta_tags %}
	Data        map[string]any `yaml:"data"`      // default render variables
}

// frontmatterPattern matches a leading "---" ... "---" block.
var frontmatterPattern = regexp.MustCompile(`(?sm)\A---[ \t]*\r?\n(.*?)^---[ \t]*(?:\r?\n|\z)`)

var knownFields = map[string]bool{
	"title":       true,
	"description": true,
	"layout":      true,
	"meta_tags":   true,
	"data":        true,
}

// ParseFrontmatter splits content into its frontmatter and template body.
// Content without frontmatter yields an empty Meta and the content unchanged.
func ParseFrontmatter(content string) (*Meta, string, error) {
	matches := frontmatterPattern.FindStringSubmatchIndex(content)
	if matches == nil {
		return &Meta{}, content, nil
	}

	yamlContent := content[matches[2]:matches[3]]
	body := content[matches[1]:]

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &raw); err != nil {
		return nil, "", &FrontmatterError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	for field := range raw {
		if !knownFields[field] {
			return nil, "", &UnknownFieldError{Field: field}
		}
	}

	meta := &Meta{}
	if err := yaml.Unmarshal([]byte(yamlContent), meta); err != nil {
		return nil, "", &FrontmatterError{Message: fmt.Sprintf("failed to parse frontmatter: %v", err)}
	}
	return meta, body, nil
}

// PageValue returns the frontmatter as the "page" render variable, a struct
// with fields title, description, layout, meta_tags and data.
func (m *Meta) PageValue() (starlark.Value, error) {
	tags, err := starctx.GoToStarlark(m.Tags())
	if err != nil {
		return nil, fmt.Errorf("meta_tags: %w", err)
	}
	data, err := starctx.GoToStarlark(orEmpty(m.Data))
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"title":       starlark.String(m.Title),
		"description": starlark.String(m.Description),
		"layout":      starlark.String(m.Layout),
		"meta_tags":   tags,
		"data":        data,
	}), nil
}

// Tags returns the meta tags of the view. The description is included
// unless meta_tags sets one explicitly.
func (m *Meta) Tags() map[string]any {
	tags := make(map[string]any, len(m.MetaTags)+1)
	if m.Description != "" {
		tags["description"] = m.Description
	}
	for k, v := range m.MetaTags {
		tags[k] = v
	}
	return tags
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// FrontmatterError represents a frontmatter parsing error.
type FrontmatterError struct {
	File    string
	Message string
}

func (e *FrontmatterError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"data\" for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
