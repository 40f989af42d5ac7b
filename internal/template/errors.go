package template

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the base interface for all template errors.
type Error interface {
	error
	Position() Position
}

// baseError provides common error functionality.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// LexError represents an error during lexical analysis.
type LexError struct {
	baseError
}

// NewLexError creates a new lexer error.
func NewLexError(pos Position, msg string) *LexError {
	return &LexError{baseError: baseError{pos: pos, msg: msg}}
}

// NewLexErrorf creates a new lexer error with formatting.
func NewLexErrorf(pos Position, format string, args ...any) *LexError {
	return &LexError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// ParseError represents an error during parsing.
type ParseError struct {
	baseError
}

// NewParseError creates a new parser error.
func NewParseError(pos Position, msg string) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: msg}}
}

// NewParseErrorf creates a new parser error with formatting.
func NewParseErrorf(pos Position, format string, args ...any) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// RenderError represents an error during template rendering.
type RenderError struct {
	baseError
	Cause error // Underlying Starlark or extension error, if any
}

// NewRenderError creates a new render error.
func NewRenderError(pos Position, msg string) *RenderError {
	return &RenderError{baseError: baseError{pos: pos, msg: msg}}
}

// NewRenderErrorf creates a new render error with formatting.
func NewRenderErrorf(pos Position, format string, args ...any) *RenderError {
	return &RenderError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// WrapRenderError wraps an underlying error as a render error.
func WrapRenderError(pos Position, msg string, cause error) *RenderError {
	return &RenderError{
		baseError: baseError{pos: pos, msg: msg},
		Cause:     cause,
	}
}

func (e *RenderError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// UnmatchedBlockError indicates a block tag without its closing counterpart,
// or a closing/intermediate tag without an opening one.
type UnmatchedBlockError struct {
	baseError
	Tag      string   // The tag that was unmatched
	Expected []string // Tags that would have closed the block (empty for stray tags)
}

// NewUnclosedBlockError reports a block opened by tag that reached end of input
// before any of expected was found.
func NewUnclosedBlockError(pos Position, tag string, expected []string) *UnmatchedBlockError {
	quoted := make([]string, len(expected))
	for i, name := range expected {
		quoted[i] = "'" + name + "'"
	}
	return &UnmatchedBlockError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("unclosed '%s' block (missing %s)", tag, strings.Join(quoted, " or "))},
		Tag:       tag,
		Expected:  expected,
	}
}

// NewStrayTagError reports a closing or intermediate tag with no open block to attach to.
func NewStrayTagError(pos Position, tag string) *UnmatchedBlockError {
	return &UnmatchedBlockError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("'%s' without matching block", tag)},
		Tag:       tag,
	}
}

// IsSyntaxError reports whether err was raised while compiling a template
// (lexing or parsing), as opposed to while rendering it.
func IsSyntaxError(err error) bool {
	var lexErr *LexError
	var parseErr *ParseError
	var unmatched *UnmatchedBlockError
	return errors.As(err, &lexErr) || errors.As(err, &parseErr) || errors.As(err, &unmatched)
}
