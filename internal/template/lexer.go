package template

import (
	"strings"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types.
const (
	TokenText TokenType = iota // Literal text
	TokenExpr                  // Expression content (between {{ and }})
	TokenStmt                  // Statement content (between {% and %})
	TokenEOF                   // End of input
)

// Template delimiters.
const (
	exprStart    = "{{"
	exprEnd      = "}}"
	stmtStart    = "{%"
	stmtEnd      = "%}"
	commentStart = "{#"
	commentEnd   = "#}"
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenExpr:
		return "EXPR"
	case TokenStmt:
		return "STMT"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// Lexer tokenizes a template string.
type Lexer struct {
	input    string
	file     string
	pos      int // current position in input
	line     int // current line number (1-based)
	col      int // current column number (1-based)
	lastLine int // line at start of current token
	lastCol  int // column at start of current token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input, file string) *Lexer {
	return &Lexer{
		input: input,
		file:  file,
		pos:   0,
		line:  1,
		col:   1,
	}
}

// Tokenize converts the input into a slice of tokens.
// Comments are dropped.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for {
		tok, skip, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}

	return tokens, nil
}

// nextToken returns the next token from the input.
// skip is true when a comment was consumed and no token was produced.
func (l *Lexer) nextToken() (tok Token, skip bool, err error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}, false, nil
	}

	switch {
	case l.matchString(exprStart):
		tok, err = l.scanDelimited(TokenExpr, exprStart, exprEnd, true)
		return tok, false, err
	case l.matchString(stmtStart):
		tok, err = l.scanDelimited(TokenStmt, stmtStart, stmtEnd, false)
		return tok, false, err
	case l.matchString(commentStart):
		_, err = l.scanDelimited(TokenText, commentStart, commentEnd, false)
		return Token{}, true, err
	}

	tok, err = l.scanText()
	return tok, false, err
}

// scanText scans literal text until a delimiter or EOF.
func (l *Lexer) scanText() (Token, error) {
	l.markStart()
	start := l.pos

	for l.pos < len(l.input) {
		if l.atDelimiter() {
			break
		}
		l.advance()
	}

	if l.pos == start {
		// No text consumed, something is wrong
		return Token{}, NewLexError(l.position(), "unexpected state in lexer")
	}

	return Token{
		Type:  TokenText,
		Value: l.input[start:l.pos],
		Pos:   l.startPosition(),
	}, nil
}

// scanDelimited scans a delimited region such as {{ expr }} or {% stmt %}.
// When nested is set, braces inside the region are balanced so that dict
// literals can appear in expressions.
func (l *Lexer) scanDelimited(typ TokenType, open, closer string, nested bool) (Token, error) {
	l.markStart()

	l.pos += len(open)
	l.col += len(open)

	l.skipWhitespace()

	contentStart := l.pos
	depth := 0

	for l.pos < len(l.input) {
		if l.matchString(closer) && depth == 0 {
			content := strings.TrimSpace(l.input[contentStart:l.pos])

			l.pos += len(closer)
			l.col += len(closer)

			return Token{
				Type:  typ,
				Value: content,
				Pos:   l.startPosition(),
			}, nil
		}

		if nested {
			r := l.peek()
			if r == '{' {
				depth++
			} else if r == '}' && depth > 0 {
				depth--
			}
		}

		l.advance()
	}

	return Token{}, NewLexErrorf(l.startPosition(), "unclosed %q: missing %q", open, closer)
}

// Helper methods

// atDelimiter reports whether the input at the current position opens a tag.
func (l *Lexer) atDelimiter() bool {
	return l.matchString(exprStart) || l.matchString(stmtStart) || l.matchString(commentStart)
}

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// matchString checks if the input at current position matches s.
func (l *Lexer) matchString(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r := l.peek()
		if r != ' ' && r != '\t' {
			break
		}
		l.advance()
	}
}

// markStart records the start position for the current token.
func (l *Lexer) markStart() {
	l.lastLine = l.line
	l.lastCol = l.col
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{File: l.file, Line: l.line, Column: l.col}
}

// startPosition returns the position where the current token started.
func (l *Lexer) startPosition() Position {
	return Position{File: l.file, Line: l.lastLine, Column: l.lastCol}
}
