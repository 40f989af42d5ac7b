package template

import (
	"slices"
	"strings"

	"go.starlark.net/syntax"
)

// builtinKeywords are statement keywords handled by the parser itself.
var builtinKeywords = map[string]bool{
	"for":    true,
	"endfor": true,
	"if":     true,
	"elif":   true,
	"else":   true,
	"endif":  true,
}

// Parser turns a token stream into a Template.
// Extensions receive the Parser in their Parse method and drive it through
// ParseSignature, ParseUntilBlocks, SkipSymbol and AdvanceAfterBlockEnd.
type Parser struct {
	tokens     []Token
	pos        int
	file       string
	extensions map[string]Extension
	open       []Statement // stack of blocks being parsed, innermost last
}

func newParser(tokens []Token, file string, extensions map[string]Extension) *Parser {
	return &Parser{
		tokens:     tokens,
		file:       file,
		extensions: extensions,
	}
}

// ParseString parses a template that uses only the built-in statements.
func ParseString(input, file string) (*Template, error) {
	return parse(input, file, nil)
}

func parse(input, file string, extensions map[string]Extension) (*Template, error) {
	tokens, err := NewLexer(input, file).Tokenize()
	if err != nil {
		return nil, err
	}

	p := newParser(tokens, file, extensions)
	nodes, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}

	return &Template{Nodes: nodes, File: file}, nil
}

// File returns the name of the file being parsed.
func (p *Parser) File() string {
	return p.file
}

// ParseSignature parses the arguments of the open statement, either bare
// ("a, b") or parenthesized ("(a, b)"). The arguments are checked against the
// Starlark expression grammar now and evaluated at render time.
func (p *Parser) ParseSignature(open Statement) (*Signature, error) {
	sig := &Signature{Source: open.Args, Pos: open.Pos}
	if open.Args == "" {
		return sig, nil
	}

	expr, err := syntax.ParseExpr(p.file, open.Args, 0) //nolint:staticcheck // SA1019: will migrate to FileOptions later
	if err != nil {
		return nil, NewParseErrorf(open.Pos, "invalid arguments to '%s': %v", open.Keyword, err)
	}

	if paren, ok := expr.(*syntax.ParenExpr); ok {
		expr = paren.X
	}
	if tuple, ok := expr.(*syntax.TupleExpr); ok {
		sig.Arity = len(tuple.List)
		sig.Tuple = true
	} else {
		sig.Arity = 1
	}

	return sig, nil
}

// ParseUntilBlocks parses nodes up to the first statement whose keyword is one
// of names. That statement is left unconsumed. Reaching end of input first is
// an error naming the innermost open block.
func (p *Parser) ParseUntilBlocks(names ...string) ([]Node, error) {
	return p.parseNodes(names)
}

// SkipSymbol consumes the next statement if its keyword is name.
// It reports whether the statement was consumed.
func (p *Parser) SkipSymbol(name string) (bool, error) {
	tok := p.peek()
	if tok.Type != TokenStmt {
		return false, nil
	}
	st := parseStatement(tok)
	if st.Keyword != name {
		return false, nil
	}
	if st.Args != "" {
		return false, NewParseErrorf(st.Pos, "unexpected arguments after '%s': %s", name, st.Args)
	}
	p.pos++
	return true, nil
}

// AdvanceAfterBlockEnd consumes the statement that ends or divides the current
// block. The next token must be a statement with keyword name and no arguments.
func (p *Parser) AdvanceAfterBlockEnd(name string) error {
	tok := p.peek()
	if tok.Type == TokenEOF {
		return p.unclosed(tok.Pos, []string{name})
	}
	ok, err := p.SkipSymbol(name)
	if err != nil {
		return err
	}
	if !ok {
		return NewParseErrorf(tok.Pos, "expected '%s', got %s %q", name, tok.Type, tok.Value)
	}
	return nil
}

// parseNodes parses until EOF or a statement whose keyword is in stops.
func (p *Parser) parseNodes(stops []string) ([]Node, error) {
	var nodes []Node

	for {
		tok := p.peek()

		switch tok.Type {
		case TokenEOF:
			if len(stops) > 0 {
				return nil, p.unclosed(tok.Pos, stops)
			}
			return nodes, nil

		case TokenText:
			p.pos++
			nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value})

		case TokenExpr:
			p.pos++
			if tok.Value == "" {
				return nil, NewParseError(tok.Pos, "empty expression")
			}
			if _, err := syntax.ParseExpr(p.file, tok.Value, 0); err != nil { //nolint:staticcheck // SA1019: will migrate to FileOptions later
				return nil, NewParseErrorf(tok.Pos, "invalid expression: %v", err)
			}
			nodes = append(nodes, &ExprNode{nodeBase: nodeBase{pos: tok.Pos}, Expr: tok.Value})

		case TokenStmt:
			st := parseStatement(tok)
			if slices.Contains(stops, st.Keyword) {
				return nodes, nil
			}
			p.pos++

			node, err := p.parseStatementNode(st)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)

		default:
			return nil, NewParseErrorf(tok.Pos, "unexpected token %s", tok.Type)
		}
	}
}

// parseStatementNode dispatches a statement that opens a block.
func (p *Parser) parseStatementNode(st Statement) (Node, error) {
	switch st.Keyword {
	case "for":
		return p.parseFor(st)
	case "if":
		return p.parseIf(st)
	}

	if builtinKeywords[st.Keyword] {
		return nil, NewStrayTagError(st.Pos, st.Keyword)
	}

	ext, ok := p.extensions[st.Keyword]
	if !ok {
		if p.isSubKeyword(st.Keyword) {
			return nil, NewStrayTagError(st.Pos, st.Keyword)
		}
		return nil, NewParseErrorf(st.Pos, "unknown statement '%s'", st.Keyword)
	}

	p.open = append(p.open, st)
	defer func() { p.open = p.open[:len(p.open)-1] }()

	call, err := ext.Parse(p, st)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, NewParseErrorf(st.Pos, "extension for '%s' produced no node", st.Keyword)
	}
	return call, nil
}

// parseFor parses "for x in expr" and "for k, v in expr" up to endfor.
func (p *Parser) parseFor(st Statement) (Node, error) {
	vars, iter, ok := strings.Cut(st.Args, " in ")
	if !ok {
		return nil, NewParseErrorf(st.Pos, "invalid for statement: expected 'for <var> in <expr>', got %q", st.Args)
	}

	var names []string
	for _, name := range strings.Split(vars, ",") {
		name = strings.TrimSpace(name)
		if !isIdentifier(name) {
			return nil, NewParseErrorf(st.Pos, "invalid loop variable %q", name)
		}
		names = append(names, name)
	}

	iter = strings.TrimSpace(iter)
	if _, err := syntax.ParseExpr(p.file, iter, 0); err != nil { //nolint:staticcheck // SA1019: will migrate to FileOptions later
		return nil, NewParseErrorf(st.Pos, "invalid for iterator: %v", err)
	}

	p.open = append(p.open, st)
	defer func() { p.open = p.open[:len(p.open)-1] }()

	body, err := p.ParseUntilBlocks("endfor")
	if err != nil {
		return nil, err
	}
	if err := p.AdvanceAfterBlockEnd("endfor"); err != nil {
		return nil, err
	}

	return &ForBlock{
		nodeBase: nodeBase{pos: st.Pos},
		VarNames: names,
		IterExpr: iter,
		Body:     body,
	}, nil
}

// parseIf parses an if/elif/else chain up to endif.
func (p *Parser) parseIf(st Statement) (Node, error) {
	if err := p.checkCondition(st); err != nil {
		return nil, err
	}

	p.open = append(p.open, st)
	defer func() { p.open = p.open[:len(p.open)-1] }()

	block := &IfBlock{nodeBase: nodeBase{pos: st.Pos}, Condition: st.Args}

	body, err := p.ParseUntilBlocks("elif", "else", "endif")
	if err != nil {
		return nil, err
	}
	block.Body = body

	for {
		next := parseStatement(p.peek())
		p.pos++

		switch next.Keyword {
		case "elif":
			if err := p.checkCondition(next); err != nil {
				return nil, err
			}
			body, err := p.ParseUntilBlocks("elif", "else", "endif")
			if err != nil {
				return nil, err
			}
			block.ElseIfs = append(block.ElseIfs, Branch{Condition: next.Args, Body: body, pos: next.Pos})

		case "else":
			body, err := p.ParseUntilBlocks("endif")
			if err != nil {
				return nil, err
			}
			block.Else = body
			if block.Else == nil {
				block.Else = []Node{}
			}

		case "endif":
			return block, nil
		}
	}
}

func (p *Parser) checkCondition(st Statement) error {
	if st.Args == "" {
		return NewParseErrorf(st.Pos, "'%s' requires a condition", st.Keyword)
	}
	if _, err := syntax.ParseExpr(p.file, st.Args, 0); err != nil { //nolint:staticcheck // SA1019: will migrate to FileOptions later
		return NewParseErrorf(st.Pos, "invalid condition: %v", err)
	}
	return nil
}

// unclosed builds the error for reaching end of input inside the innermost open block.
func (p *Parser) unclosed(pos Position, expected []string) error {
	if len(p.open) == 0 {
		return NewParseErrorf(pos, "unexpected end of template, expected %s", strings.Join(expected, " or "))
	}
	open := p.open[len(p.open)-1]
	return NewUnclosedBlockError(open.Pos, open.Keyword, expected)
}

// isSubKeyword reports whether name looks like the end tag of a registered extension.
func (p *Parser) isSubKeyword(name string) bool {
	if tag, ok := strings.CutPrefix(name, "end"); ok {
		_, known := p.extensions[tag]
		return known
	}
	return false
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
