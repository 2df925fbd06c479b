// Package parser builds an internal/script/ast.Program from a token
// stream, via straightforward recursive descent (Pratt-style for
// expressions), one parse function per construct.
package parser

import (
	"fmt"

	"github.com/bobsh/bob/internal/script/ast"
	"github.com/bobsh/bob/internal/script/lexer"
)

// ParseError is a single parse failure with source position.
type ParseError struct {
	Pos lexer.Pos
	Msg string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Msg) }

// Parser holds the token cursor and accumulated errors.
type Parser struct {
	toks []lexer.Token
	pos  int
	errs []error
}

// Parse tokenizes and parses src in one call.
func Parse(src []byte) (*ast.Program, []error) {
	l := lexer.New(src)
	toks := l.Tokenize()
	p := &Parser{toks: toks}
	for _, e := range l.Errors() {
		p.errs = append(p.errs, e)
	}
	prog := p.parseProgram()
	return prog, p.errs
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) errorf(format string, args ...any) {
	p.errs = append(p.errs, &ParseError{Pos: p.cur().Pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(k lexer.Kind) lexer.Token {
	if !p.at(k) {
		p.errorf("expected %s, got %s", k, p.cur().Kind)
		return p.cur()
	}
	return p.advance()
}

// skipTerminators consumes any run of NEWLINE/SEMI tokens (blank statements).
func (p *Parser) skipTerminators() {
	for p.at(lexer.NEWLINE) || p.at(lexer.SEMI) {
		p.advance()
	}
}

// skipNewlinesOnly consumes NEWLINE tokens only, used inside brackets/parens
// where line breaks are insignificant.
func (p *Parser) skipNewlinesOnly() {
	for p.at(lexer.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{P: p.cur().Pos}
	p.skipTerminators()
	for !p.at(lexer.EOF) {
		stmt := p.parseStmt()
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
		p.skipTerminators()
	}
	return prog
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case lexer.VAR:
		return p.parseVarDecl()
	case lexer.FN:
		return p.parseFuncDecl(false)
	case lexer.STATIC:
		p.advance()
		if !p.at(lexer.FN) {
			p.errorf("expected fn after static, got %s", p.cur().Kind)
			return nil
		}
		return p.parseFuncDecl(true)
	case lexer.CLASS:
		return p.parseClassDecl()
	case lexer.EXTERN:
		return p.parseExternDecl()
	case lexer.IMPORT:
		return p.parseImport()
	case lexer.PRINT:
		return p.parsePrint()
	case lexer.ASSERT:
		return p.parseAssert()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.BREAK:
		pos := p.advance().Pos
		return &ast.BreakStmt{Base: baseNode{P: pos}}
	case lexer.CONTINUE:
		pos := p.advance().Pos
		return &ast.ContinueStmt{Base: baseNode{P: pos}}
	case lexer.IF:
		return p.parseIf()
	case lexer.FOR:
		return p.parseFor()
	case lexer.LBRACE:
		return p.parseBlock()
	default:
		return p.parseSimpleStmt()
	}
}

type baseNode = ast.Base

func (p *Parser) parseVarDecl() ast.Stmt {
	pos := p.advance().Pos // 'var'
	name := p.expect(lexer.IDENT).Value

	decl := &ast.VarDecl{Name: name}
	decl.P = pos

	if p.at(lexer.COLON) {
		p.advance()
		decl.Type = p.expect(lexer.IDENT).Value
	}
	if p.at(lexer.ASSIGN) {
		p.advance()
		decl.Value = p.parseExpr()
	}
	return decl
}

func (p *Parser) parseParamList() []string {
	p.expect(lexer.LPAREN)
	var params []string
	p.skipNewlinesOnly()
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		params = append(params, p.expect(lexer.IDENT).Value)
		p.skipNewlinesOnly()
		if p.at(lexer.COMMA) {
			p.advance()
			p.skipNewlinesOnly()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseFuncDecl(static bool) ast.Stmt {
	pos := p.advance().Pos // 'fn'
	name := p.expect(lexer.IDENT).Value
	params := p.parseParamList()
	body := p.parseBlock()
	return &ast.FuncDecl{Base: baseNode{P: pos}, Name: name, Params: params, Body: body, Static: static}
}

func (p *Parser) parseClassDecl() ast.Stmt {
	pos := p.advance().Pos // 'class'
	name := p.expect(lexer.IDENT).Value
	p.expect(lexer.LBRACE)
	p.skipTerminators()

	var body []ast.Stmt
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		body = append(body, p.parseStmt())
		p.skipTerminators()
	}
	p.expect(lexer.RBRACE)
	return &ast.ClassDecl{Base: baseNode{P: pos}, Name: name, Body: body}
}

func (p *Parser) parseExternDecl() ast.Stmt {
	pos := p.advance().Pos // 'extern'
	name := p.expect(lexer.IDENT).Value
	return &ast.ExternDecl{Base: baseNode{P: pos}, Name: name}
}

func (p *Parser) parseImport() ast.Stmt {
	pos := p.advance().Pos // 'import'
	var path []string
	path = append(path, p.expect(lexer.IDENT).Value)
	for p.at(lexer.DOT) {
		p.advance()
		path = append(path, p.expect(lexer.IDENT).Value)
	}
	return &ast.ImportStmt{Base: baseNode{P: pos}, Path: path}
}

func (p *Parser) parsePrint() ast.Stmt {
	pos := p.advance().Pos
	return &ast.PrintStmt{Base: baseNode{P: pos}, X: p.parseExpr()}
}

func (p *Parser) parseAssert() ast.Stmt {
	pos := p.advance().Pos
	startTok := p.pos
	cond := p.parseExpr()
	src := tokensText(p.toks[startTok:p.pos])

	var msg ast.Expr
	if p.at(lexer.COMMA) {
		p.advance()
		msg = p.parseExpr()
	}
	return &ast.AssertStmt{Base: baseNode{P: pos}, Cond: cond, Message: msg, Source: src}
}

func tokensText(toks []lexer.Token) string {
	s := ""
	for i, t := range toks {
		if i > 0 {
			s += " "
		}
		if t.Kind == lexer.STRING {
			s += fmt.Sprintf("%q", t.Value)
		} else {
			s += t.Value
		}
	}
	return s
}

func (p *Parser) parseReturn() ast.Stmt {
	pos := p.advance().Pos
	if p.at(lexer.NEWLINE) || p.at(lexer.SEMI) || p.at(lexer.RBRACE) || p.at(lexer.EOF) {
		return &ast.ReturnStmt{Base: baseNode{P: pos}, Value: nil}
	}
	return &ast.ReturnStmt{Base: baseNode{P: pos}, Value: p.parseExpr()}
}

func (p *Parser) parseBlock() *ast.Block {
	pos := p.expect(lexer.LBRACE).Pos
	p.skipTerminators()

	block := &ast.Block{Base: baseNode{P: pos}}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		block.Stmts = append(block.Stmts, p.parseStmt())
		p.skipTerminators()
	}
	p.expect(lexer.RBRACE)
	return block
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.advance().Pos // 'if'
	cond := p.parseExpr()
	then := p.parseBlock()

	stmt := &ast.IfStmt{Base: baseNode{P: pos}, Cond: cond, Then: then}

	for {
		p.skipElideBeforeElse()
		if p.at(lexer.ELIF) {
			p.advance()
			c := p.parseExpr()
			b := p.parseBlock()
			stmt.Elifs = append(stmt.Elifs, ast.ElifBranch{Cond: c, Body: b})
			continue
		}
		if p.at(lexer.ELSE) {
			p.advance()
			stmt.Else = p.parseBlock()
		}
		break
	}
	return stmt
}

// skipElideBeforeElse allows `}\nelif` / `}\nelse` by peeking past newlines
// without consuming them when no elif/else follows.
func (p *Parser) skipElideBeforeElse() {
	save := p.pos
	p.skipNewlinesOnly()
	if !p.at(lexer.ELIF) && !p.at(lexer.ELSE) {
		p.pos = save
	}
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.advance().Pos // 'for'
	name := p.expect(lexer.IDENT).Value
	p.expect(lexer.IN)
	iter := p.parseExpr()
	body := p.parseBlock()
	return &ast.ForStmt{Base: baseNode{P: pos}, Var: name, Iterable: iter, Body: body}
}

// parseSimpleStmt handles assignment and bare expression statements, which
// share a common prefix (an expression) until the `=` is (or isn't) seen.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	pos := p.cur().Pos
	x := p.parseExpr()

	if p.at(lexer.ASSIGN) {
		p.advance()
		val := p.parseExpr()
		return &ast.Assign{Base: baseNode{P: pos}, Target: x, Value: val}
	}
	return &ast.ExprStmt{Base: baseNode{P: pos}, X: x}
}
