package parser

import (
	"strconv"

	"github.com/bobsh/bob/internal/script/ast"
	"github.com/bobsh/bob/internal/script/lexer"
)

// precedence table, low to high, for the operator-precedence climb.
var precedence = map[lexer.Kind]int{
	lexer.OR:    1,
	lexer.XOR:   2,
	lexer.AND:   3,
	lexer.EQ:    4,
	lexer.NEQ:   4,
	lexer.LT:    5,
	lexer.LTE:   5,
	lexer.GT:    5,
	lexer.GTE:   5,
	lexer.PLUS:  6,
	lexer.MINUS: 6,
	lexer.STAR:  7,
	lexer.SLASH: 7,
	lexer.PERCENT: 7,
	lexer.POW:   8,
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		op := p.cur().Kind
		prec, ok := precedence[op]
		if !ok || prec < minPrec {
			return left
		}
		pos := p.advance().Pos
		p.skipNewlinesOnly()

		// POW is right-associative; everything else is left-associative.
		nextMin := prec + 1
		if op == lexer.POW {
			nextMin = prec
		}
		right := p.parseBinary(nextMin)
		left = &ast.Binary{Base: baseNode{P: pos}, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur().Kind == lexer.MINUS || p.cur().Kind == lexer.NOT {
		pos := p.cur().Pos
		op := p.advance().Kind
		x := p.parseUnary()
		return &ast.Unary{Base: baseNode{P: pos}, Op: op, X: x}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()

	for {
		switch p.cur().Kind {
		case lexer.DOT:
			pos := p.advance().Pos
			field := p.expect(lexer.IDENT).Value
			x = &ast.FieldAccess{Base: baseNode{P: pos}, X: x, Field: field}
		case lexer.LBRACK:
			pos := p.advance().Pos
			p.skipNewlinesOnly()
			idx := p.parseExpr()
			p.skipNewlinesOnly()
			p.expect(lexer.RBRACK)
			x = &ast.Index{Base: baseNode{P: pos}, X: x, Index: idx}
		case lexer.LPAREN:
			pos := p.cur().Pos
			args := p.parseArgs()
			x = &ast.Call{Base: baseNode{P: pos}, Fn: x, Args: args}
		default:
			return x
		}
	}
}

func (p *Parser) parseArgs() []ast.Expr {
	p.expect(lexer.LPAREN)
	p.skipNewlinesOnly()
	var args []ast.Expr
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		args = append(args, p.parseExpr())
		p.skipNewlinesOnly()
		if p.at(lexer.COMMA) {
			p.advance()
			p.skipNewlinesOnly()
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	pos := tok.Pos

	switch tok.Kind {
	case lexer.NONE:
		p.advance()
		return &ast.NoneLit{Base: baseNode{P: pos}}
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLit{Base: baseNode{P: pos}, Value: true}
	case lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Base: baseNode{P: pos}, Value: false}
	case lexer.INT:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.errorf("invalid integer literal %q", tok.Value)
		}
		return &ast.IntLit{Base: baseNode{P: pos}, Value: v}
	case lexer.STRING:
		p.advance()
		return &ast.StringLit{Base: baseNode{P: pos}, Value: tok.Value}
	case lexer.SELF:
		p.advance()
		return &ast.SelfExpr{Base: baseNode{P: pos}}
	case lexer.IDENT:
		p.advance()
		return &ast.Ident{Base: baseNode{P: pos}, Name: tok.Value}
	case lexer.FN:
		return p.parseLambda()
	case lexer.LPAREN:
		p.advance()
		p.skipNewlinesOnly()
		x := p.parseExpr()
		p.skipNewlinesOnly()
		p.expect(lexer.RPAREN)
		return x
	case lexer.LBRACK:
		return p.parseVecLit()
	case lexer.LBRACE:
		return p.parseMapLit()
	}

	p.errorf("unexpected token %s in expression", tok.Kind)
	p.advance()
	return &ast.NoneLit{Base: baseNode{P: pos}}
}

func (p *Parser) parseLambda() ast.Expr {
	pos := p.advance().Pos // 'fn'
	params := p.parseParamList()

	if p.at(lexer.LBRACE) {
		body := p.parseBlock()
		return &ast.Lambda{Base: baseNode{P: pos}, Params: params, Body: body, Expr: nil}
	}
	expr := p.parseExpr()
	return &ast.Lambda{Base: baseNode{P: pos}, Params: params, Body: nil, Expr: expr}
}

func (p *Parser) parseVecLit() ast.Expr {
	pos := p.expect(lexer.LBRACK).Pos
	p.skipNewlinesOnly()

	var elems []ast.Expr
	for !p.at(lexer.RBRACK) && !p.at(lexer.EOF) {
		elems = append(elems, p.parseExpr())
		p.skipNewlinesOnly()
		if p.at(lexer.COMMA) {
			p.advance()
			p.skipNewlinesOnly()
		}
	}
	p.expect(lexer.RBRACK)
	return &ast.VecLit{Base: baseNode{P: pos}, Elems: elems}
}

func (p *Parser) parseMapLit() ast.Expr {
	pos := p.expect(lexer.LBRACE).Pos
	p.skipNewlinesOnly()

	var entries []ast.MapEntry
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		key := p.parseExpr()
		p.skipNewlinesOnly()
		p.expect(lexer.COLON)
		p.skipNewlinesOnly()
		val := p.parseExpr()
		entries = append(entries, ast.MapEntry{Key: key, Value: val})
		p.skipNewlinesOnly()
		if p.at(lexer.COMMA) {
			p.advance()
			p.skipNewlinesOnly()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.MapLit{Base: baseNode{P: pos}, Entries: entries}
}
