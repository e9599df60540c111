package compiler

import (
	"strconv"

	"ember/internal/bytecode"
	"ember/internal/lexer"
	"ember/internal/value"
)

// precedence levels, low to high, per spec.md section 4.3.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

func (p precedence) next() precedence {
	if p == precPrimary {
		return precPrimary
	}
	return p + 1
}

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.Kind]parseRule

func init() {
	rules = map[lexer.Kind]parseRule{
		lexer.LeftParen:    {prefix: (*Parser).grouping, infix: (*Parser).call, precedence: precCall},
		lexer.Minus:        {prefix: (*Parser).unary, infix: (*Parser).binary, precedence: precTerm},
		lexer.Plus:         {infix: (*Parser).binary, precedence: precTerm},
		lexer.Slash:        {infix: (*Parser).binary, precedence: precFactor},
		lexer.Star:         {infix: (*Parser).binary, precedence: precFactor},
		lexer.Bang:         {prefix: (*Parser).unary},
		lexer.BangEqual:    {infix: (*Parser).binary, precedence: precEquality},
		lexer.EqualEqual:   {infix: (*Parser).binary, precedence: precEquality},
		lexer.Greater:      {infix: (*Parser).binary, precedence: precComparison},
		lexer.GreaterEqual: {infix: (*Parser).binary, precedence: precComparison},
		lexer.Less:         {infix: (*Parser).binary, precedence: precComparison},
		lexer.LessEqual:    {infix: (*Parser).binary, precedence: precComparison},
		lexer.Identifier:   {prefix: (*Parser).variable},
		lexer.String:       {prefix: (*Parser).stringLiteral},
		lexer.Number:       {prefix: (*Parser).number},
		lexer.And:          {infix: (*Parser).and_, precedence: precAnd},
		lexer.Or:           {infix: (*Parser).or_, precedence: precOr},
		lexer.False:        {prefix: (*Parser).literal},
		lexer.Nil:          {prefix: (*Parser).literal},
		lexer.True:         {prefix: (*Parser).literal},
	}
}

func (p *Parser) getRule(k lexer.Kind) parseRule {
	return rules[k]
}

func (p *Parser) expression() {
	p.parsePrecedence(precAssignment)
}

// parsePrecedence implements the algorithm from spec.md section 4.3.
func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	rule := p.getRule(p.previous.Kind)
	if rule.prefix == nil {
		p.errorAtPrevious("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	rule.prefix(p, canAssign)

	for prec <= p.getRule(p.current.Kind).precedence {
		p.advance()
		infix := p.getRule(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(lexer.Equal) {
		p.errorAtPrevious("Invalid assignment target.")
	}
}

func (p *Parser) number(canAssign bool) {
	text := p.lexeme(p.previous)
	n, _ := strconv.ParseFloat(text, 64)
	p.emitConstant(value.Number(n))
}

func (p *Parser) stringLiteral(canAssign bool) {
	text := p.lexeme(p.previous)
	s := text[1 : len(text)-1] // strip the surrounding quotes
	p.emitConstant(value.NewString(p.heap, s))
}

func (p *Parser) literal(canAssign bool) {
	switch p.previous.Kind {
	case lexer.False:
		p.emit(bytecode.OpFalse, 0)
	case lexer.True:
		p.emit(bytecode.OpTrue, 0)
	case lexer.Nil:
		p.emit(bytecode.OpNil, 0)
	}
}

func (p *Parser) grouping(canAssign bool) {
	p.expression()
	p.consume(lexer.RightParen, "Expect ')' after expression.")
}

func (p *Parser) unary(canAssign bool) {
	op := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch op {
	case lexer.Minus:
		p.emit(bytecode.OpNegate, 0)
	case lexer.Bang:
		p.emit(bytecode.OpNot, 0)
	}
}

func (p *Parser) binary(canAssign bool) {
	op := p.previous.Kind
	rule := p.getRule(op)
	p.parsePrecedence(rule.precedence.next())

	switch op {
	case lexer.Plus:
		p.emit(bytecode.OpAdd, 0)
	case lexer.Minus:
		p.emit(bytecode.OpSub, 0)
	case lexer.Star:
		p.emit(bytecode.OpMul, 0)
	case lexer.Slash:
		p.emit(bytecode.OpDiv, 0)
	case lexer.EqualEqual:
		p.emit(bytecode.OpEqual, 0)
	case lexer.BangEqual:
		p.emit(bytecode.OpEqual, 0)
		p.emit(bytecode.OpNot, 0)
	case lexer.Greater:
		p.emit(bytecode.OpGreater, 0)
	case lexer.GreaterEqual:
		p.emit(bytecode.OpLess, 0)
		p.emit(bytecode.OpNot, 0)
	case lexer.Less:
		p.emit(bytecode.OpLess, 0)
	case lexer.LessEqual:
		p.emit(bytecode.OpGreater, 0)
		p.emit(bytecode.OpNot, 0)
	}
}

// and_ implements short-circuit &&: if the left operand is false, skip
// the right operand and leave it as the result (spec.md section 4.3).
func (p *Parser) and_(canAssign bool) {
	endJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emit(bytecode.OpPop, 0)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

// or_ mirrors and_: if the left operand is truthy, skip the right
// operand.
func (p *Parser) or_(canAssign bool) {
	elseJump := p.emitJump(bytecode.OpJumpIfFalse)
	endJump := p.emitJump(bytecode.OpJump)

	p.patchJump(elseJump)
	p.emit(bytecode.OpPop, 0)

	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

// call compiles a parenthesized argument list following some callee
// expression already on the stack.
func (p *Parser) call(canAssign bool) {
	argc := p.argumentList()
	p.emit(bytecode.OpCall, uint32(argc))
}

func (p *Parser) argumentList() int {
	argc := 0
	if !p.check(lexer.RightParen) {
		for {
			p.expression()
			if argc == maxArgs {
				p.errorAtPrevious("Cannot have more than 255 arguments.")
			}
			argc++
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RightParen, "Expect ')' after arguments.")
	return argc
}

// variable resolves an identifier use site per spec.md section 4.3's
// three-step resolution order: own locals, then enclosing
// functions' locals/upvalues, then globals.
func (p *Parser) variable(canAssign bool) {
	name := p.lexeme(p.previous)

	var getOp, setOp bytecode.Op
	var arg uint32

	if slot, uninitialized, ok := p.fs.resolveLocal(name); ok {
		if uninitialized {
			p.errorAtPrevious("Can't read local variable in its own initializer.")
		}
		getOp, setOp, arg = bytecode.OpGetLocal, bytecode.OpSetLocal, uint32(slot)
	} else if idx, res := resolveUpvalue(p.fs, name); res != upvalueNotFound {
		switch res {
		case upvalueUninitialized:
			p.errorAtPrevious("Can't read local variable in its own initializer.")
		case upvalueTooMany:
			p.errorAtPrevious("Too many closure variables in function.")
		}
		getOp, setOp, arg = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue, uint32(idx)
	} else {
		getOp, setOp, arg = bytecode.OpGetGlobal, bytecode.OpSetGlobal, p.identifierConstant(name)
	}

	if canAssign && p.match(lexer.Equal) {
		p.expression()
		p.emit(setOp, arg)
	} else {
		p.emit(getOp, arg)
	}
}
