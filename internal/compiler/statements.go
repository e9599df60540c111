package compiler

import (
	"ember/internal/bytecode"
	"ember/internal/lexer"
)

// declaration parses one top-level or block-level declaration and
// resynchronizes at the next statement boundary if it errored
// (spec.md section 7's panic-mode synchronization).
func (p *Parser) declaration() {
	switch {
	case p.match(lexer.Fun):
		p.funDeclaration()
	case p.match(lexer.Var):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(lexer.Print):
		p.printStatement()
	case p.match(lexer.If):
		p.ifStatement()
	case p.match(lexer.While):
		p.whileStatement()
	case p.match(lexer.For):
		p.forStatement()
	case p.match(lexer.Return):
		p.returnStatement()
	case p.match(lexer.LeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(lexer.RightBrace) && !p.check(lexer.Eof) {
		p.declaration()
	}
	p.consume(lexer.RightBrace, "Expect '}' after block.")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(lexer.Semicolon, "Expect ';' after value.")
	p.emit(bytecode.OpPrint, 0)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(lexer.Semicolon, "Expect ';' after expression.")
	p.emit(bytecode.OpPop, 0)
}

func (p *Parser) ifStatement() {
	p.consume(lexer.LeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(lexer.RightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emit(bytecode.OpPop, 0)
	p.statement()

	elseJump := p.emitJump(bytecode.OpJump)
	p.patchJump(thenJump)
	p.emit(bytecode.OpPop, 0)

	if p.match(lexer.Else) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := p.fs.chunk.Len()
	p.consume(lexer.LeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(lexer.RightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emit(bytecode.OpPop, 0)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emit(bytecode.OpPop, 0)
}

// forStatement desugars into a scoped block per spec.md section 4.3:
// optional initializer, a condition guarding a forward exit, and an
// increment clause reached by looping back from the body.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(lexer.LeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(lexer.Semicolon):
		// no initializer
	case p.match(lexer.Var):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := p.fs.chunk.Len()
	exitJump := -1
	if !p.match(lexer.Semicolon) {
		p.expression()
		p.consume(lexer.Semicolon, "Expect ';' after loop condition.")
		exitJump = p.emitJump(bytecode.OpJumpIfFalse)
		p.emit(bytecode.OpPop, 0)
	}

	if !p.check(lexer.RightParen) {
		bodyJump := p.emitJump(bytecode.OpJump)
		incrementStart := p.fs.chunk.Len()
		p.expression()
		p.emit(bytecode.OpPop, 0)
		p.consume(lexer.RightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	} else {
		p.consume(lexer.RightParen, "Expect ')' after for clauses.")
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emit(bytecode.OpPop, 0)
	}
	p.endScope()
}

func (p *Parser) returnStatement() {
	if p.match(lexer.Semicolon) {
		p.emit(bytecode.OpNil, 0)
		p.emit(bytecode.OpReturn, 0)
		return
	}
	p.expression()
	p.consume(lexer.Semicolon, "Expect ';' after return value.")
	p.emit(bytecode.OpReturn, 0)
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(lexer.Equal) {
		p.expression()
	} else {
		p.emit(bytecode.OpNil, 0)
	}
	p.consume(lexer.Semicolon, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

// parseVariable consumes the identifier naming a var/param and declares
// it. For a local, the returned index is unused (defineVariable checks
// scopeDepth); for a global, it is the name's constant-pool index.
func (p *Parser) parseVariable(msg string) uint32 {
	p.consume(lexer.Identifier, msg)
	name := p.lexeme(p.previous)
	if p.fs.scopeDepth > 0 {
		if !p.fs.addLocal(name) {
			p.errorAtPrevious("Too many local variables in function.")
		}
		return 0
	}
	return p.identifierConstant(name)
}

func (p *Parser) defineVariable(global uint32) {
	if p.fs.scopeDepth > 0 {
		p.fs.markInitialized()
		return
	}
	p.emit(bytecode.OpDefineGlobal, global)
}

func (p *Parser) funDeclaration() {
	p.consume(lexer.Identifier, "Expect function name.")
	name := p.lexeme(p.previous)
	var global uint32
	if p.fs.scopeDepth > 0 {
		if !p.fs.addLocal(name) {
			p.errorAtPrevious("Too many local variables in function.")
		}
		p.fs.markInitialized()
	} else {
		global = p.identifierConstant(name)
	}
	p.function(name)
	p.defineVariableAfterFunction(global)
}

// defineVariableAfterFunction is funDeclaration's half of defineVariable:
// a local function was already marked initialized before its body was
// compiled (permitting recursive calls to resolve it as a local), so
// only the global case needs an emission here.
func (p *Parser) defineVariableAfterFunction(global uint32) {
	if p.fs.scopeDepth > 0 {
		return
	}
	p.emit(bytecode.OpDefineGlobal, global)
}

// function compiles a function literal's parameter list and body in a
// fresh funcState, then emits Closure(const_ix) in the enclosing chunk
// (spec.md section 4.3's "Functions" paragraph).
func (p *Parser) function(name string) {
	enclosing := p.fs
	p.fs = newFuncState(enclosing, name)
	p.beginScope()

	p.consume(lexer.LeftParen, "Expect '(' after function name.")
	if !p.check(lexer.RightParen) {
		for {
			p.fs.arity++
			if p.fs.arity > maxArgs {
				p.errorAtCurrent("Cannot have more than 255 parameters.")
			}
			paramConst := p.parseVariable("Expect parameter name.")
			p.defineVariable(paramConst)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	p.consume(lexer.RightParen, "Expect ')' after parameters.")
	p.consume(lexer.LeftBrace, "Expect '{' before function body.")
	p.block()

	p.emit(bytecode.OpNil, 0)
	p.emit(bytecode.OpReturn, 0)

	fn := p.fs
	p.fs = enclosing

	protoValue := closureConstant(p, fn)
	idx := p.fs.chunk.AddConstant(protoValue)
	p.emit(bytecode.OpClosure, uint32(idx))
}
