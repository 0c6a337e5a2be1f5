// Package compiler implements the single-pass Pratt compiler: it drives
// the scanner token by token and emits bytecode directly into a Chunk,
// with no intermediate syntax tree. Scope resolution, constant pooling,
// and forward-jump patching all happen inline as tokens are consumed.
package compiler

import (
	"github.com/xirelogy/go-calc/internal/bytecode"
	"github.com/xirelogy/go-calc/internal/lexer"
	"github.com/xirelogy/go-calc/internal/token"
	"github.com/xirelogy/go-calc/internal/value"
)

const maxLocals = 256

type local struct {
	name  string
	depth int
}

// Compiler holds all compile-time state for one compilation unit: the
// token cursor, the chunk being emitted into, the locals shadowing the
// runtime stack slots, and error-recovery flags.
type Compiler struct {
	lex *lexer.Lexer

	current  token.Token
	previous token.Token

	chunk *bytecode.Chunk

	locals     [maxLocals]local
	localCount int
	scopeDepth int

	constCache map[string]byte

	requireSemicolons bool

	hadError  bool
	panicMode bool
	diags     []Diagnostic
}

// Compile compiles source into a Chunk. endline selects statement
// termination: ';' requires an explicit semicolon after every
// statement/declaration; any other byte makes the trailing semicolon
// optional (REPL mode, where the driver has already decided a unit is
// complete).
func Compile(source string, endline byte) (*bytecode.Chunk, error) {
	c := &Compiler{
		lex:               lexer.New(source),
		chunk:             bytecode.NewChunk(),
		requireSemicolons: endline == ';',
		constCache:        make(map[string]byte),
	}

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")
	c.emitOp(bytecode.OpReturn)

	if c.hadError {
		return nil, &CompileError{Diagnostics: c.diags}
	}
	return c.chunk, nil
}

// --- token cursor -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != token.Illegal {
			break
		}
		c.errorAtCurrent(c.current.Literal)
	}
}

func (c *Compiler) check(t token.Type) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// endOfStatement consumes the statement terminator per the endline mode:
// a literal ';' in file mode, an optional one otherwise.
func (c *Compiler) endOfStatement(msg string) {
	if c.requireSemicolons {
		c.consume(token.Semicolon, msg)
		return
	}
	c.match(token.Semicolon)
}

// --- emission ----------------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, err := c.chunk.AddConstant(v)
	if err != nil {
		c.errorPrev(err.Error())
		return
	}
	c.emitOp(bytecode.OpConstant)
	c.emitByte(idx)
}

// emitJump writes op followed by a two-byte placeholder, returning the
// offset of the placeholder for patchJump to fill in later.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk.Code) - 2
}

// patchJump backfills the placeholder at offset with the relative
// distance from just past the placeholder to the current code end.
func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk.Code) - offset - 2
	if jump > 0xffff {
		c.errorPrev("Too much code to jump over.")
		return
	}
	c.chunk.Code[offset] = byte(jump >> 8)
	c.chunk.Code[offset+1] = byte(jump)
}

// emitLoop writes a backward LOOP with the resolved delta immediately,
// rather than patching later.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.chunk.Code) - loopStart + 2
	if offset > 0xffff {
		c.errorPrev("Too much code to jump over.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// identifierConstant interns name into the constant pool, reusing the
// index on repeat references within the same chunk.
func (c *Compiler) identifierConstant(name string) byte {
	if idx, ok := c.constCache[name]; ok {
		return idx
	}
	idx, err := c.chunk.AddConstant(value.String(name))
	if err != nil {
		c.errorPrev(err.Error())
		return 0
	}
	c.constCache[name] = idx
	return idx
}

// --- scopes and locals ---------------------------------------------------

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--
	for c.localCount > 0 && c.locals[c.localCount-1].depth > c.scopeDepth {
		c.emitOp(bytecode.OpPop)
		c.localCount--
	}
}

// declareLocal adds name as a new local in the current scope, depth -1
// ("declared but not yet initialized") until its initializer finishes.
func (c *Compiler) declareLocal(name string) {
	for i := c.localCount - 1; i >= 0; i-- {
		if c.locals[i].depth != -1 && c.locals[i].depth < c.scopeDepth {
			break
		}
		if c.locals[i].name == name {
			c.errorPrev("Already a variable with this name in this scope.")
			return
		}
	}
	if c.localCount == maxLocals {
		c.errorPrev("Too many local variables in one chunk.")
		return
	}
	c.locals[c.localCount] = local{name: name, depth: -1}
	c.localCount++
}

func (c *Compiler) markInitialized() {
	c.locals[c.localCount-1].depth = c.scopeDepth
}

// resolveLocal finds name in the innermost enclosing scope that declares
// it. Reading a local whose depth is still -1 (its own initializer) is a
// compile error.
func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := c.localCount - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			if c.locals[i].depth == -1 {
				c.errorPrev("Can't read local variable in its own initializer.")
			}
			return i, true
		}
	}
	return -1, false
}

func (c *Compiler) defineGlobalNamed(name string) {
	idx := c.identifierConstant(name)
	c.emitOp(bytecode.OpDefineGlobal)
	c.emitByte(idx)
}

// --- declarations and statements --------------------------------------

func (c *Compiler) declaration() {
	if c.match(token.Var) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(token.Ident, "Expect variable name.")
	name := c.previous.Literal

	if c.scopeDepth > 0 {
		c.declareLocal(name)
	}

	if c.match(token.Assign) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}

	if c.scopeDepth == 0 {
		c.defineGlobalNamed(name)
	} else {
		c.markInitialized()
	}

	c.endOfStatement("Expect ';' after variable declaration.")
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.List):
		c.listStatement()
	case c.match(token.LBrace):
		c.beginScope()
		c.block()
		c.endScope()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.consume(token.LParen, "Expect '(' after 'print'.")
	c.expression()
	c.emitOp(bytecode.OpPrint)
	for c.match(token.Comma) {
		c.expression()
		c.emitOp(bytecode.OpPrint)
	}
	c.consume(token.RParen, "Expect ')' after print arguments.")
	c.emitOp(bytecode.OpNewline)
	c.endOfStatement("Expect ';' after print statement.")
}

func (c *Compiler) listStatement() {
	c.emitOp(bytecode.OpList)
	c.endOfStatement("Expect ';' after list statement.")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.emitOp(bytecode.OpPop)
	c.endOfStatement("Expect ';' after expression.")
}

func (c *Compiler) ifStatement() {
	c.consume(token.LParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)

	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk.Code)
	c.consume(token.LParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LParen, "Expect '(' after 'for'.")

	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.match(token.Var):
		c.consume(token.Ident, "Expect variable name.")
		name := c.previous.Literal
		if c.scopeDepth > 0 {
			c.declareLocal(name)
		}
		if c.match(token.Assign) {
			c.expression()
		} else {
			c.emitOp(bytecode.OpNil)
		}
		if c.scopeDepth == 0 {
			c.defineGlobalNamed(name)
		} else {
			c.markInitialized()
		}
		c.consume(token.Semicolon, "Expect ';' after loop initializer.")
	default:
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.Semicolon, "Expect ';' after loop initializer.")
	}

	loopStart := len(c.chunk.Code)
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}
	c.consume(token.Semicolon, "Expect ';' after loop condition.")

	if !c.check(token.RParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrStart := len(c.chunk.Code)
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RParen, "Expect ')' after for clauses.")
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.endScope()
}

// --- expressions ---------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := rules[c.previous.Type]
	if rule.prefix == nil {
		c.errorPrev("Expect expression.")
		return
	}
	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= rules[c.current.Type].precedence {
		c.advance()
		infix := rules[c.previous.Type].infix
		infix(c, canAssign)
	}

	// Only namedVariable consumes '='; if it's still sitting here, the
	// thing we just parsed (a literal, a grouping, a call...) isn't a
	// valid assignment target.
	if canAssign && c.check(token.Assign) {
		c.errorPrev("Invalid assignment target.")
	}
}

// --- error recovery --------------------------------------------------

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.Semicolon {
			return
		}
		switch c.current.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If,
			token.While, token.Print, token.List, token.Return:
			return
		}
		c.advance()
	}
}
