package compiler

import (
	"math"
	"strconv"
	"strings"

	"github.com/xirelogy/go-calc/internal/bytecode"
	"github.com/xirelogy/go-calc/internal/token"
	"github.com/xirelogy/go-calc/internal/value"
)

// Precedence orders operator binding strength, low to high, per the
// language's precedence ladder.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecTernary
	PrecOr
	PrecXor
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecPower
	PrecCall
	PrecPrimary
)

type prefixRule func(c *Compiler, canAssign bool)
type infixRule func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     prefixRule
	infix      infixRule
	precedence Precedence
}

// rules is the table-driven Pratt dispatch: each token kind maps to its
// (prefix, infix, precedence) triple. Token kinds absent from the map
// carry the zero parseRule (no rule, precedence NONE), which naturally
// stops the infix loop in parsePrecedence.
var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.Number: {prefix: number},
		token.String: {prefix: stringLiteral},
		token.True:   {prefix: literalTrue},
		token.False:  {prefix: literalFalse},
		token.Nil:    {prefix: literalNil},
		token.Pi:     {prefix: piConstant},
		token.LParen: {prefix: grouping},
		token.Ident:  {prefix: variable},

		token.Bang:  {prefix: unary},
		token.Tilde: {prefix: unary},

		token.Minus: {prefix: unary, infix: binary, precedence: PrecTerm},
		token.Plus:  {prefix: unary, infix: binary, precedence: PrecTerm},

		token.Star:       {infix: binary, precedence: PrecFactor},
		token.Slash:      {infix: binary, precedence: PrecFactor},
		token.Percent:    {infix: binary, precedence: PrecFactor},
		token.SlashSlash: {infix: binary, precedence: PrecFactor},
		token.StarStar:   {infix: power, precedence: PrecPower},

		token.Eq:        {infix: binary, precedence: PrecEquality},
		token.NotEq:     {infix: binary, precedence: PrecEquality},
		token.Less:      {infix: binary, precedence: PrecComparison},
		token.LessEq:    {infix: binary, precedence: PrecComparison},
		token.Greater:   {infix: binary, precedence: PrecComparison},
		token.GreaterEq: {infix: binary, precedence: PrecComparison},

		token.And:      {infix: logicalAnd, precedence: PrecAnd},
		token.Or:       {infix: logicalOr, precedence: PrecOr},
		token.Xor:      {infix: binary, precedence: PrecXor},
		token.Question: {infix: ternary, precedence: PrecTernary},

		token.Exp:   {prefix: unaryIntrinsic},
		token.Sin:   {prefix: unaryIntrinsic},
		token.Cos:   {prefix: unaryIntrinsic},
		token.Tan:   {prefix: unaryIntrinsic},
		token.Abs:   {prefix: unaryIntrinsic},
		token.Log:   {prefix: unaryIntrinsic},
		token.Log10: {prefix: unaryIntrinsic},
		token.Sign:  {prefix: unaryIntrinsic},
		token.Sqrt:  {prefix: unaryIntrinsic},
		token.Acos:  {prefix: unaryIntrinsic},
		token.Asin:  {prefix: unaryIntrinsic},
		token.Atan:  {prefix: unaryIntrinsic},
		token.Ceil:  {prefix: unaryIntrinsic},
		token.Floor: {prefix: unaryIntrinsic},

		token.Atan2: {prefix: binaryIntrinsic},
		token.Min:   {prefix: binaryIntrinsic},
		token.Max:   {prefix: binaryIntrinsic},
	}
}

func number(c *Compiler, _ bool) {
	lit := c.previous.Literal
	norm := strings.Map(func(r rune) rune {
		if r == 'd' || r == 'D' {
			return 'e'
		}
		return r
	}, lit)
	n, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		c.errorPrev("Invalid number literal.")
		return
	}
	c.emitConstant(value.Number(n))
}

func stringLiteral(c *Compiler, _ bool) {
	c.emitConstant(value.String(c.previous.Literal))
}

func literalTrue(c *Compiler, _ bool)  { c.emitOp(bytecode.OpTrue) }
func literalFalse(c *Compiler, _ bool) { c.emitOp(bytecode.OpFalse) }
func literalNil(c *Compiler, _ bool)   { c.emitOp(bytecode.OpNil) }

func piConstant(c *Compiler, _ bool) {
	c.emitConstant(value.Number(math.Acos(-1)))
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RParen, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.Minus:
		c.emitOp(bytecode.OpNegate)
	case token.Plus:
		c.emitOp(bytecode.OpUPlus)
	case token.Bang:
		c.emitOp(bytecode.OpNot)
	case token.Tilde:
		c.emitOp(bytecode.OpBNot)
	}
}

func binary(c *Compiler, _ bool) {
	opType := c.previous.Type
	rule := rules[opType]
	c.parsePrecedence(rule.precedence + 1)
	switch opType {
	case token.Plus:
		c.emitOp(bytecode.OpAdd)
	case token.Minus:
		c.emitOp(bytecode.OpSub)
	case token.Star:
		c.emitOp(bytecode.OpMul)
	case token.Slash:
		c.emitOp(bytecode.OpDiv)
	case token.Percent:
		c.emitOp(bytecode.OpMod)
	case token.SlashSlash:
		c.emitOp(bytecode.OpIntDiv)
	case token.Eq:
		c.emitOp(bytecode.OpEqual)
	case token.NotEq:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.LessEq:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.GreaterEq:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.Xor:
		c.emitOp(bytecode.OpXor)
	}
}

// power is right-associative: it re-enters at its own precedence level
// rather than precedence+1, so "a ** b ** c" parses as "a ** (b ** c)".
func power(c *Compiler, _ bool) {
	c.parsePrecedence(PrecPower)
	c.emitOp(bytecode.OpPow)
}

func ternary(c *Compiler, _ bool) {
	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecTernary)

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	c.consume(token.Colon, "Expect ':' after then branch of ternary expression.")
	c.parsePrecedence(PrecTernary)
	c.patchJump(elseJump)
}

func logicalAnd(c *Compiler, _ bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func logicalOr(c *Compiler, _ bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous.Literal, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	slot, isLocal := c.resolveLocal(name)

	var getOp, setOp bytecode.OpCode
	var arg byte
	if isLocal {
		getOp, setOp, arg = bytecode.OpGetLocal, bytecode.OpSetLocal, byte(slot)
	} else {
		getOp, setOp, arg = bytecode.OpGetGlobal, bytecode.OpSetGlobal, c.identifierConstant(name)
	}

	if canAssign && c.match(token.Assign) {
		c.expression()
		c.emitOp(setOp)
		c.emitByte(arg)
		return
	}
	c.emitOp(getOp)
	c.emitByte(arg)
}

// unaryIntrinsic compiles "sin x"-style intrinsics: no parentheses
// required, the argument is parsed at UNARY precedence.
func unaryIntrinsic(c *Compiler, _ bool) {
	op := intrinsicOpcode(c.previous.Type)
	c.parsePrecedence(PrecUnary)
	c.emitOp(op)
}

// binaryIntrinsic compiles call-form intrinsics: atan2(a, b), min(a, b),
// max(a, b).
func binaryIntrinsic(c *Compiler, _ bool) {
	op := intrinsicOpcode(c.previous.Type)
	c.consume(token.LParen, "Expect '(' after intrinsic name.")
	c.expression()
	c.consume(token.Comma, "Expect ',' between intrinsic arguments.")
	c.expression()
	c.consume(token.RParen, "Expect ')' after intrinsic arguments.")
	c.emitOp(op)
}

func intrinsicOpcode(t token.Type) bytecode.OpCode {
	switch t {
	case token.Exp:
		return bytecode.OpExp
	case token.Sin:
		return bytecode.OpSin
	case token.Cos:
		return bytecode.OpCos
	case token.Tan:
		return bytecode.OpTan
	case token.Abs:
		return bytecode.OpAbs
	case token.Log:
		return bytecode.OpLog
	case token.Log10:
		return bytecode.OpLog10
	case token.Sign:
		return bytecode.OpSign
	case token.Sqrt:
		return bytecode.OpSqrt
	case token.Acos:
		return bytecode.OpAcos
	case token.Asin:
		return bytecode.OpAsin
	case token.Atan:
		return bytecode.OpAtan
	case token.Ceil:
		return bytecode.OpCeil
	case token.Floor:
		return bytecode.OpFloor
	case token.Atan2:
		return bytecode.OpAtan2
	case token.Min:
		return bytecode.OpMin
	case token.Max:
		return bytecode.OpMax
	}
	return bytecode.OpNil
}
