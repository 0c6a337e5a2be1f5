package bytecode

// OpCode enumerates bytecode operations. Operands, where present, are
// either a single byte (constant/local index) or two bytes big-endian
// (jump offset).
type OpCode byte

const (
	OpConstant OpCode = iota
	OpNil
	OpTrue
	OpFalse

	OpNegate
	OpUPlus

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpIntDiv
	OpPow

	OpNot
	OpXor
	OpBOr
	OpBAnd
	OpBNot
	OpLShift
	OpRShift

	OpEqual
	OpGreater
	OpLess

	OpExp
	OpSin
	OpCos
	OpTan
	OpAbs
	OpLog
	OpLog10
	OpSign
	OpSqrt
	OpAcos
	OpAsin
	OpAtan
	OpCeil
	OpFloor

	OpAtan2
	OpMin
	OpMax

	OpPrint
	OpNewline
	OpList

	OpPop

	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal

	OpJumpIfFalse
	OpJump
	OpLoop

	OpReturn
)

var names = map[OpCode]string{
	OpConstant: "CONSTANT", OpNil: "NIL", OpTrue: "TRUE", OpFalse: "FALSE",
	OpNegate: "NEGATE", OpUPlus: "UPLUS",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD",
	OpIntDiv: "INTDIV", OpPow: "POW",
	OpNot: "NOT", OpXor: "XOR", OpBOr: "BOR", OpBAnd: "BAND", OpBNot: "BNOT",
	OpLShift: "LSHIFT", OpRShift: "RSHIFT",
	OpEqual: "EQUAL", OpGreater: "GREATER", OpLess: "LESS",
	OpExp: "EXP", OpSin: "SIN", OpCos: "COS", OpTan: "TAN", OpAbs: "ABS",
	OpLog: "LOG", OpLog10: "LOG10", OpSign: "SIGN", OpSqrt: "SQRT",
	OpAcos: "ACOS", OpAsin: "ASIN", OpAtan: "ATAN", OpCeil: "CEIL", OpFloor: "FLOOR",
	OpAtan2: "ATAN2", OpMin: "MIN", OpMax: "MAX",
	OpPrint: "PRINT", OpNewline: "NEWLINE", OpList: "LIST",
	OpPop: "POP",
	OpDefineGlobal: "DEFINE_GLOBAL", OpGetGlobal: "GET_GLOBAL", OpSetGlobal: "SET_GLOBAL",
	OpGetLocal: "GET_LOCAL", OpSetLocal: "SET_LOCAL",
	OpJumpIfFalse: "JUMP_IF_FALSE", OpJump: "JUMP", OpLoop: "LOOP",
	OpReturn: "RETURN",
}

func (op OpCode) String() string {
	if s, ok := names[op]; ok {
		return s
	}
	return "UNKNOWN"
}

// OperandWidth returns the number of operand bytes that follow op in the
// code stream.
func (op OpCode) OperandWidth() int {
	switch op {
	case OpConstant, OpDefineGlobal, OpGetGlobal, OpSetGlobal, OpGetLocal, OpSetLocal:
		return 1
	case OpJumpIfFalse, OpJump, OpLoop:
		return 2
	default:
		return 0
	}
}
