// Package vm implements the stack-based bytecode virtual machine: a tight
// dispatch loop over a single Chunk, an operand stack, a globals table
// that persists across successive Run calls, and an optional
// caller-supplied locals map consulted on global reads.
package vm

import (
	"fmt"
	"io"
	"math"

	"github.com/xirelogy/go-calc/internal/bytecode"
	"github.com/xirelogy/go-calc/internal/runtime"
	"github.com/xirelogy/go-calc/internal/value"
)

// StackMax is the fixed operand stack capacity.
const StackMax = 256

// VM executes chunks compiled from this language. Globals persist across
// Run calls made on the same VM; this is what makes the REPL usable.
type VM struct {
	stack [StackMax]value.Value
	sp    int

	chunk *bytecode.Chunk
	ip    int

	globals     map[string]value.Value
	globalOrder []string
	locals      map[string]value.Value

	instLimit int
	instCount int
	traceHook TraceHook

	out io.Writer
}

// New returns a VM with empty globals, writing PRINT/NEWLINE/LIST output
// to out.
func New(out io.Writer) *VM {
	return &VM{
		globals: make(map[string]value.Value),
		out:     out,
	}
}

// SetInstructionLimit bounds the number of instructions a single Run may
// execute; 0 disables the limit.
func (vm *VM) SetInstructionLimit(n int) {
	vm.instLimit = n
}

// SetTraceHook installs a hook invoked before every instruction dispatch.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// Globals returns a snapshot copy of the globals table.
func (vm *VM) Globals() map[string]value.Value {
	out := make(map[string]value.Value, len(vm.globals))
	for k, v := range vm.globals {
		out[k] = v
	}
	return out
}

// SetGlobal pre-populates a global binding, for host embedding.
func (vm *VM) SetGlobal(name string, v value.Value) {
	vm.defineGlobal(name, v)
}

func (vm *VM) defineGlobal(name string, v value.Value) {
	if _, exists := vm.globals[name]; !exists {
		vm.globalOrder = append(vm.globalOrder, name)
	}
	vm.globals[name] = v
}

// Run executes chunk to completion: RETURN, a runtime error, or a panic
// recovered as a runtime error (stack overflow/underflow). injected, if
// non-nil, is consulted before globals on every GET_GLOBAL.
func (vm *VM) Run(chunk *bytecode.Chunk, injected map[string]value.Value) (err error) {
	vm.chunk = chunk
	vm.ip = 0
	vm.sp = 0
	vm.locals = injected
	vm.instCount = 0

	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				err = re
				return
			}
			err = &RuntimeError{Message: fmt.Sprintf("%v", r), Line: vm.currentLine()}
		}
	}()

	for {
		if vm.instLimit > 0 {
			vm.instCount++
			if vm.instCount > vm.instLimit {
				return vm.errorf("Instruction limit exceeded.")
			}
		}

		op := bytecode.OpCode(vm.readByte())
		vm.trace(byte(op))

		switch op {
		case bytecode.OpConstant:
			vm.push(vm.chunk.Consts[vm.readByte()])
		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))

		case bytecode.OpNegate:
			a := vm.popNumber()
			vm.push(value.Number(-a))
		case bytecode.OpUPlus:
			a := vm.popNumber()
			vm.push(value.Number(a))

		case bytecode.OpAdd:
			vm.execAdd()
		case bytecode.OpSub:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Number(a - b))
		case bytecode.OpMul:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Number(a * b))
		case bytecode.OpDiv:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Number(a / b))
		case bytecode.OpMod:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Number(math.Mod(math.Trunc(a), math.Trunc(b))))
		case bytecode.OpIntDiv:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Number(math.Trunc(math.Trunc(a) / math.Trunc(b))))
		case bytecode.OpPow:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Number(math.Pow(a, b)))

		case bytecode.OpNot:
			a := vm.pop()
			vm.push(value.Bool(!a.Truthy()))
		case bytecode.OpXor:
			b, a := vm.popInt(), vm.popInt()
			vm.push(value.Number(float64(a ^ b)))
		case bytecode.OpBOr:
			b, a := vm.popInt(), vm.popInt()
			vm.push(value.Number(float64(a | b)))
		case bytecode.OpBAnd:
			b, a := vm.popInt(), vm.popInt()
			vm.push(value.Number(float64(a & b)))
		case bytecode.OpBNot:
			a := vm.popInt()
			vm.push(value.Number(float64(^a)))
		case bytecode.OpLShift:
			b, a := vm.popInt(), vm.popInt()
			vm.push(value.Number(float64(a << shiftCount(b))))
		case bytecode.OpRShift:
			b, a := vm.popInt(), vm.popInt()
			vm.push(value.Number(float64(a >> shiftCount(b))))

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpGreater:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Bool(a > b))
		case bytecode.OpLess:
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Bool(a < b))

		case bytecode.OpExp, bytecode.OpSin, bytecode.OpCos, bytecode.OpTan,
			bytecode.OpAbs, bytecode.OpLog, bytecode.OpLog10, bytecode.OpSign,
			bytecode.OpSqrt, bytecode.OpAcos, bytecode.OpAsin, bytecode.OpAtan,
			bytecode.OpCeil, bytecode.OpFloor:
			fn, _ := runtime.Unary(op)
			a := vm.popNumber()
			vm.push(value.Number(fn(a)))

		case bytecode.OpAtan2, bytecode.OpMin, bytecode.OpMax:
			fn, _ := runtime.Binary(op)
			b, a := vm.popNumber(), vm.popNumber()
			vm.push(value.Number(fn(a, b)))

		case bytecode.OpPrint:
			fmt.Fprint(vm.out, vm.pop().Print())
		case bytecode.OpNewline:
			fmt.Fprint(vm.out, "\n")
		case bytecode.OpList:
			vm.listGlobals()

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpDefineGlobal:
			name := vm.chunk.Consts[vm.readByte()].Str
			vm.defineGlobal(name, vm.pop())
		case bytecode.OpGetGlobal:
			name := vm.chunk.Consts[vm.readByte()].Str
			if vm.locals != nil {
				if v, ok := vm.locals[name]; ok {
					vm.push(v)
					break
				}
			}
			v, ok := vm.globals[name]
			if !ok {
				panic(vm.errorf("Undefined variable '%s'.", name))
			}
			vm.push(v)
		case bytecode.OpSetGlobal:
			name := vm.chunk.Consts[vm.readByte()].Str
			if _, ok := vm.globals[name]; !ok {
				panic(vm.errorf("Undefined variable '%s'.", name))
			}
			vm.globals[name] = vm.peek(0)
		case bytecode.OpGetLocal:
			slot := vm.readByte()
			vm.push(vm.stack[slot])
		case bytecode.OpSetLocal:
			slot := vm.readByte()
			vm.stack[slot] = vm.peek(0)

		case bytecode.OpJumpIfFalse:
			off := vm.readU16()
			if !vm.peek(0).Truthy() {
				vm.ip += off
			}
		case bytecode.OpJump:
			off := vm.readU16()
			vm.ip += off
		case bytecode.OpLoop:
			off := vm.readU16()
			vm.ip -= off

		case bytecode.OpReturn:
			return nil

		default:
			panic(vm.errorf("Unknown opcode 0x%02x.", byte(op)))
		}
	}
}

func shiftCount(n int64) uint {
	if n < 0 {
		return 0
	}
	return uint(n)
}

func (vm *VM) execAdd() {
	b, a := vm.pop(), vm.pop()
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.push(value.Number(a.Num + b.Num))
	case a.IsString() && b.IsString():
		vm.push(value.String(a.Str + b.Str))
	default:
		panic(vm.errorf("Operands must be two numbers or two strings."))
	}
}

func (vm *VM) listGlobals() {
	for _, name := range vm.globalOrder {
		v, ok := vm.globals[name]
		if !ok {
			continue
		}
		fmt.Fprintf(vm.out, "%s = %s\n", name, v.Print())
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readU16() int {
	hi := vm.readByte()
	lo := vm.readByte()
	return int(hi)<<8 | int(lo)
}

func (vm *VM) push(v value.Value) {
	if vm.sp >= StackMax {
		panic(vm.errorf("Stack overflow."))
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	if vm.sp == 0 {
		panic(vm.errorf("Stack underflow."))
	}
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) value.Value {
	idx := vm.sp - 1 - distance
	if idx < 0 {
		panic(vm.errorf("Stack underflow."))
	}
	return vm.stack[idx]
}

func (vm *VM) popNumber() float64 {
	v := vm.pop()
	if !v.IsNumber() {
		panic(vm.errorf("Operands must be numbers."))
	}
	return v.Num
}

func (vm *VM) popInt() int64 {
	return int64(math.Trunc(vm.popNumber()))
}
