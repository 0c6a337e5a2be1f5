// Package runtime holds the fixed table of math intrinsics the VM
// dispatches to. It uses a self-registering registry idiom (entries are
// added from init()), but keyed by the fixed opcode set this
// language ships rather than by an open-ended plugin name, since the
// intrinsics here are part of the base instruction set, not an
// extensible surface.
package runtime

import (
	"fmt"
	"math"

	"github.com/xirelogy/go-calc/internal/bytecode"
)

// UnaryFunc computes a one-argument math intrinsic.
type UnaryFunc func(float64) float64

// BinaryFunc computes a two-argument math intrinsic.
type BinaryFunc func(a, b float64) float64

var (
	unary  = map[bytecode.OpCode]UnaryFunc{}
	binary = map[bytecode.OpCode]BinaryFunc{}
)

func registerUnary(op bytecode.OpCode, fn UnaryFunc) {
	if _, exists := unary[op]; exists {
		panic(fmt.Sprintf("intrinsic %s already registered", op))
	}
	unary[op] = fn
}

func registerBinary(op bytecode.OpCode, fn BinaryFunc) {
	if _, exists := binary[op]; exists {
		panic(fmt.Sprintf("intrinsic %s already registered", op))
	}
	binary[op] = fn
}

// Unary looks up the handler for a unary math intrinsic opcode.
func Unary(op bytecode.OpCode) (UnaryFunc, bool) {
	fn, ok := unary[op]
	return fn, ok
}

// Binary looks up the handler for a binary math intrinsic opcode.
func Binary(op bytecode.OpCode) (BinaryFunc, bool) {
	fn, ok := binary[op]
	return fn, ok
}

// sign returns -1 for negative operands, 1 otherwise (zero included), as
// specified for the SIGN opcode.
func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// snapEpsilon is 100 times float64 machine epsilon, matching the
// original's trig-snapping tolerance.
var snapEpsilon = 100 * (math.Nextafter(1, 2) - 1)

func near(x, target float64) bool {
	return math.Abs(x-target) <= snapEpsilon
}

// normalizeAngle reduces x into (-pi, pi].
func normalizeAngle(x float64) float64 {
	n := math.Mod(x, 2*math.Pi)
	if n > math.Pi {
		n -= 2 * math.Pi
	} else if n <= -math.Pi {
		n += 2 * math.Pi
	}
	return n
}

// snapSin normalizes x into (-pi, pi] and snaps the result to the exact
// value when the normalized angle is within snapEpsilon of 0, +/-pi/2 or
// +/-pi, so trig identities print cleanly.
func snapSin(x float64) float64 {
	n := normalizeAngle(x)
	switch {
	case near(n, 0), near(n, math.Pi), near(n, -math.Pi):
		return 0
	case near(n, math.Pi/2):
		return 1
	case near(n, -math.Pi/2):
		return -1
	}
	return math.Sin(x)
}

func snapCos(x float64) float64 {
	n := normalizeAngle(x)
	switch {
	case near(n, math.Pi/2), near(n, -math.Pi/2):
		return 0
	case near(n, 0):
		return 1
	case near(n, math.Pi), near(n, -math.Pi):
		return -1
	}
	return math.Cos(x)
}

func snapTan(x float64) float64 {
	n := math.Mod(x, math.Pi)
	if near(n, 0) || near(n, math.Pi) || near(n, -math.Pi) {
		return 0
	}
	return math.Tan(x)
}

func init() {
	registerUnary(bytecode.OpExp, math.Exp)
	registerUnary(bytecode.OpSin, snapSin)
	registerUnary(bytecode.OpCos, snapCos)
	registerUnary(bytecode.OpTan, snapTan)
	registerUnary(bytecode.OpAbs, math.Abs)
	registerUnary(bytecode.OpLog, math.Log)
	registerUnary(bytecode.OpLog10, math.Log10)
	registerUnary(bytecode.OpSign, sign)
	registerUnary(bytecode.OpSqrt, math.Sqrt)
	registerUnary(bytecode.OpAcos, math.Acos)
	registerUnary(bytecode.OpAsin, math.Asin)
	registerUnary(bytecode.OpAtan, math.Atan)
	registerUnary(bytecode.OpCeil, math.Ceil)
	registerUnary(bytecode.OpFloor, math.Floor)

	registerBinary(bytecode.OpAtan2, math.Atan2)
	registerBinary(bytecode.OpMin, math.Min)
	registerBinary(bytecode.OpMax, math.Max)
}
