package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xirelogy/go-calc/internal/bytecode"
)

func compile(t *testing.T, src string, endline byte) *bytecode.Chunk {
	t.Helper()
	chunk, err := Compile(src, endline)
	require.NoError(t, err)
	return chunk
}

func TestCompileArithmeticEndsInReturn(t *testing.T) {
	chunk := compile(t, "print(1 + 2 * 3);", ';')
	require.NotEmpty(t, chunk.Code)
	require.Equal(t, bytecode.OpReturn, bytecode.OpCode(chunk.Code[len(chunk.Code)-1]))
}

func TestCompilePowerIsRightAssociative(t *testing.T) {
	// 2 ** 3 ** 2 should emit CONST 2, CONST 3, CONST 2, POW, POW
	chunk := compile(t, "2 ** 3 ** 2;", ';')
	powCount := 0
	for _, b := range chunk.Code {
		if bytecode.OpCode(b) == bytecode.OpPow {
			powCount++
		}
	}
	require.Equal(t, 2, powCount)

	want := []byte{
		byte(bytecode.OpConstant), 0,
		byte(bytecode.OpConstant), 1,
		byte(bytecode.OpConstant), 2,
		byte(bytecode.OpPow), byte(bytecode.OpPow),
		byte(bytecode.OpPop), byte(bytecode.OpReturn),
	}
	require.Equal(t, want, chunk.Code)
}

func TestCompileErrorOnDuplicateLocal(t *testing.T) {
	_, err := Compile("{ var x = 1; var x = 2; }", ';')
	require.Error(t, err)
}

func TestCompileErrorOnSelfReferentialLocalInitializer(t *testing.T) {
	_, err := Compile("{ var x = x; }", ';')
	require.Error(t, err)
}

func TestCompileTopLevelSelfReferenceIsNotACompileError(t *testing.T) {
	_, err := Compile("var x = x;", ';')
	require.NoError(t, err)
}

func TestCompileMissingSemicolonInFileMode(t *testing.T) {
	_, err := Compile("var x = 1", ';')
	require.Error(t, err)
}

func TestCompileOptionalSemicolonInReplMode(t *testing.T) {
	_, err := Compile("var x = 1", 0)
	require.NoError(t, err)
}

func TestCompileTernaryEmitsJumps(t *testing.T) {
	chunk := compile(t, `print((3 > 2) ? "a" : "b");`, ';')
	jumps := 0
	for _, b := range chunk.Code {
		op := bytecode.OpCode(b)
		if op == bytecode.OpJump || op == bytecode.OpJumpIfFalse {
			jumps++
		}
	}
	require.Equal(t, 2, jumps)
}

func TestCompileForLoopScopesLocal(t *testing.T) {
	_, err := Compile("var s = 0; for (var i = 0; i < 4; i = i + 1) { s = s + i; }", ';')
	require.NoError(t, err)
}

func TestCompileTooManyConstants(t *testing.T) {
	src := ""
	for i := 0; i < 260; i++ {
		src += "print(" + itoa(i) + ");"
	}
	_, err := Compile(src, ';')
	require.Error(t, err)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
