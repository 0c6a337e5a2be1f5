package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xirelogy/go-calc/internal/compiler"
	"github.com/xirelogy/go-calc/internal/value"
	"github.com/xirelogy/go-calc/internal/vm"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	chunk, err := compiler.Compile(src, ';')
	require.NoError(t, err)
	var out bytes.Buffer
	machine := vm.New(&out)
	err = machine.Run(chunk, nil)
	return out.String(), err
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print(1 + 2 * 3);")
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestGlobalAssignment(t *testing.T) {
	out, err := run(t, "var x = 10; x = x + 5; print(x);")
	require.NoError(t, err)
	require.Equal(t, "15\n", out)
}

func TestBlockScopeShadowsGlobal(t *testing.T) {
	out, err := run(t, `var x = 1; { var x = 2; print(x); } print(x);`)
	require.NoError(t, err)
	require.Equal(t, "2\n1\n", out)
}

func TestForLoopAccumulates(t *testing.T) {
	out, err := run(t, `var s = 0; for (var i = 0; i < 4; i = i + 1) { s = s + i; } print(s);`)
	require.NoError(t, err)
	require.Equal(t, "6\n", out)
}

func TestTernary(t *testing.T) {
	out, err := run(t, `print((3 > 2) ? "a" : "b");`)
	require.NoError(t, err)
	require.Equal(t, "a\n", out)
}

func TestPowerModIntDiv(t *testing.T) {
	out, err := run(t, `print(2 ** 10); print(17 % 5); print(17 // 5);`)
	require.NoError(t, err)
	require.Equal(t, "1024\n2\n3\n", out)
}

func TestSinSnapsToZeroAtPi(t *testing.T) {
	out, err := run(t, `print(sin(pi));`)
	require.NoError(t, err)
	require.Equal(t, "0\n", out)
}

func TestCosSnapsAtHalfPiAndZero(t *testing.T) {
	out, err := run(t, `print(cos(pi / 2)); print(cos(0));`)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n", out)
}

func TestUndefinedGlobalAssignmentIsRuntimeError(t *testing.T) {
	_, err := run(t, "y = 1;")
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Contains(t, rerr.Message, "Undefined variable 'y'.")
}

func TestShortCircuitAnd(t *testing.T) {
	out, err := run(t, `var hit = false; (false) and (hit = true); print(hit);`)
	require.NoError(t, err)
	require.Equal(t, "false\n", out)
}

func TestShortCircuitOr(t *testing.T) {
	out, err := run(t, `var hit = false; (true) or (hit = true); print(hit);`)
	require.NoError(t, err)
	require.Equal(t, "false\n", out)
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	machine := vm.New(&out)

	chunk1, err := compiler.Compile("var greeting = \"hi\";", ';')
	require.NoError(t, err)
	require.NoError(t, machine.Run(chunk1, nil))

	chunk2, err := compiler.Compile("print(greeting);", ';')
	require.NoError(t, err)
	require.NoError(t, machine.Run(chunk2, nil))

	require.Equal(t, "hi\n", out.String())
}

func TestInjectedLocalsConsultedBeforeGlobals(t *testing.T) {
	chunk, err := compiler.Compile("print(scale);", ';')
	require.NoError(t, err)

	var out bytes.Buffer
	machine := vm.New(&out)
	machine.SetGlobal("scale", value.Number(1))

	err = machine.Run(chunk, map[string]value.Value{"scale": value.Number(42)})
	require.NoError(t, err)
	require.Equal(t, "42\n", out.String())
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print("foo" + "bar");`)
	require.NoError(t, err)
	require.Equal(t, "foobar\n", out)
}

func TestListDumpsGlobalsInInsertionOrder(t *testing.T) {
	out, err := run(t, "var a = 1; var b = 2; list;")
	require.NoError(t, err)
	require.Equal(t, "a = 1\nb = 2\n", out)
}
