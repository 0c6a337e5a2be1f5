package calc

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpretPersistsGlobalsAcrossCalls(t *testing.T) {
	var out bytes.Buffer
	v := NewVMWithOutput(&out)

	require.NoError(t, v.Interpret("var x = 10;", ';'))
	require.NoError(t, v.Interpret("print(x + 1);", ';'))
	require.Equal(t, "11\n", out.String())
}

func TestInterpretCompileErrorType(t *testing.T) {
	v := NewVMWithOutput(&bytes.Buffer{})
	err := v.Interpret("var = 1;", ';')
	require.Error(t, err)
	_, ok := err.(*CompileError)
	require.True(t, ok)
}

func TestInterpretRuntimeErrorType(t *testing.T) {
	v := NewVMWithOutput(&bytes.Buffer{})
	err := v.Interpret("y = 1;", ';')
	require.Error(t, err)
	_, ok := err.(*RuntimeError)
	require.True(t, ok)
}

func TestInterpretWithLocalsShadowsGlobal(t *testing.T) {
	var out bytes.Buffer
	v := NewVMWithOutput(&out)
	v.SetGlobal("radius", Number(1))

	err := v.InterpretWithLocals("print(radius);", ';', map[string]Value{"radius": Number(99)})
	require.NoError(t, err)
	require.Equal(t, "99\n", out.String())
}

func TestRunFileExitCodes(t *testing.T) {
	dir := t.TempDir()

	ok := dir + "/ok.calc"
	require.NoError(t, os.WriteFile(ok, []byte("print(1+1);"), 0o644))
	v := NewVMWithOutput(&bytes.Buffer{})
	require.Equal(t, ExitOK, v.RunFile(ok, &bytes.Buffer{}))

	bad := dir + "/bad.calc"
	require.NoError(t, os.WriteFile(bad, []byte("var = 1;"), 0o644))
	v2 := NewVMWithOutput(&bytes.Buffer{})
	require.Equal(t, ExitCompileError, v2.RunFile(bad, &bytes.Buffer{}))

	require.Equal(t, ExitFileError, v2.RunFile(dir+"/missing.calc", &bytes.Buffer{}))
}

func TestDuplicateForksIndependentGlobals(t *testing.T) {
	v := NewVMWithOutput(&bytes.Buffer{})
	require.NoError(t, v.Interpret("var x = 1;", ';'))

	dup := v.Duplicate()
	require.NoError(t, dup.Interpret("x = 2;", ';'))

	require.Equal(t, Number(1), v.Globals()["x"])
	require.Equal(t, Number(2), dup.Globals()["x"])
}
