package main

import (
	"fmt"
	"io"
	"os"

	"github.com/xirelogy/go-calc"
	"github.com/xirelogy/go-calc/internal/bytecode"
	"github.com/xirelogy/go-calc/internal/compiler"
)

func newCalcVM() *calc.VM {
	return calc.NewVMWithOutput(os.Stdout)
}

// runSource runs source for -c, mapping the result to the same exit-code
// contract RunFile uses, since -c has no file to hand the VM.
func runSource(vm *calc.VM, source string) int {
	err := vm.Interpret(source, ';')
	if err == nil {
		return calc.ExitOK
	}
	if ce, ok := err.(*calc.CompileError); ok {
		fmt.Fprintln(os.Stderr, ce.Error())
		return calc.ExitCompileError
	}
	fmt.Fprintln(os.Stderr, err.Error())
	return calc.ExitRuntimeError
}

// disassembleSource compiles source and writes its bytecode listing to w,
// for the -d flag. A compile error is returned to the caller without
// running anything; it does not go through the 65/70 exit-code mapping
// that -i/-c use.
func disassembleSource(source string, w io.Writer) error {
	chunk, err := compiler.Compile(source, ';')
	if err != nil {
		return err
	}
	bytecode.Disassemble(w, chunk, "source")
	return nil
}
