// Package calc is the embedding surface for the expression/calculation
// language: compile-and-run a source string on a VM whose globals persist
// across calls, drive a REPL, or run a whole file.
package calc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/xirelogy/go-calc/internal/compiler"
	"github.com/xirelogy/go-calc/internal/value"
	"github.com/xirelogy/go-calc/internal/vm"
)

var (
	replPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	replErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Value re-exports the language's tagged Value union for host code that
// pre-populates globals or injected locals.
type Value = value.Value

func Nil() Value            { return value.Nil }
func Bool(b bool) Value     { return value.Bool(b) }
func Number(n float64) Value { return value.Number(n) }
func String(s string) Value { return value.String(s) }

// RuntimeError is returned from Interpret/InterpretWithLocals when
// compiled bytecode fails during execution (RunFile maps it to exit code
// 70).
type RuntimeError = vm.RuntimeError

// CompileError is returned from Interpret/InterpretWithLocals when the
// source fails to compile (RunFile maps it to exit code 65); it aggregates every diagnostic recorded across the whole
// unit (one per synchronized segment).
type CompileError = compiler.CompileError

// TraceHook observes every instruction dispatched by the VM.
type TraceHook = vm.TraceHook

// Exit codes mirror the host contract for VM::runFile.
const (
	ExitOK           = 0
	ExitCompileError = 65
	ExitRuntimeError = 70
	ExitFileError    = 74
)

// VM wraps the core bytecode virtual machine with the host-facing
// lifecycle: compile-and-run, REPL line accumulation, and file running.
// Interpret calls on one VM are serialized by an internal mutex; the
// other methods (Globals, SetGlobal, ExportGlobals, ...) take no lock.
// Duplicate a fresh instance per goroutine for independent sessions.
type VM struct {
	core *vm.VM
	mu   sync.Mutex
}

// NewVM returns a VM with empty globals, printing to stdout.
func NewVM() *VM {
	return NewVMWithOutput(os.Stdout)
}

// NewVMWithOutput returns a VM whose PRINT/NEWLINE/LIST opcodes write to out.
func NewVMWithOutput(out io.Writer) *VM {
	return &VM{core: vm.New(out)}
}

// SetInstructionLimit bounds the instructions a single Interpret call may
// execute; 0 disables the limit.
func (v *VM) SetInstructionLimit(n int) {
	v.core.SetInstructionLimit(n)
}

// SetTraceHook installs a per-instruction trace hook.
func (v *VM) SetTraceHook(h TraceHook) {
	v.core.SetTraceHook(h)
}

// Globals returns a snapshot copy of the current globals table.
func (v *VM) Globals() map[string]Value {
	return v.core.Globals()
}

// SetGlobal pre-populates a global binding before any Interpret call.
func (v *VM) SetGlobal(name string, val Value) {
	v.core.SetGlobal(name, val)
}

// Duplicate forks a new VM seeded with a copy of this VM's globals, for
// a host that wants independent concurrent sessions sharing a starting
// point.
func (v *VM) Duplicate() *VM {
	return &VM{core: v.core.Duplicate()}
}

// ExportGlobals snapshots the globals table to msgpack, for a host that
// wants to checkpoint a session and restore it later via ImportGlobals.
func (v *VM) ExportGlobals() ([]byte, error) {
	return msgpack.Marshal(v.core.Globals())
}

// ImportGlobals restores a snapshot produced by ExportGlobals, overwriting
// any globals already defined under the same names.
func (v *VM) ImportGlobals(snapshot []byte) error {
	globals := make(map[string]Value)
	if err := msgpack.Unmarshal(snapshot, &globals); err != nil {
		return err
	}
	for name, val := range globals {
		v.core.SetGlobal(name, val)
	}
	return nil
}

// Interpret compiles source and runs it on this VM, persisting globals
// for subsequent calls. endline selects statement termination (';' in
// file mode, anything else for a REPL unit the driver has already judged
// complete).
func (v *VM) Interpret(source string, endline byte) error {
	return v.InterpretWithLocals(source, endline, nil)
}

// InterpretWithLocals is like Interpret, but GET_GLOBAL consults locals
// before the VM's own globals table during this call. Writes never
// escape into locals; it is read-only from the script's perspective.
func (v *VM) InterpretWithLocals(source string, endline byte, locals map[string]Value) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	chunk, err := compiler.Compile(source, endline)
	if err != nil {
		return err
	}
	return v.core.Run(chunk, locals)
}

// RunFile reads path whole, interprets it with endline=';', and returns
// the process exit code the host contract specifies: 0 on success, 65 on
// compile error, 70 on runtime error, 74 if the file could not be read.
// Diagnostics are written to errOut.
func (v *VM) RunFile(path string, errOut io.Writer) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "Could not open file \"%s\".\n", path)
		return ExitFileError
	}
	return v.runUnit(string(src), ';', errOut)
}

func (v *VM) runUnit(src string, endline byte, errOut io.Writer) int {
	err := v.Interpret(src, endline)
	if err == nil {
		return ExitOK
	}
	if ce, ok := err.(*CompileError); ok {
		fmt.Fprintln(errOut, replErrorStyle.Render(ce.Error()))
		return ExitCompileError
	}
	fmt.Fprintln(errOut, replErrorStyle.Render(err.Error()))
	return ExitRuntimeError
}

// REPL reads lines from in with prompt ">>> " (continuation "... "),
// accumulating a buffer. A blank line flushes the accumulated buffer
// (block mode). Otherwise, when a line's last non-whitespace character
// is endline (or ';') and the buffer isn't already accumulating a block,
// the line is interpreted and flushed immediately; otherwise it keeps
// accumulating.
func (v *VM) REPL(endline byte, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	var buf strings.Builder
	accumulating := false

	prompt := func() {
		if accumulating {
			fmt.Fprint(out, replPromptStyle.Render("... "))
		} else {
			fmt.Fprint(out, replPromptStyle.Render(">>> "))
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			if accumulating {
				v.runUnit(buf.String(), endline, errOut)
			}
			buf.Reset()
			accumulating = false
			prompt()
			continue
		}

		buf.WriteString(line)
		buf.WriteByte('\n')

		trimmed := strings.TrimRight(line, " \t\r")
		endsUnit := len(trimmed) > 0 && (trimmed[len(trimmed)-1] == endline || trimmed[len(trimmed)-1] == ';')

		if endsUnit && !accumulating {
			v.runUnit(buf.String(), endline, errOut)
			buf.Reset()
		} else {
			accumulating = true
		}
		prompt()
	}

	if buf.Len() > 0 {
		v.runUnit(buf.String(), endline, errOut)
	}
	fmt.Fprintln(out)
	return scanner.Err()
}
