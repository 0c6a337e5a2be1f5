package compiler

import (
	"fmt"
	"strings"

	"github.com/xirelogy/go-calc/internal/token"
)

// Diagnostic is one compile-time error, formatted the way the language's
// diagnostics are specified to read on stderr.
type Diagnostic struct {
	Line    int
	Lexeme  string
	AtEnd   bool
	Message string
}

func (d Diagnostic) String() string {
	switch {
	case d.AtEnd:
		return fmt.Sprintf("[line %d] Error at end: %s", d.Line, d.Message)
	case d.Lexeme != "":
		return fmt.Sprintf("[line %d] Error at '%s': %s", d.Line, d.Lexeme, d.Message)
	default:
		return fmt.Sprintf("[line %d] Error: %s", d.Line, d.Message)
	}
}

// CompileError aggregates every diagnostic surfaced across a compile
// (only the first per synchronized segment is recorded, per panicMode).
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	d := Diagnostic{Line: tok.Line, Message: msg}
	switch tok.Type {
	case token.EOF:
		d.AtEnd = true
	case token.Illegal:
		// lexeme carries no useful text for illegal tokens
	default:
		d.Lexeme = tok.Literal
	}
	c.diags = append(c.diags, d)
}

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

func (c *Compiler) errorPrev(msg string) {
	c.errorAt(c.previous, msg)
}
