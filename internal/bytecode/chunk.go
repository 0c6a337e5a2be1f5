package bytecode

import (
	"fmt"

	"github.com/xirelogy/go-calc/internal/value"
)

// MaxConstants bounds the constant pool: operands addressing it are a
// single byte.
const MaxConstants = 256

// Chunk is a self-contained bytecode program: the instruction stream, a
// parallel line table for diagnostics, and a constant pool.
type Chunk struct {
	Code   []byte
	Lines  []int
	Consts []value.Value
}

// NewChunk returns an empty Chunk.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends a byte to the code stream, tagging it with line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index. It
// fails once the pool would exceed MaxConstants entries.
func (c *Chunk) AddConstant(v value.Value) (byte, error) {
	if len(c.Consts) >= MaxConstants {
		return 0, fmt.Errorf("Too many constants in one chunk.")
	}
	c.Consts = append(c.Consts, v)
	return byte(len(c.Consts) - 1), nil
}
