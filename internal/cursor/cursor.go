// Package cursor provides a bounds-checked little-endian reader over a
// byte slice. It is the substrate every parsing step of the container
// walker uses: all multi-byte fields in the format are little-endian,
// and all sizes are derived from previously read fields, so every read
// is validated against the buffer length instead of trusted.
package cursor

import (
	"encoding/binary"
	"errors"
)

// ErrOutOfBounds is the sticky error reported by Err once any read
// would have passed the end of the buffer.
var ErrOutOfBounds = errors.New("ase: read out of bounds")

// Cursor is a read position over an input buffer.
//
// A read that would overrun the buffer sets a sticky error, returns
// zero values, and parks the position at the end of the buffer so that
// every subsequent read fails the same way. Callers check Err at
// structural boundaries (after a header, after a chunk) rather than
// after every single field.
type Cursor struct {
	buf []byte
	pos int
	err error
}

// New returns a Cursor positioned at the start of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

func (c *Cursor) fail() {
	if c.err == nil {
		c.err = ErrOutOfBounds
	}
	c.pos = len(c.buf)
}

// U8 reads one byte.
func (c *Cursor) U8() uint8 {
	if c.pos+1 > len(c.buf) {
		c.fail()
		return 0
	}
	v := c.buf[c.pos]
	c.pos++
	return v
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16() uint16 {
	if c.pos+2 > len(c.buf) {
		c.fail()
		return 0
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32() uint32 {
	if c.pos+4 > len(c.buf) {
		c.fail()
		return 0
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v
}

// S16 reads a little-endian int16. Cel positions are signed and may be
// negative.
func (c *Cursor) S16() int16 {
	return int16(c.U16())
}

// Bytes reads n bytes and returns them as a fresh copy. The copy stays
// valid after the caller releases the input buffer.
func (c *Cursor) Bytes(n int) []byte {
	if n < 0 || c.pos+n > len(c.buf) {
		c.fail()
		return nil
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:])
	c.pos += n
	return out
}

// Peek returns a view of the next n bytes without advancing. The view
// aliases the input buffer and is only valid while the buffer is.
func (c *Cursor) Peek(n int) []byte {
	if n < 0 || c.pos+n > len(c.buf) {
		c.fail()
		return nil
	}
	return c.buf[c.pos : c.pos+n]
}

// Skip advances past n bytes without reading them.
func (c *Cursor) Skip(n int) {
	if n < 0 || c.pos+n > len(c.buf) {
		c.fail()
		return
	}
	c.pos += n
}

// Pos returns the current byte position.
func (c *Cursor) Pos() int {
	return c.pos
}

// SetPos moves the cursor to an absolute position. Positions beyond the
// end of the buffer are an overrun, same as reading past it.
func (c *Cursor) SetPos(pos int) {
	if pos < 0 || pos > len(c.buf) {
		c.fail()
		return
	}
	c.pos = pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Len returns the total buffer length.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Err returns ErrOutOfBounds if any read overran the buffer, nil
// otherwise.
func (c *Cursor) Err() error {
	return c.err
}
