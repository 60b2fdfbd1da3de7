// Package cursor provides a bounds-checked little-endian reader over an
// in-memory byte buffer.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a read would run past the end of the buffer.
var ErrTruncated = errors.New("truncated data")

// Cursor reads sequentially from an immutable byte slice. A failed read
// leaves the position unspecified; callers must abort, not retry.
type Cursor struct {
	data []byte
	pos  int
}

// New creates a cursor over data. The cursor never copies; slices returned
// by Bytes alias the underlying buffer.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Tell returns the current read position.
func (c *Cursor) Tell() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Seek moves the read position to an absolute offset.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.data) {
		return fmt.Errorf("%w: seek to %d in %d-byte buffer", ErrTruncated, off, len(c.data))
	}
	c.pos = off
	return nil
}

// Skip advances the read position by n bytes.
func (c *Cursor) Skip(n int) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("%w: skip %d with %d remaining", ErrTruncated, n, c.Remaining())
	}
	c.pos += n
	return nil
}

// Bytes returns the next n bytes without copying. The slice is only valid
// as long as the underlying buffer.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, c.Remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Uint8 reads an unsigned 8-bit integer.
func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Int8 reads a signed 8-bit integer.
func (c *Cursor) Int8() (int8, error) {
	v, err := c.Uint8()
	return int8(v), err
}

// Uint16 reads an unsigned little-endian 16-bit integer.
func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// Int16 reads a signed little-endian 16-bit integer.
func (c *Cursor) Int16() (int16, error) {
	v, err := c.Uint16()
	return int16(v), err
}

// Uint32 reads an unsigned little-endian 32-bit integer.
func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int32 reads a signed little-endian 32-bit integer.
func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}
