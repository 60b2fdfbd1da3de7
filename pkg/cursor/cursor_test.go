package cursor

import (
	"errors"
	"testing"
)

func TestReads(t *testing.T) {
	// 0x01, then 0x0302 (LE u16), then 0x07060504 (LE u32)
	c := New([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})

	u8, err := c.Uint8()
	if err != nil {
		t.Fatalf("Uint8 failed: %v", err)
	}
	if u8 != 0x01 {
		t.Errorf("expected 0x01, got 0x%02x", u8)
	}

	u16, err := c.Uint16()
	if err != nil {
		t.Fatalf("Uint16 failed: %v", err)
	}
	if u16 != 0x0302 {
		t.Errorf("expected 0x0302, got 0x%04x", u16)
	}

	u32, err := c.Uint32()
	if err != nil {
		t.Fatalf("Uint32 failed: %v", err)
	}
	if u32 != 0x07060504 {
		t.Errorf("expected 0x07060504, got 0x%08x", u32)
	}

	if c.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", c.Remaining())
	}
}

func TestSignedReads(t *testing.T) {
	c := New([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	i8, err := c.Int8()
	if err != nil || i8 != -1 {
		t.Errorf("Int8: got %d, %v", i8, err)
	}

	i16, err := c.Int16()
	if err != nil || i16 != -1 {
		t.Errorf("Int16: got %d, %v", i16, err)
	}

	i32, err := c.Int32()
	if err != nil || i32 != -1 {
		t.Errorf("Int32: got %d, %v", i32, err)
	}
}

func TestTruncation(t *testing.T) {
	c := New([]byte{0x01, 0x02, 0x03})

	if _, err := c.Uint32(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}

	if _, err := New(nil).Uint8(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated on empty buffer, got %v", err)
	}
}

func TestSeekAndSkip(t *testing.T) {
	c := New([]byte{0x00, 0x01, 0x02, 0x03})

	if err := c.Seek(2); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if c.Tell() != 2 {
		t.Errorf("expected position 2, got %d", c.Tell())
	}

	v, err := c.Uint8()
	if err != nil || v != 0x02 {
		t.Errorf("expected 0x02 after seek, got 0x%02x, %v", v, err)
	}

	if err := c.Skip(1); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if c.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", c.Remaining())
	}

	if err := c.Skip(1); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if err := c.Seek(5); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if err := c.Seek(-1); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestBytesAliasing(t *testing.T) {
	backing := []byte{0xAA, 0xBB, 0xCC}
	c := New(backing)

	b, err := c.Bytes(2)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	backing[0] = 0x11
	if b[0] != 0x11 {
		t.Error("Bytes should alias the underlying buffer")
	}
	if c.Tell() != 2 {
		t.Errorf("expected position 2, got %d", c.Tell())
	}
}
