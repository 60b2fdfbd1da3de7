// Package rff provides reading functionality for RFF resource archives.
//
// An RFF archive is a flat container of named, typed payloads (maps,
// palettes, sounds) indexed by a fixed-size dictionary. Depending on the
// archive version the dictionary is stored encrypted, and individual
// payloads may carry their own encryption flag.
package rff

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/grimfang/bloodline/pkg/crypt"
	"github.com/grimfang/bloodline/pkg/cursor"
)

// Magic is the archive signature "RFF\x1a" as a little-endian uint32.
const Magic uint32 = 0x1A464652

const (
	headerSize = 32
	entrySize  = 48

	// Dictionary entries are encrypted when the version high byte equals
	// this sentinel.
	encryptedDictVersion = 0x03

	// Entry payloads with this flag set have their first 256 bytes
	// XOR-encrypted with key 0.
	FlagEncrypted = 0x10

	// Only the leading bytes of an encrypted payload are ever
	// transformed, regardless of entry size. A quirk of the format that
	// must be preserved exactly.
	payloadCryptLimit = 256
)

// RFF format errors.
var (
	ErrBadSignature  = errors.New("invalid RFF signature")
	ErrInvalidOffset = errors.New("RFF range out of bounds")
)

// Entry is one resource record in the archive dictionary. Entries are
// immutable read views; they do not own payload bytes.
type Entry struct {
	Name   string // up to 8 characters, case preserved from disk
	Type   string // up to 3 characters, e.g. "MAP"
	Offset uint32
	Size   uint32
	Flags  uint8
	ID     uint32
}

// Encrypted reports whether the entry payload carries the encryption flag.
func (e *Entry) Encrypted() bool {
	return e.Flags&FlagEncrypted != 0
}

// FileName returns the entry as a conventional "NAME.TYP" string.
func (e *Entry) FileName() string {
	if e.Type == "" {
		return e.Name
	}
	return e.Name + "." + e.Type
}

// Archive is a parsed RFF container. It borrows the buffer handed to Load
// and is read-only after construction.
type Archive struct {
	Version uint16
	entries []Entry
	data    []byte
}

// Load parses an RFF archive from raw bytes. The archive keeps a reference
// to data; the caller must not modify it while the archive is in use.
func Load(data []byte) (*Archive, error) {
	c := cursor.New(data)

	sig, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("reading signature: %w", err)
	}
	if sig != Magic {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadSignature, sig)
	}

	version, err := c.Uint16()
	if err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if err := c.Skip(2); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	dictOffset, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("reading dictionary offset: %w", err)
	}
	entryCount, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("reading entry count: %w", err)
	}

	dictSize := uint64(entryCount) * entrySize
	if uint64(dictOffset)+dictSize > uint64(len(data)) {
		return nil, fmt.Errorf("%w: dictionary [%d..%d) in %d-byte archive",
			ErrInvalidOffset, dictOffset, uint64(dictOffset)+dictSize, len(data))
	}

	// The dictionary is decrypted on a scratch copy. The source region
	// must stay untouched: callers may re-read their buffer.
	dict := make([]byte, dictSize)
	copy(dict, data[dictOffset:uint64(dictOffset)+dictSize])

	if version&0xFF00 == uint16(encryptedDictVersion)<<8 {
		key := dictOffset + uint32(version&0xFF)*dictOffset
		crypt.Dictionary.Apply(dict, key&0xFFFF)
	}

	archive := &Archive{
		Version: version,
		entries: make([]Entry, 0, entryCount),
		data:    data,
	}

	dc := cursor.New(dict)
	for i := uint32(0); i < entryCount; i++ {
		entry, err := parseEntry(dc)
		if err != nil {
			return nil, fmt.Errorf("parsing dictionary entry %d: %w", i, err)
		}
		archive.entries = append(archive.entries, entry)
	}

	return archive, nil
}

// LoadFile parses an RFF archive from disk.
func LoadFile(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RFF file: %w", err)
	}
	return Load(data)
}

// parseEntry reads one 48-byte dictionary record.
func parseEntry(c *cursor.Cursor) (Entry, error) {
	if err := c.Skip(16); err != nil {
		return Entry{}, err
	}
	offset, err := c.Uint32()
	if err != nil {
		return Entry{}, err
	}
	size, err := c.Uint32()
	if err != nil {
		return Entry{}, err
	}
	if err := c.Skip(8); err != nil {
		return Entry{}, err
	}
	flags, err := c.Uint8()
	if err != nil {
		return Entry{}, err
	}
	typ, err := c.Bytes(3)
	if err != nil {
		return Entry{}, err
	}
	name, err := c.Bytes(8)
	if err != nil {
		return Entry{}, err
	}
	id, err := c.Uint32()
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Name:   trimPadding(name),
		Type:   trimPadding(typ),
		Offset: offset,
		Size:   size,
		Flags:  flags,
		ID:     id,
	}, nil
}

// Len returns the number of dictionary entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns the dictionary in on-disk order.
func (a *Archive) Entries() []Entry {
	return a.entries
}

// List returns all entry names as "NAME.TYP", in on-disk order.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for i := range a.entries {
		result = append(result, a.entries[i].FileName())
	}
	return result
}

// Find looks up an entry by name and type, case-insensitively. Archives are
// not guaranteed unique-keyed; the first match in on-disk order wins.
// Returns nil if no entry matches.
func (a *Archive) Find(name, typ string) *Entry {
	for i := range a.entries {
		e := &a.entries[i]
		if strings.EqualFold(e.Name, name) && strings.EqualFold(e.Type, typ) {
			return e
		}
	}
	return nil
}

// RawData returns the entry's byte range as a view into the archive buffer,
// without any decryption. Returns nil when the range falls outside the
// buffer: archives may list stale or placeholder entries, and those are
// unavailable rather than fatal.
func (a *Archive) RawData(e *Entry) []byte {
	end := uint64(e.Offset) + uint64(e.Size)
	if end > uint64(len(a.data)) {
		return nil
	}
	return a.data[e.Offset:end]
}

// Data returns an owned copy of the entry payload, decrypted if the entry
// carries the encryption flag.
func (a *Archive) Data(e *Entry) ([]byte, error) {
	raw := a.RawData(e)
	if raw == nil {
		return nil, fmt.Errorf("%w: entry %s [%d..%d) in %d-byte archive",
			ErrInvalidOffset, e.FileName(), e.Offset, uint64(e.Offset)+uint64(e.Size), len(a.data))
	}

	data := make([]byte, len(raw))
	copy(data, raw)

	if e.Encrypted() {
		n := len(data)
		if n > payloadCryptLimit {
			n = payloadCryptLimit
		}
		crypt.Dictionary.Apply(data[:n], 0)
	}

	return data, nil
}

// trimPadding cuts a null-padded fixed-width field at its first NUL byte.
func trimPadding(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
