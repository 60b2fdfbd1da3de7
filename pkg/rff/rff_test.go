package rff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/grimfang/bloodline/pkg/crypt"
)

// testEntry describes one archive entry for the fixture builder.
type testEntry struct {
	name    string
	typ     string
	flags   uint8
	id      uint32
	payload []byte
}

// createTestArchive builds a minimal RFF archive: 32-byte header, dictionary
// immediately after the header, payloads after the dictionary. When
// encryptDict is true the dictionary is stored encrypted and the version is
// forced into the encrypted family.
func createTestArchive(version uint16, entries []testEntry, encryptDict bool) []byte {
	if encryptDict {
		version = 0x0300 | (version & 0xFF)
	}

	dictOffset := uint32(32)
	dictSize := uint32(len(entries)) * 48
	payloadOffset := dictOffset + dictSize

	// Dictionary
	dict := new(bytes.Buffer)
	off := payloadOffset
	for _, e := range entries {
		dict.Write(make([]byte, 16))
		binary.Write(dict, binary.LittleEndian, off)
		binary.Write(dict, binary.LittleEndian, uint32(len(e.payload)))
		dict.Write(make([]byte, 8))
		dict.WriteByte(e.flags)

		var typ [3]byte
		copy(typ[:], e.typ)
		dict.Write(typ[:])

		var name [8]byte
		copy(name[:], e.name)
		dict.Write(name[:])

		binary.Write(dict, binary.LittleEndian, e.id)
		off += uint32(len(e.payload))
	}

	dictBytes := dict.Bytes()
	if encryptDict {
		key := dictOffset + uint32(version&0xFF)*dictOffset
		crypt.Dictionary.Apply(dictBytes, key&0xFFFF)
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, Magic)
	binary.Write(buf, binary.LittleEndian, version)
	buf.Write(make([]byte, 2))
	binary.Write(buf, binary.LittleEndian, dictOffset)
	binary.Write(buf, binary.LittleEndian, uint32(len(entries)))
	buf.Write(make([]byte, 16))

	buf.Write(dictBytes)
	for _, e := range entries {
		buf.Write(e.payload)
	}

	return buf.Bytes()
}

func TestLoadAndGetData(t *testing.T) {
	// Hand-checked layout: header(32) + one dictionary entry(48) at offset
	// 32, payload at offset 80.
	data := createTestArchive(0x0000, []testEntry{
		{name: "TEST", typ: "MAP", payload: []byte{0xAA, 0xBB, 0xCC, 0xDD}},
	}, false)

	archive, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if archive.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", archive.Len())
	}

	entry := archive.Find("TEST", "MAP")
	if entry == nil {
		t.Fatal("Find returned nil for existing entry")
	}
	if entry.Offset != 80 || entry.Size != 4 {
		t.Errorf("expected offset 80 size 4, got offset %d size %d", entry.Offset, entry.Size)
	}

	payload, err := archive.Data(entry)
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("expected AA BB CC DD, got % x", payload)
	}
}

func TestFindCaseInsensitive(t *testing.T) {
	data := createTestArchive(0x0000, []testEntry{
		{name: "MAP01", typ: "MAP", payload: []byte{1}},
	}, false)

	archive, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	upper := archive.Find("MAP01", "MAP")
	lower := archive.Find("map01", "map")
	if upper == nil || lower == nil {
		t.Fatal("Find should match regardless of case")
	}
	if upper != lower {
		t.Error("case variants should resolve to the same entry")
	}
}

func TestFindFirstMatchWins(t *testing.T) {
	data := createTestArchive(0x0000, []testEntry{
		{name: "DUP", typ: "DAT", id: 1, payload: []byte{1}},
		{name: "DUP", typ: "DAT", id: 2, payload: []byte{2}},
	}, false)

	archive, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entry := archive.Find("DUP", "DAT")
	if entry == nil {
		t.Fatal("Find returned nil")
	}
	if entry.ID != 1 {
		t.Errorf("expected first entry in on-disk order (id 1), got id %d", entry.ID)
	}
}

func TestEncryptedDictionary(t *testing.T) {
	data := createTestArchive(0x0001, []testEntry{
		{name: "TILES", typ: "ART", payload: []byte{0x10, 0x20}},
		{name: "BLOOD", typ: "PAL", payload: []byte{0x30}},
	}, true)

	archive, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed on encrypted dictionary: %v", err)
	}

	entry := archive.Find("blood", "pal")
	if entry == nil {
		t.Fatal("Find failed after dictionary decryption")
	}
	payload, err := archive.Data(entry)
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	if !bytes.Equal(payload, []byte{0x30}) {
		t.Errorf("expected 30, got % x", payload)
	}
}

func TestEncryptedPayload(t *testing.T) {
	// Payload longer than 256 bytes: only the first 256 are transformed
	// on disk, so Data must apply the cipher to exactly that prefix.
	plain := make([]byte, 300)
	for i := range plain {
		plain[i] = byte(i)
	}
	stored := append([]byte(nil), plain...)
	crypt.Dictionary.Apply(stored[:256], 0)

	data := createTestArchive(0x0000, []testEntry{
		{name: "SOUND", typ: "RAW", flags: FlagEncrypted, payload: stored},
	}, false)

	archive, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entry := archive.Find("SOUND", "RAW")
	if entry == nil {
		t.Fatal("Find returned nil")
	}
	if !entry.Encrypted() {
		t.Error("entry should report the encryption flag")
	}

	payload, err := archive.Data(entry)
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	if !bytes.Equal(payload, plain) {
		t.Error("decrypted payload does not match original")
	}
}

func TestBadSignature(t *testing.T) {
	data := createTestArchive(0x0000, nil, false)
	data[0] = 'X'

	if _, err := Load(data); !errors.Is(err, ErrBadSignature) {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}

func TestDictionaryOutOfBounds(t *testing.T) {
	data := createTestArchive(0x0000, []testEntry{
		{name: "A", typ: "DAT", payload: []byte{1}},
	}, false)

	// Claim more entries than the buffer can hold.
	binary.LittleEndian.PutUint32(data[12:], 1000)

	if _, err := Load(data); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("expected ErrInvalidOffset, got %v", err)
	}
}

func TestTruncatedHeader(t *testing.T) {
	data := createTestArchive(0x0000, nil, false)

	if _, err := Load(data[:10]); err == nil {
		t.Error("expected error for truncated header")
	}
}

func TestStaleEntryUnavailable(t *testing.T) {
	data := createTestArchive(0x0000, []testEntry{
		{name: "GONE", typ: "DAT", payload: []byte{1, 2, 3}},
	}, false)

	archive, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entry := archive.Find("GONE", "DAT")
	if entry == nil {
		t.Fatal("Find returned nil")
	}

	// Corrupt the entry range past the end of the buffer. RawData treats
	// this as unavailable, Data as an error.
	entry.Size = 1 << 20
	if archive.RawData(entry) != nil {
		t.Error("RawData should return nil for out-of-range entries")
	}
	if _, err := archive.Data(entry); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("expected ErrInvalidOffset, got %v", err)
	}
}

func TestCallerBufferUntouched(t *testing.T) {
	data := createTestArchive(0x0001, []testEntry{
		{name: "KEEP", typ: "DAT", payload: []byte{9}},
	}, true)
	before := append([]byte(nil), data...)

	if _, err := Load(data); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(data, before) {
		t.Error("Load must not modify the caller's buffer")
	}
}

func TestList(t *testing.T) {
	data := createTestArchive(0x0000, []testEntry{
		{name: "MAP01", typ: "MAP", payload: []byte{1}},
		{name: "MAP02", typ: "MAP", payload: []byte{2}},
	}, false)

	archive, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	names := archive.List()
	if len(names) != 2 || names[0] != "MAP01.MAP" || names[1] != "MAP02.MAP" {
		t.Errorf("unexpected listing: %v", names)
	}
}
