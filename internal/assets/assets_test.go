package assets

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/grimfang/bloodline/pkg/rff"
)

// buildArchive assembles a minimal unencrypted RFF archive in memory.
func buildArchive(t *testing.T, entries map[string][]byte) *rff.Archive {
	t.Helper()

	type namedEntry struct {
		name, typ string
		payload   []byte
	}
	var list []namedEntry
	for key, payload := range entries {
		dot := bytes.IndexByte([]byte(key), '.')
		list = append(list, namedEntry{name: key[:dot], typ: key[dot+1:], payload: payload})
	}

	dictOffset := uint32(32)
	payloadOffset := dictOffset + uint32(len(list))*48

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, rff.Magic)
	buf.Write(make([]byte, 4)) // version 0, reserved
	binary.Write(buf, binary.LittleEndian, dictOffset)
	binary.Write(buf, binary.LittleEndian, uint32(len(list)))
	buf.Write(make([]byte, 16))

	off := payloadOffset
	for _, e := range list {
		buf.Write(make([]byte, 16))
		binary.Write(buf, binary.LittleEndian, off)
		binary.Write(buf, binary.LittleEndian, uint32(len(e.payload)))
		buf.Write(make([]byte, 8))
		buf.WriteByte(0)

		var typ [3]byte
		copy(typ[:], e.typ)
		buf.Write(typ[:])

		var name [8]byte
		copy(name[:], e.name)
		buf.Write(name[:])

		buf.Write(make([]byte, 4)) // id
		off += uint32(len(e.payload))
	}
	for _, e := range list {
		buf.Write(e.payload)
	}

	archive, err := rff.Load(buf.Bytes())
	if err != nil {
		t.Fatalf("building test archive: %v", err)
	}
	return archive
}

// legacyMapBytes returns an empty legacy-format level.
func legacyMapBytes(x, y, z int32) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(7))
	binary.Write(buf, binary.LittleEndian, x)
	binary.Write(buf, binary.LittleEndian, y)
	binary.Write(buf, binary.LittleEndian, z)
	buf.Write(make([]byte, 4)) // angle, start sector
	buf.Write(make([]byte, 6)) // zero sector/wall/sprite counts
	return buf.Bytes()
}

func TestLoadAndCache(t *testing.T) {
	m := NewManager(8)
	defer m.Close()

	m.Mount("test.rff", buildArchive(t, map[string][]byte{
		"TILES.ART": {1, 2, 3},
	}))

	data, err := m.Load("tiles", "art")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("unexpected payload: % x", data)
	}

	// Second load is served from cache and must return the same bytes.
	again, err := m.Load("TILES", "ART")
	if err != nil {
		t.Fatalf("cached Load failed: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Error("cache returned different bytes")
	}
}

func TestReversePriority(t *testing.T) {
	m := NewManager(8)
	defer m.Close()

	m.Mount("base.rff", buildArchive(t, map[string][]byte{
		"THEME.DAT": {0xB0},
	}))
	m.Mount("patch.rff", buildArchive(t, map[string][]byte{
		"THEME.DAT": {0xA1},
	}))

	data, err := m.Load("THEME", "DAT")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(data) != 1 || data[0] != 0xA1 {
		t.Error("later-mounted archive should shadow earlier ones")
	}
}

func TestNotFound(t *testing.T) {
	m := NewManager(8)
	defer m.Close()

	m.Mount("test.rff", buildArchive(t, map[string][]byte{
		"TILES.ART": {1},
	}))

	if _, err := m.Load("MISSING", "DAT"); err == nil {
		t.Error("expected error for missing resource")
	}
}

func TestLoadWorld(t *testing.T) {
	m := NewManager(8)
	defer m.Close()

	m.Mount("maps.rff", buildArchive(t, map[string][]byte{
		"E1M1.MAP": legacyMapBytes(100, 200, -50),
	}))

	world, err := m.LoadWorld("E1M1")
	if err != nil {
		t.Fatalf("LoadWorld failed: %v", err)
	}
	if world.StartX != 100 || world.StartY != 200 || world.StartZ != -50 {
		t.Errorf("unexpected start pose: %s", world.Summary())
	}
}

func TestLoadWorldBadPayload(t *testing.T) {
	m := NewManager(8)
	defer m.Close()

	m.Mount("maps.rff", buildArchive(t, map[string][]byte{
		"E1M1.MAP": {0x00, 0x01},
	}))

	if _, err := m.LoadWorld("E1M1"); err == nil {
		t.Error("expected error for undecodable map payload")
	}
}
