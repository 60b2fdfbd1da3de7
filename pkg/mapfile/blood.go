package mapfile

import (
	"encoding/binary"
	"fmt"

	"github.com/grimfang/bloodline/pkg/crypt"
	"github.com/grimfang/bloodline/pkg/cursor"
)

const (
	// bloodMagic is "BLM\x1a" as a little-endian uint32.
	bloodMagic uint32 = 0x1A4D4C42

	// bloodVersion is the canonical version of the supported family. Any
	// version with high byte 7 is accepted, but only the canonical value
	// carries the extended secondary header.
	bloodVersion = 0x0700

	// headerKey seeds the header cipher and is ORed into the wall and
	// sprite record keys. It is "Matt" read back as a little-endian word.
	headerKey uint32 = 0x7474614D

	// mattMarker is the plaintext marker value stored in the header's
	// song id slot by unencrypted maps.
	mattMarker uint32 = 0x4D617474

	bloodHeaderSize = 37
	extHeaderSize   = 128
)

// headerLooksEncrypted guesses whether the 37-byte header block is stored
// encrypted. The format provides no explicit flag; the original engine
// inspects the raw dword at header offset 16 and assumes plaintext only
// when it is zero or one of the two known marker words. The heuristic can
// misfire on a crafted plaintext header whose bytes at offset 16 happen to
// match none of these, which is why it lives behind this one predicate.
func headerLooksEncrypted(hdr []byte) bool {
	v := binary.LittleEndian.Uint32(hdr[16:])
	return v != 0 && v != mattMarker && v != headerKey
}

// decodeBlood reads the revision-keyed format: conditionally encrypted
// header, optional encrypted secondary header, optional sky-offset run,
// then per-record encrypted sectors, walls and sprites, each optionally
// trailed by an uninterpreted extended block that is skipped by length.
func decodeBlood(data []byte, w *World) error {
	c := cursor.New(data)

	sig, err := c.Uint32()
	if err != nil {
		return fmt.Errorf("reading signature: %w", err)
	}
	if sig != bloodMagic {
		return fmt.Errorf("%w: 0x%08x", ErrBadSignature, sig)
	}

	version, err := c.Uint16()
	if err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if version&0xFF00 != bloodVersion&0xFF00 {
		return fmt.Errorf("%w: 0x%04x", ErrUnsupportedVersion, version)
	}

	raw, err := c.Bytes(bloodHeaderSize)
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	var hdr [bloodHeaderSize]byte
	copy(hdr[:], raw)

	encrypted := headerLooksEncrypted(hdr[:])
	if encrypted {
		crypt.Record.Apply(hdr[:], headerKey)
	}
	w.Encrypted = encrypted

	hc := cursor.New(hdr[:])
	w.StartX, _ = hc.Int32()
	w.StartY, _ = hc.Int32()
	w.StartZ, _ = hc.Int32()
	w.StartAngle, _ = hc.Int16()
	w.StartSector, _ = hc.Int16()
	w.SkyBits, _ = hc.Int16()
	w.Visibility, _ = hc.Int32()
	w.SongID, _ = hc.Uint32()
	w.ParallaxType, _ = hc.Uint8()
	w.Revision, _ = hc.Int32()
	sectorCount, _ := hc.Int16()
	wallCount, _ := hc.Int16()
	spriteCount, _ := hc.Int16()

	if sectorCount < 0 || int(sectorCount) > MaxSectors {
		return fmt.Errorf("%w: %d sectors (max %d)", ErrCountOutOfRange, sectorCount, MaxSectors)
	}
	if wallCount < 0 || int(wallCount) > MaxWalls {
		return fmt.Errorf("%w: %d walls (max %d)", ErrCountOutOfRange, wallCount, MaxWalls)
	}
	if spriteCount < 0 || int(spriteCount) > MaxSprites {
		return fmt.Errorf("%w: %d sprites (max %d)", ErrCountOutOfRange, spriteCount, MaxSprites)
	}

	// Record keys are derived from the map revision; the revision is pure
	// key material, not a semantic version.
	rev := uint32(w.Revision)
	sectorKey := rev * sectorSize
	wallKey := (rev * sectorSize) | headerKey
	spriteKey := (rev * spriteSize) | headerKey

	// Only the canonical version carries the secondary header with the
	// extended-structure sizes. Its cipher is keyed by the wall count.
	var xSpriteSize, xWallSize, xSectorSize uint32
	if version == bloodVersion {
		rawExt, err := c.Bytes(extHeaderSize)
		if err != nil {
			return fmt.Errorf("reading extended header: %w", err)
		}
		var ext [extHeaderSize]byte
		copy(ext[:], rawExt)
		crypt.Record.Apply(ext[:], uint32(wallCount))

		xSpriteSize = binary.LittleEndian.Uint32(ext[64:])
		xWallSize = binary.LittleEndian.Uint32(ext[68:])
		xSectorSize = binary.LittleEndian.Uint32(ext[72:])
	}

	if w.SkyBits >= 1 && w.SkyBits <= 8 {
		n := 1 << w.SkyBits
		w.SkyOffsets = make([]int16, n)
		for i := 0; i < n; i++ {
			if w.SkyOffsets[i], err = c.Int16(); err != nil {
				return fmt.Errorf("reading sky offset %d: %w", i, err)
			}
		}
	}

	// Record bodies are always run through the cipher in this family.
	// The heuristic above only governs the header block; by the time a
	// file reaches this point its records have never been observed in
	// plaintext.
	var buf [spriteSize]byte

	for i := 0; i < int(sectorCount); i++ {
		rec, err := c.Bytes(sectorSize)
		if err != nil {
			return fmt.Errorf("reading sector %d: %w", i, err)
		}
		copy(buf[:sectorSize], rec)
		crypt.Record.Apply(buf[:sectorSize], sectorKey)

		sec, err := parseSector(cursor.New(buf[:sectorSize]))
		if err != nil {
			return fmt.Errorf("parsing sector %d: %w", i, err)
		}
		w.Sectors = append(w.Sectors, sec)

		if sec.Extra != 0 && xSectorSize != 0 {
			if err := c.Skip(int(xSectorSize)); err != nil {
				return fmt.Errorf("skipping extended sector %d: %w", i, err)
			}
		}
	}

	for i := 0; i < int(wallCount); i++ {
		rec, err := c.Bytes(wallSize)
		if err != nil {
			return fmt.Errorf("reading wall %d: %w", i, err)
		}
		copy(buf[:wallSize], rec)
		crypt.Record.Apply(buf[:wallSize], wallKey)

		wall, err := parseWall(cursor.New(buf[:wallSize]))
		if err != nil {
			return fmt.Errorf("parsing wall %d: %w", i, err)
		}
		w.Walls = append(w.Walls, wall)

		if wall.Extra != 0 && xWallSize != 0 {
			if err := c.Skip(int(xWallSize)); err != nil {
				return fmt.Errorf("skipping extended wall %d: %w", i, err)
			}
		}
	}

	for i := 0; i < int(spriteCount); i++ {
		rec, err := c.Bytes(spriteSize)
		if err != nil {
			return fmt.Errorf("reading sprite %d: %w", i, err)
		}
		copy(buf[:spriteSize], rec)
		crypt.Record.Apply(buf[:spriteSize], spriteKey)

		spr, err := parseSprite(cursor.New(buf[:spriteSize]))
		if err != nil {
			return fmt.Errorf("parsing sprite %d: %w", i, err)
		}
		w.Sprites = append(w.Sprites, spr)

		if spr.Extra != 0 && xSpriteSize != 0 {
			if err := c.Skip(int(xSpriteSize)); err != nil {
				return fmt.Errorf("skipping extended sprite %d: %w", i, err)
			}
		}
	}

	return nil
}
