package mapfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/grimfang/bloodline/pkg/cursor"
)

// MAP format errors.
var (
	ErrBadSignature       = errors.New("invalid MAP signature")
	ErrUnsupportedVersion = errors.New("unsupported MAP version")
	ErrCountOutOfRange    = errors.New("entity count exceeds table capacity")
)

// On-disk record sizes. These also feed record key derivation in the
// revision-keyed format, so they must never drift from the struct layouts.
const (
	sectorSize = 40
	wallSize   = 32
	spriteSize = 44
)

// Decode sniffs the format of data and decodes it into w. The world is
// reset first; on error its contents are unspecified and the caller must
// Reset it before the next attempt.
func Decode(data []byte, w *World) error {
	w.Reset()

	if len(data) < 4 {
		return fmt.Errorf("reading signature: %w", cursor.ErrTruncated)
	}

	// The revision-keyed family always opens with its signature; anything
	// else is handed to the legacy decoder, which validates its own
	// leading version word.
	if binary.LittleEndian.Uint32(data) == bloodMagic {
		return decodeBlood(data, w)
	}
	return decodeLegacy(data, w)
}

// Load decodes data into a freshly allocated world.
func Load(data []byte) (*World, error) {
	w := NewWorld()
	if err := Decode(data, w); err != nil {
		return nil, err
	}
	return w, nil
}

// LoadFile decodes a MAP file from disk.
func LoadFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MAP file: %w", err)
	}
	return Load(data)
}

// decodeLegacy reads the unencrypted legacy format: version 7, 8 or 9,
// start pose, then counted runs of sector, wall and sprite records in that
// order. Each count is validated immediately before its loop so truncated
// or hostile files fail before any oversized read.
func decodeLegacy(data []byte, w *World) error {
	c := cursor.New(data)

	version, err := c.Uint32()
	if err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	if version < 7 || version > 9 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	if w.StartX, err = c.Int32(); err != nil {
		return fmt.Errorf("reading start x: %w", err)
	}
	if w.StartY, err = c.Int32(); err != nil {
		return fmt.Errorf("reading start y: %w", err)
	}
	if w.StartZ, err = c.Int32(); err != nil {
		return fmt.Errorf("reading start z: %w", err)
	}
	if w.StartAngle, err = c.Int16(); err != nil {
		return fmt.Errorf("reading start angle: %w", err)
	}
	if w.StartSector, err = c.Int16(); err != nil {
		return fmt.Errorf("reading start sector: %w", err)
	}

	sectorCount, err := c.Uint16()
	if err != nil {
		return fmt.Errorf("reading sector count: %w", err)
	}
	if int(sectorCount) > MaxSectors {
		return fmt.Errorf("%w: %d sectors (max %d)", ErrCountOutOfRange, sectorCount, MaxSectors)
	}
	for i := 0; i < int(sectorCount); i++ {
		sec, err := parseSector(c)
		if err != nil {
			return fmt.Errorf("parsing sector %d: %w", i, err)
		}
		w.Sectors = append(w.Sectors, sec)
	}

	wallCount, err := c.Uint16()
	if err != nil {
		return fmt.Errorf("reading wall count: %w", err)
	}
	if int(wallCount) > MaxWalls {
		return fmt.Errorf("%w: %d walls (max %d)", ErrCountOutOfRange, wallCount, MaxWalls)
	}
	for i := 0; i < int(wallCount); i++ {
		wall, err := parseWall(c)
		if err != nil {
			return fmt.Errorf("parsing wall %d: %w", i, err)
		}
		w.Walls = append(w.Walls, wall)
	}

	spriteCount, err := c.Uint16()
	if err != nil {
		return fmt.Errorf("reading sprite count: %w", err)
	}
	if int(spriteCount) > MaxSprites {
		return fmt.Errorf("%w: %d sprites (max %d)", ErrCountOutOfRange, spriteCount, MaxSprites)
	}
	for i := 0; i < int(spriteCount); i++ {
		spr, err := parseSprite(c)
		if err != nil {
			return fmt.Errorf("parsing sprite %d: %w", i, err)
		}
		w.Sprites = append(w.Sprites, spr)
	}

	return nil
}

// parseSector reads one 40-byte sector record from the cursor.
func parseSector(c *cursor.Cursor) (Sector, error) {
	var s Sector
	var err error

	if s.WallPtr, err = c.Int16(); err != nil {
		return s, err
	}
	if s.WallNum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.CeilingZ, err = c.Int32(); err != nil {
		return s, err
	}
	if s.FloorZ, err = c.Int32(); err != nil {
		return s, err
	}
	if s.CeilingStat, err = c.Int16(); err != nil {
		return s, err
	}
	if s.FloorStat, err = c.Int16(); err != nil {
		return s, err
	}
	if s.CeilingPicnum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.CeilingHeinum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.CeilingShade, err = c.Int8(); err != nil {
		return s, err
	}
	if s.CeilingPal, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.CeilingXPan, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.CeilingYPan, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.FloorPicnum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.FloorHeinum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.FloorShade, err = c.Int8(); err != nil {
		return s, err
	}
	if s.FloorPal, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.FloorXPan, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.FloorYPan, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.Visibility, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.ParallaxType, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.Lotag, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Hitag, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Extra, err = c.Int16(); err != nil {
		return s, err
	}

	return s, nil
}

// parseWall reads one 32-byte wall record from the cursor.
func parseWall(c *cursor.Cursor) (Wall, error) {
	var w Wall
	var err error

	if w.X, err = c.Int32(); err != nil {
		return w, err
	}
	if w.Y, err = c.Int32(); err != nil {
		return w, err
	}
	if w.Point2, err = c.Int16(); err != nil {
		return w, err
	}
	if w.NextWall, err = c.Int16(); err != nil {
		return w, err
	}
	if w.NextSector, err = c.Int16(); err != nil {
		return w, err
	}
	if w.CStat, err = c.Int16(); err != nil {
		return w, err
	}
	if w.Picnum, err = c.Int16(); err != nil {
		return w, err
	}
	if w.OverPicnum, err = c.Int16(); err != nil {
		return w, err
	}
	if w.Shade, err = c.Int8(); err != nil {
		return w, err
	}
	if w.Pal, err = c.Uint8(); err != nil {
		return w, err
	}
	if w.XRepeat, err = c.Uint8(); err != nil {
		return w, err
	}
	if w.YRepeat, err = c.Uint8(); err != nil {
		return w, err
	}
	if w.XPanning, err = c.Uint8(); err != nil {
		return w, err
	}
	if w.YPanning, err = c.Uint8(); err != nil {
		return w, err
	}
	if w.Lotag, err = c.Int16(); err != nil {
		return w, err
	}
	if w.Hitag, err = c.Int16(); err != nil {
		return w, err
	}
	if w.Extra, err = c.Int16(); err != nil {
		return w, err
	}

	return w, nil
}

// parseSprite reads one 44-byte sprite record from the cursor.
func parseSprite(c *cursor.Cursor) (Sprite, error) {
	var s Sprite
	var err error

	if s.X, err = c.Int32(); err != nil {
		return s, err
	}
	if s.Y, err = c.Int32(); err != nil {
		return s, err
	}
	if s.Z, err = c.Int32(); err != nil {
		return s, err
	}
	if s.CStat, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Picnum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Shade, err = c.Int8(); err != nil {
		return s, err
	}
	if s.Pal, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.ClipDist, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.Filler, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.XRepeat, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.YRepeat, err = c.Uint8(); err != nil {
		return s, err
	}
	if s.XOffset, err = c.Int8(); err != nil {
		return s, err
	}
	if s.YOffset, err = c.Int8(); err != nil {
		return s, err
	}
	if s.Sectnum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Statnum, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Angle, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Owner, err = c.Int16(); err != nil {
		return s, err
	}
	if s.XVel, err = c.Int16(); err != nil {
		return s, err
	}
	if s.YVel, err = c.Int16(); err != nil {
		return s, err
	}
	if s.ZVel, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Lotag, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Hitag, err = c.Int16(); err != nil {
		return s, err
	}
	if s.Extra, err = c.Int16(); err != nil {
		return s, err
	}

	return s, nil
}
