// Package mapfile provides decoders for the two MAP world-geometry formats:
// the plain legacy format (versions 6-9) and the revision-keyed format,
// which encrypts its header and records with incrementing-key XOR ciphers
// derived from the map revision.
package mapfile

import "fmt"

// Table capacities. Decoded entity counts are validated against these
// before any record is read.
const (
	MaxSectors = 1024
	MaxWalls   = 8192
	MaxSprites = 4096
)

// Sector is one 40-byte sector record: a convex floor/ceiling region
// referencing a contiguous run of walls.
type Sector struct {
	WallPtr       int16
	WallNum       int16
	CeilingZ      int32
	FloorZ        int32
	CeilingStat   int16
	FloorStat     int16
	CeilingPicnum int16
	CeilingHeinum int16
	CeilingShade  int8
	CeilingPal    uint8
	CeilingXPan   uint8
	CeilingYPan   uint8
	FloorPicnum   int16
	FloorHeinum   int16
	FloorShade    int8
	FloorPal      uint8
	FloorXPan     uint8
	FloorYPan     uint8
	Visibility    uint8
	ParallaxType  uint8
	Lotag         int16
	Hitag         int16
	Extra         int16
}

// Wall is one 32-byte wall record: a vertex plus links to the next wall,
// the wall on the other side, and the neighboring sector.
type Wall struct {
	X          int32
	Y          int32
	Point2     int16
	NextWall   int16
	NextSector int16
	CStat      int16
	Picnum     int16
	OverPicnum int16
	Shade      int8
	Pal        uint8
	XRepeat    uint8
	YRepeat    uint8
	XPanning   uint8
	YPanning   uint8
	Lotag      int16
	Hitag      int16
	Extra      int16
}

// Sprite is one 44-byte sprite record: a free entity placed within a sector.
type Sprite struct {
	X        int32
	Y        int32
	Z        int32
	CStat    int16
	Picnum   int16
	Shade    int8
	Pal      uint8
	ClipDist uint8
	Filler   uint8
	XRepeat  uint8
	YRepeat  uint8
	XOffset  int8
	YOffset  int8
	Sectnum  int16
	Statnum  int16
	Angle    int16
	Owner    int16
	XVel     int16
	YVel     int16
	ZVel     int16
	Lotag    int16
	Hitag    int16
	Extra    int16
}

// World is the decoded level: geometry tables plus start pose and metadata.
// It replaces the engine's historical fixed global tables with an explicitly
// owned arena; decoders receive a *World and never touch package state.
//
// After a failed decode the tables are in an unspecified state and the
// world must be Reset before another load attempt.
type World struct {
	// Start pose in signed 32-bit world units; angle is 0-2047 for a
	// full turn.
	StartX      int32
	StartY      int32
	StartZ      int32
	StartAngle  int16
	StartSector int16

	// Revision-keyed header metadata. Revision is key material, not a
	// semantic version. Encrypted records whether the header encryption
	// heuristic fired.
	SkyBits      int16
	Visibility   int32
	SongID       uint32
	ParallaxType uint8
	Revision     int32
	Encrypted    bool

	SkyOffsets []int16

	Sectors []Sector
	Walls   []Wall
	Sprites []Sprite
}

// NewWorld returns an empty world with tables preallocated to capacity.
func NewWorld() *World {
	return &World{
		Sectors: make([]Sector, 0, MaxSectors),
		Walls:   make([]Wall, 0, MaxWalls),
		Sprites: make([]Sprite, 0, MaxSprites),
	}
}

// Reset clears all tables and metadata, reusing the allocated capacity.
func (w *World) Reset() {
	*w = World{
		Sectors: w.Sectors[:0],
		Walls:   w.Walls[:0],
		Sprites: w.Sprites[:0],
	}
}

// NumSectors returns the decoded sector count.
func (w *World) NumSectors() int { return len(w.Sectors) }

// NumWalls returns the decoded wall count.
func (w *World) NumWalls() int { return len(w.Walls) }

// NumSprites returns the decoded sprite count.
func (w *World) NumSprites() int { return len(w.Sprites) }

// SectorWalls returns the contiguous wall run belonging to sector i, or nil
// if the sector index or its wall range is out of bounds.
func (w *World) SectorWalls(i int) []Wall {
	if i < 0 || i >= len(w.Sectors) {
		return nil
	}
	s := &w.Sectors[i]
	first, n := int(s.WallPtr), int(s.WallNum)
	if first < 0 || n < 0 || first+n > len(w.Walls) {
		return nil
	}
	return w.Walls[first : first+n]
}

// SectorSprites returns the sprites placed in sector i.
func (w *World) SectorSprites(i int) []*Sprite {
	var result []*Sprite
	for j := range w.Sprites {
		if int(w.Sprites[j].Sectnum) == i {
			result = append(result, &w.Sprites[j])
		}
	}
	return result
}

// Summary returns a one-line description of the decoded level.
func (w *World) Summary() string {
	return fmt.Sprintf("rev %d: %d sectors, %d walls, %d sprites, start (%d,%d,%d) ang %d sect %d",
		w.Revision, len(w.Sectors), len(w.Walls), len(w.Sprites),
		w.StartX, w.StartY, w.StartZ, w.StartAngle, w.StartSector)
}
