package terrain

import (
	"fmt"
	"strings"
)

// Version is the TER format version (0-5).
type Version uint32

// MaxVersion is the newest supported format version.
const MaxVersion Version = 5

// ClusterSize returns the cluster edge length in cells for this version.
func (v Version) ClusterSize() int {
	if v < 4 {
		return 4
	}
	return 16
}

// HasFloatHeights reports whether heights are stored as float32.
func (v Version) HasFloatHeights() bool { return v >= 4 }

// HasNormals reports whether the format carries a per-cell normal map.
func (v Version) HasNormals() bool { return v < 4 }

// HasCompressionMask reports whether clusters start with a uniform-value mask.
func (v Version) HasCompressionMask() bool { return v >= 5 }

// isLegacy reports whether blocks use the overlapping (cs+1)^2 layout.
func (v Version) isLegacy() bool { return v < 3 }

// String returns the version as "vN".
func (v Version) String() string {
	return fmt.Sprintf("v%d", uint32(v))
}

// Bounds is the terrain extent in grid units.
type Bounds struct {
	MinX, MinZ int16
	MaxX, MaxZ int16
}

// Width returns MaxX - MinX.
func (b Bounds) Width() int { return int(b.MaxX) - int(b.MinX) }

// Height returns MaxZ - MinZ.
func (b Bounds) Height() int { return int(b.MaxZ) - int(b.MinZ) }

// RGB is a per-cell vertex color.
type RGB struct {
	R, G, B uint8
}

// White is the color assigned by Clear.
var White = RGB{255, 255, 255}

// CellType is a set of per-cell terrain flags.
type CellType uint8

// Cell type flags.
const (
	CellSloped   CellType = 1 << iota // Too steep for most units
	CellCliff                         // Impassable cliff
	CellWater                         // Covered by water
	CellBuilding                      // Reserved by a structure
	CellLava                          // Damaging lava
)

// CellNone is the empty flag set.
const CellNone CellType = 0

// Has reports whether every flag in mask is set.
func (c CellType) Has(mask CellType) bool {
	return c&mask == mask
}

// String lists the set flags, e.g. "Cliff|Water".
func (c CellType) String() string {
	if c == CellNone {
		return "None"
	}
	names := []struct {
		flag CellType
		name string
	}{
		{CellSloped, "Sloped"},
		{CellCliff, "Cliff"},
		{CellWater, "Water"},
		{CellBuilding, "Building"},
		{CellLava, "Lava"},
	}
	var parts []string
	rest := c
	for _, n := range names {
		if c&n.flag != 0 {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// InfoWord is the per-cluster info record.
//
//	Bits 0-15:  tile index for layers 0-3 (4 bits each)
//	Bits 16-19: visibility for layers 0-3
//	Bits 20-23: owner team
//	Bits 24-25: build type
type InfoWord uint32

// Layers is the number of texture layers addressed by an InfoWord.
const Layers = 4

// TileIndex returns the 4-bit tile index of a layer.
func (w InfoWord) TileIndex(layer int) uint8 {
	return uint8(w>>(4*uint(layer))) & 0xF
}

// WithTileIndex returns w with the tile index of layer replaced.
func (w InfoWord) WithTileIndex(layer int, index uint8) InfoWord {
	shift := 4 * uint(layer)
	return w&^(0xF<<shift) | InfoWord(index&0xF)<<shift
}

// Visible reports the visibility bit of a layer.
func (w InfoWord) Visible(layer int) bool {
	return w&(1<<(16+uint(layer))) != 0
}

// WithVisible returns w with the visibility bit of layer set or cleared.
func (w InfoWord) WithVisible(layer int, visible bool) InfoWord {
	bit := InfoWord(1) << (16 + uint(layer))
	if visible {
		return w | bit
	}
	return w &^ bit
}

// Owner returns the owning team (0-15).
func (w InfoWord) Owner() uint8 {
	return uint8(w>>20) & 0xF
}

// WithOwner returns w with the owner team replaced.
func (w InfoWord) WithOwner(team uint8) InfoWord {
	return w&^(0xF<<20) | InfoWord(team&0xF)<<20
}

// BuildType returns the 2-bit build type.
func (w InfoWord) BuildType() uint8 {
	return uint8(w>>24) & 0x3
}

// WithBuildType returns w with the build type replaced.
func (w InfoWord) WithBuildType(t uint8) InfoWord {
	return w&^(0x3<<24) | InfoWord(t&0x3)<<24
}
