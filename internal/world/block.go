package world

import "fmt"

// Block enumerates the known voxel materials. The zero value is Air, which
// also stands for "no block" in chunk storage.
type Block uint8

const (
	Air Block = iota
	Stone
	Dirt
	Grass
)

// Color is a packed 0xRRGGBB value.
type Color uint32

// RGB splits the packed value into its channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex formats the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// BlockAppearance captures visual styling for a block material.
type BlockAppearance struct {
	Material string
	Color    Color
	Opaque   bool
}

var appearances = [...]BlockAppearance{
	Air:   {Material: "air"},
	Stone: {Material: "stone", Color: 0x888888, Opaque: true},
	Dirt:  {Material: "dirt", Color: 0x663300, Opaque: true},
	Grass: {Material: "grass", Color: 0x116600, Opaque: true},
}

// Appearance returns the built-in visuals for the block. Unknown values
// resolve to Air.
func (b Block) Appearance() BlockAppearance {
	if int(b) >= len(appearances) {
		return appearances[Air]
	}
	return appearances[b]
}

func (b Block) Color() Color {
	return b.Appearance().Color
}

// Opaque reports whether the block fully occludes its cell.
func (b Block) Opaque() bool {
	return b.Appearance().Opaque
}

func (b Block) IsAir() bool {
	return b == Air || int(b) >= len(appearances)
}

func (b Block) String() string {
	return b.Appearance().Material
}

// Blocks lists every non-air variant.
func Blocks() []Block {
	return []Block{Stone, Dirt, Grass}
}
