package world

import "math"

// ChunkSize is the edge length of a chunk in blocks.
const ChunkSize = 16

// ChunkCoord identifies a chunk in chunk space; one unit spans ChunkSize
// world units.
type ChunkCoord struct {
	X int
	Y int
	Z int
}

// Add offsets the coordinate by the given chunk delta.
func (c ChunkCoord) Add(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Origin returns the world-space block at local (0,0,0).
func (c ChunkCoord) Origin() BlockCoord {
	return BlockCoord{X: c.X * ChunkSize, Y: c.Y * ChunkSize, Z: c.Z * ChunkSize}
}

// Less orders coordinates by X, then Y, then Z.
func (c ChunkCoord) Less(o ChunkCoord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

// BlockCoord describes a block position in world space.
type BlockCoord struct {
	X int
	Y int
	Z int
}

// Chunk returns the chunk containing the block together with the block's
// chunk-local coordinates.
func (b BlockCoord) Chunk() (ChunkCoord, int, int, int) {
	coord := ChunkCoord{
		X: FloorDiv(b.X, ChunkSize),
		Y: FloorDiv(b.Y, ChunkSize),
		Z: FloorDiv(b.Z, ChunkSize),
	}
	origin := coord.Origin()
	return coord, b.X - origin.X, b.Y - origin.Y, b.Z - origin.Z
}

// ChunkCoordAt returns the chunk containing the continuous world position.
func ChunkCoordAt(x, y, z float64) ChunkCoord {
	return ChunkCoord{
		X: FloorDiv(int(math.Floor(x)), ChunkSize),
		Y: FloorDiv(int(math.Floor(y)), ChunkSize),
		Z: FloorDiv(int(math.Floor(z)), ChunkSize),
	}
}

// FloorDiv divides rounding toward negative infinity, so -1 / 16 is -1.
func FloorDiv(value, size int) int {
	if size <= 0 {
		return 0
	}
	if value >= 0 {
		return value / size
	}
	return -((-value - 1) / size) - 1
}

// MaxColumnSpan bounds top-bottom for a column query.
const MaxColumnSpan = 256

// ColumnSpan returns how many blocks lie in [bottom, top]. ok is false when
// top is below bottom or top-bottom reaches MaxColumnSpan. The difference is
// taken in uint64 so extreme bounds cannot wrap.
func ColumnSpan(top, bottom int) (n int, ok bool) {
	if top < bottom {
		return 0, false
	}
	diff := uint64(top) - uint64(bottom)
	if diff >= MaxColumnSpan {
		return 0, false
	}
	return int(diff) + 1, true
}
