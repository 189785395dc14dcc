package world

import "github.com/willf/bitset"

const chunkVolume = ChunkSize * ChunkSize * ChunkSize

// Chunk stores a dense 16x16x16 block grid together with an opacity mask
// and the generation marker set by the terrain generator.
//
// Blocks are written only while the owning World serializes generation;
// afterwards the chunk is read-only.
type Chunk struct {
	Coord ChunkCoord

	blocks    [chunkVolume]Block
	opaque    *bitset.BitSet
	generated bool
}

// NewChunk returns an all-air, ungenerated chunk.
func NewChunk(coord ChunkCoord) *Chunk {
	return &Chunk{
		Coord:  coord,
		opaque: bitset.New(chunkVolume),
	}
}

func inChunk(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < ChunkSize && y < ChunkSize && z < ChunkSize
}

func blockIndex(x, y, z int) int {
	return (x*ChunkSize+y)*ChunkSize + z
}

// Origin returns the world-space position of local (0,0,0).
func (c *Chunk) Origin() BlockCoord {
	return c.Coord.Origin()
}

// Block returns the block at local coordinates, or Air when any coordinate
// falls outside [0,15].
func (c *Chunk) Block(x, y, z int) Block {
	if !inChunk(x, y, z) {
		return Air
	}
	return c.blocks[blockIndex(x, y, z)]
}

// SetBlock overwrites the cell at local coordinates. Out-of-range writes are
// ignored.
func (c *Chunk) SetBlock(x, y, z int, block Block) {
	if !inChunk(x, y, z) {
		return
	}
	idx := blockIndex(x, y, z)
	c.blocks[idx] = block
	if block.Opaque() {
		c.opaque.Set(uint(idx))
	} else {
		c.opaque.Clear(uint(idx))
	}
}

func (c *Chunk) isOpaque(x, y, z int) bool {
	if !inChunk(x, y, z) {
		return false
	}
	return c.opaque.Test(uint(blockIndex(x, y, z)))
}

// IsBlockHidden reports whether the block is strictly interior to the chunk
// and enclosed by opaque blocks on all six sides. Blocks on the chunk
// boundary are never hidden; neighbouring chunks are not consulted.
func (c *Chunk) IsBlockHidden(x, y, z int) bool {
	if x <= 0 || y <= 0 || z <= 0 {
		return false
	}
	if x >= ChunkSize-1 || y >= ChunkSize-1 || z >= ChunkSize-1 {
		return false
	}
	return c.isOpaque(x-1, y, z) &&
		c.isOpaque(x+1, y, z) &&
		c.isOpaque(x, y-1, z) &&
		c.isOpaque(x, y+1, z) &&
		c.isOpaque(x, y, z-1) &&
		c.isOpaque(x, y, z+1)
}

// Generated reports whether terrain population has completed.
func (c *Chunk) Generated() bool {
	return c.generated
}

// MarkGenerated sets the generation marker. The marker is never cleared.
func (c *Chunk) MarkGenerated() {
	c.generated = true
}

// ForEachBlock iterates over non-air blocks in local coordinates until fn
// returns false.
func (c *Chunk) ForEachBlock(fn func(x, y, z int, block Block) bool) {
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				block := c.blocks[blockIndex(x, y, z)]
				if block.IsAir() {
					continue
				}
				if !fn(x, y, z, block) {
					return
				}
			}
		}
	}
}

// OpaqueCount returns the number of opaque cells.
func (c *Chunk) OpaqueCount() int {
	return int(c.opaque.Count())
}

// Empty reports whether every cell is air.
func (c *Chunk) Empty() bool {
	empty := true
	c.ForEachBlock(func(_, _, _ int, _ Block) bool {
		empty = false
		return false
	})
	return empty
}
