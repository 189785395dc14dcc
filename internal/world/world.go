package world

import (
	"sync"

	"voxelworld/internal/noise"
)

// Generator populates chunks owned by a World. Implementations must be
// idempotent: once a chunk is marked generated, GenerateChunk leaves it
// untouched.
type Generator interface {
	GenerateChunk(coord ChunkCoord)
	IsChunkGenerated(coord ChunkCoord) bool
}

// GeneratorFactory builds the generator for a world. The world is fully
// initialised (seed, noise field, chunk map) when the factory runs.
type GeneratorFactory func(w *World) Generator

// World is the sparse chunk registry. Chunks are created on first request
// and never evicted.
type World struct {
	seed      int64
	noise     *noise.Field
	generator Generator

	mu     sync.RWMutex
	chunks map[ChunkCoord]*Chunk

	genMu sync.Mutex
}

// New creates a world for the seed and installs the generator built by
// factory.
func New(seed int64, factory GeneratorFactory) *World {
	if factory == nil {
		panic("world: nil generator factory")
	}
	w := &World{
		seed:   seed,
		noise:  noise.New(seed),
		chunks: make(map[ChunkCoord]*Chunk),
	}
	w.generator = factory(w)
	if w.generator == nil {
		panic("world: generator factory returned nil")
	}
	return w
}

func (w *World) Seed() int64 {
	return w.seed
}

// Noise returns the noise field keyed to the world seed.
func (w *World) Noise() *noise.Field {
	return w.noise
}

func (w *World) Generator() Generator {
	return w.generator
}

// Chunk returns the chunk at coord, creating an empty one if needed. It is
// the only place chunks are created.
func (w *World) Chunk(coord ChunkCoord) *Chunk {
	w.mu.RLock()
	ch, ok := w.chunks[coord]
	w.mu.RUnlock()
	if ok {
		return ch
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.chunks[coord]; ok {
		return existing
	}
	ch = NewChunk(coord)
	w.chunks[coord] = ch
	return ch
}

// GetChunk is Chunk addressed by components.
func (w *World) GetChunk(x, y, z int) *Chunk {
	return w.Chunk(ChunkCoord{X: x, Y: y, Z: z})
}

// GenerateChunk populates the chunk at the coordinates unless the generator
// reports it as already generated, then returns the cached chunk.
func (w *World) GenerateChunk(x, y, z int) *Chunk {
	coord := ChunkCoord{X: x, Y: y, Z: z}
	w.genMu.Lock()
	if !w.generator.IsChunkGenerated(coord) {
		w.generator.GenerateChunk(coord)
	}
	w.genMu.Unlock()
	return w.Chunk(coord)
}

// GenerateAt is GenerateChunk addressed by coordinate.
func (w *World) GenerateAt(coord ChunkCoord) *Chunk {
	return w.GenerateChunk(coord.X, coord.Y, coord.Z)
}

// Block returns the block at world coordinates. Negative coordinates use
// floor semantics: world -1 lies in chunk -1 at local 15.
func (w *World) Block(worldX, worldY, worldZ int) Block {
	coord, lx, ly, lz := BlockCoord{X: worldX, Y: worldY, Z: worldZ}.Chunk()
	return w.Chunk(coord).Block(lx, ly, lz)
}

// ChunkOf returns the (possibly new, ungenerated) chunk containing the block.
func (w *World) ChunkOf(b BlockCoord) *Chunk {
	coord, _, _, _ := b.Chunk()
	return w.Chunk(coord)
}

// Len returns the number of cached chunks. The cache only grows.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}
