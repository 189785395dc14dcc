package terrain

import (
	"fmt"

	"voxelworld/internal/config"
	"voxelworld/internal/world"
)

// ColumnGenerator creates repeatable terrain by sampling a fractal noise
// height for every block column and layering grass, dirt and stone beneath
// it.
type ColumnGenerator struct {
	cfg   config.TerrainConfig
	world *world.World
}

// NewColumnGenerator returns a generator bound to w. Zero-valued tuning
// fields fall back to the defaults.
func NewColumnGenerator(w *world.World, cfg config.TerrainConfig) *ColumnGenerator {
	defaults := config.Default().Terrain
	if cfg.HorizontalScale <= 0 {
		cfg.HorizontalScale = defaults.HorizontalScale
	}
	if cfg.FractalSize < 1 {
		cfg.FractalSize = defaults.FractalSize
	}
	return &ColumnGenerator{cfg: cfg, world: w}
}

// HeightAt returns the surface height of the column at world (x, z). The
// result is fractional; cells at or below it are solid.
func (g *ColumnGenerator) HeightAt(worldX, worldZ int) float64 {
	scale := g.cfg.HorizontalScale
	sample := g.world.Noise().SampleFractal(float64(worldX)/scale, float64(worldZ)/scale, 0, g.cfg.FractalSize)
	return sample * g.cfg.Amplitude
}

// BlockAt returns the block the generator places at world coordinates.
func (g *ColumnGenerator) BlockAt(worldX, worldY, worldZ int) world.Block {
	return layer(float64(worldY), g.HeightAt(worldX, worldZ))
}

// layer classifies one cell the way GenerateChunk's successive overwrites
// leave it: grass at or below the surface, dirt one below, stone five below.
func layer(wy, height float64) world.Block {
	block := world.Air
	if wy <= height {
		block = world.Grass
	}
	if wy <= height-1 {
		block = world.Dirt
	}
	if wy <= height-5 {
		block = world.Stone
	}
	return block
}

func (g *ColumnGenerator) IsChunkGenerated(coord world.ChunkCoord) bool {
	return g.world.Chunk(coord).Generated()
}

// GenerateChunk fills the chunk at coord and marks it generated. Generated
// chunks are left untouched.
func (g *ColumnGenerator) GenerateChunk(coord world.ChunkCoord) {
	chunk := g.world.Chunk(coord)
	if chunk.Generated() {
		return
	}
	origin := coord.Origin()
	for cx := 0; cx < world.ChunkSize; cx++ {
		for cz := 0; cz < world.ChunkSize; cz++ {
			height := g.HeightAt(origin.X+cx, origin.Z+cz)
			for cy := 0; cy < world.ChunkSize; cy++ {
				wy := float64(origin.Y + cy)
				if wy <= height {
					chunk.SetBlock(cx, cy, cz, world.Grass)
				}
				if wy <= height-1 {
					chunk.SetBlock(cx, cy, cz, world.Dirt)
				}
				if wy <= height-5 {
					chunk.SetBlock(cx, cy, cz, world.Stone)
				}
			}
		}
	}
	chunk.MarkGenerated()
}

// NewFactory returns the world.GeneratorFactory for the named generator.
func NewFactory(name string, cfg config.TerrainConfig) (world.GeneratorFactory, error) {
	switch name {
	case config.GeneratorNoise, "":
		return func(w *world.World) world.Generator {
			return NewColumnGenerator(w, cfg)
		}, nil
	case config.GeneratorFlat:
		return func(w *world.World) world.Generator {
			return NewFlatGenerator(w, cfg.FlatHeight)
		}, nil
	default:
		return nil, fmt.Errorf("unknown terrain generator %q", name)
	}
}

// Heights reports column heights; implemented by both generators.
type Heights interface {
	HeightAt(worldX, worldZ int) float64
	BlockAt(worldX, worldY, worldZ int) world.Block
}
