package terrain

import "voxelworld/internal/world"

// FlatGenerator generates a superflat world: grass at the surface level, one
// band of dirt below it and stone underneath.
type FlatGenerator struct {
	height int
	world  *world.World
}

func NewFlatGenerator(w *world.World, height int) *FlatGenerator {
	return &FlatGenerator{height: height, world: w}
}

func (g *FlatGenerator) HeightAt(_, _ int) float64 {
	return float64(g.height)
}

func (g *FlatGenerator) BlockAt(_, worldY, _ int) world.Block {
	switch {
	case worldY > g.height:
		return world.Air
	case worldY == g.height:
		return world.Grass
	case worldY == g.height-1:
		return world.Dirt
	default:
		return world.Stone
	}
}

func (g *FlatGenerator) IsChunkGenerated(coord world.ChunkCoord) bool {
	return g.world.Chunk(coord).Generated()
}

func (g *FlatGenerator) GenerateChunk(coord world.ChunkCoord) {
	chunk := g.world.Chunk(coord)
	if chunk.Generated() {
		return
	}
	origin := coord.Origin()
	for cy := 0; cy < world.ChunkSize; cy++ {
		block := g.BlockAt(0, origin.Y+cy, 0)
		if block == world.Air {
			continue
		}
		for cx := 0; cx < world.ChunkSize; cx++ {
			for cz := 0; cz < world.ChunkSize; cz++ {
				chunk.SetBlock(cx, cy, cz, block)
			}
		}
	}
	chunk.MarkGenerated()
}
