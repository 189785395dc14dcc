// Package mesh turns generated chunks into renderable geometry: axis-aligned
// cubes or face triangles batched by block color.
//
// Visibility is decided per chunk. A face on the chunk boundary is always
// emitted because neighbouring chunks are not consulted.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"voxelworld/internal/world"
)

// Cube is an axis-aligned box in world space.
type Cube struct {
	Min   mgl32.Vec3
	Size  mgl32.Vec3
	Color world.Color
}

// Triangle holds three world-space vertices wound counter-clockwise when
// viewed from outside the block.
type Triangle [3]mgl32.Vec3

// Batch is the renderable handle for all faces of one color in one chunk.
type Batch struct {
	ID        uuid.UUID
	Chunk     world.ChunkCoord
	Color     world.Color
	Triangles []Triangle
}

// FaceCount returns the number of quads in the batch.
func (b *Batch) FaceCount() int {
	return len(b.Triangles) / 2
}

// Normal returns the outward unit normal of face i.
func (b *Batch) Normal(face int) mgl32.Vec3 {
	t := b.Triangles[face*2]
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Normalize()
}

// Vertices flattens the triangles into an xyz float buffer.
func (b *Batch) Vertices() []float32 {
	out := make([]float32, 0, len(b.Triangles)*9)
	for _, t := range b.Triangles {
		for _, v := range t {
			out = append(out, v[0], v[1], v[2])
		}
	}
	return out
}

// CountFaces sums FaceCount over batches.
func CountFaces(batches []*Batch) int {
	total := 0
	for _, b := range batches {
		total += b.FaceCount()
	}
	return total
}

type face struct {
	dx, dy, dz int
	corners    [4]mgl32.Vec3
}

// faces lists the six directions in emission order with unit-cube corners.
// Each quad splits into triangles (0,1,2) and (0,2,3).
var faces = [6]face{
	{dx: -1, corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}},
	{dx: 1, corners: [4]mgl32.Vec3{{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}}},
	{dy: -1, corners: [4]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{dy: 1, corners: [4]mgl32.Vec3{{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}}},
	{dz: -1, corners: [4]mgl32.Vec3{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}}},
	{dz: 1, corners: [4]mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
}

// visit calls fn for every visible block in extraction order: x, then z,
// then y from the top of the chunk down. With topOnly only the highest
// visible block of each column is reported.
func visit(c *world.Chunk, topOnly bool, fn func(x, y, z int, block world.Block)) {
	for x := 0; x < world.ChunkSize; x++ {
		for z := 0; z < world.ChunkSize; z++ {
			for y := world.ChunkSize - 1; y >= 0; y-- {
				block := c.Block(x, y, z)
				if block.IsAir() || c.IsBlockHidden(x, y, z) {
					continue
				}
				fn(x, y, z, block)
				if topOnly {
					break
				}
			}
		}
	}
}

func blockOrigin(c *world.Chunk, x, y, z int) mgl32.Vec3 {
	o := c.Origin()
	return mgl32.Vec3{float32(o.X + x), float32(o.Y + y), float32(o.Z + z)}
}

// ExtractCubes returns a unit cube for every visible block of the chunk.
func ExtractCubes(c *world.Chunk, topOnly bool) []Cube {
	var cubes []Cube
	visit(c, topOnly, func(x, y, z int, block world.Block) {
		cubes = append(cubes, Cube{
			Min:   blockOrigin(c, x, y, z),
			Size:  mgl32.Vec3{1, 1, 1},
			Color: block.Color(),
		})
	})
	return cubes
}

// ExtractFaces emits the exposed faces of every visible block, grouped into
// one batch per color in order of first appearance. A face is exposed unless
// the in-chunk neighbour in its direction is opaque.
func ExtractFaces(c *world.Chunk, topOnly bool) []*Batch {
	var batches []*Batch
	byColor := make(map[world.Color]*Batch)

	visit(c, topOnly, func(x, y, z int, block world.Block) {
		origin := blockOrigin(c, x, y, z)
		for _, f := range faces {
			if c.Block(x+f.dx, y+f.dy, z+f.dz).Opaque() {
				continue
			}
			color := block.Color()
			batch, ok := byColor[color]
			if !ok {
				batch = &Batch{ID: uuid.New(), Chunk: c.Coord, Color: color}
				byColor[color] = batch
				batches = append(batches, batch)
			}
			a := origin.Add(f.corners[0])
			b := origin.Add(f.corners[1])
			cc := origin.Add(f.corners[2])
			d := origin.Add(f.corners[3])
			batch.Triangles = append(batch.Triangles, Triangle{a, b, cc}, Triangle{a, cc, d})
		}
	})
	return batches
}
