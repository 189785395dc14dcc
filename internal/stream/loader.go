// Package stream keeps the chunks around an observer loaded into a render
// sink, changing at most one chunk per tick.
package stream

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/config"
	"voxelworld/internal/mesh"
	"voxelworld/internal/world"
)

// PositionSource reports the observer's world-space position.
type PositionSource interface {
	Position() mgl32.Vec3
}

// PositionFunc adapts a function to PositionSource.
type PositionFunc func() mgl32.Vec3

func (f PositionFunc) Position() mgl32.Vec3 {
	return f()
}

// Sink receives renderable batches. Every batch passed to Add is later passed
// to Remove when its chunk leaves the observer's vicinity.
type Sink interface {
	Add(batch *mesh.Batch)
	Remove(batch *mesh.Batch)
}

type Action int

const (
	Idle Action = iota
	Loaded
	Unloaded
)

func (a Action) String() string {
	switch a {
	case Loaded:
		return "loaded"
	case Unloaded:
		return "unloaded"
	default:
		return "idle"
	}
}

// Result describes the single change made by one Update.
type Result struct {
	Action  Action
	Chunk   world.ChunkCoord
	Batches int
}

// Loader streams chunks around a PositionSource into a Sink. It is driven
// from a single goroutine.
type Loader struct {
	world  *world.World
	source PositionSource
	sink   Sink
	logger *log.Logger

	radius        int
	verticalScale float64
	topOnly       bool

	loaded map[world.ChunkCoord][]*mesh.Batch
	order  []world.ChunkCoord
}

// NewLoader builds a loader. Non-positive radius or vertical scale fall back
// to the defaults; a nil logger uses the standard logger.
func NewLoader(w *world.World, source PositionSource, sink Sink, cfg config.StreamConfig, logger *log.Logger) *Loader {
	defaults := config.Default().Stream
	if cfg.RenderDistance <= 0 {
		cfg.RenderDistance = defaults.RenderDistance
	}
	if cfg.VerticalScale <= 0 {
		cfg.VerticalScale = defaults.VerticalScale
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		world:         w,
		source:        source,
		sink:          sink,
		logger:        logger,
		radius:        cfg.RenderDistance,
		verticalScale: cfg.VerticalScale,
		topOnly:       cfg.TopOnly,
		loaded:        make(map[world.ChunkCoord][]*mesh.Batch),
	}
}

// Desired returns the chunks that should be loaded for an observer at pos,
// in coordinate order. The vertical range is one chunk narrower than the
// horizontal range on each side.
func (l *Loader) Desired(pos mgl32.Vec3) []world.ChunkCoord {
	center := world.ChunkCoordAt(float64(pos[0]), float64(pos[1]), float64(pos[2]))
	r := l.radius
	out := make([]world.ChunkCoord, 0, (2*r+1)*(2*r-1)*(2*r+1))
	for dx := -r; dx <= r; dx++ {
		for dy := 1 - r; dy <= r-1; dy++ {
			for dz := -r; dz <= r; dz++ {
				out = append(out, center.Add(dx, dy, dz))
			}
		}
	}
	return out
}

// Tick runs one Update; delta is unused.
func (l *Loader) Tick(time.Duration) {
	l.Update()
}

// Update performs at most one unload or load. Unloads take priority.
func (l *Loader) Update() Result {
	pos := l.source.Position()
	desired := l.Desired(pos)

	wanted := make(map[world.ChunkCoord]struct{}, len(desired))
	for _, coord := range desired {
		l.world.GenerateAt(coord)
		wanted[coord] = struct{}{}
	}

	for i, coord := range l.order {
		if _, ok := wanted[coord]; ok {
			continue
		}
		batches := l.loaded[coord]
		for _, b := range batches {
			l.sink.Remove(b)
		}
		delete(l.loaded, coord)
		l.order = append(l.order[:i], l.order[i+1:]...)
		l.logger.Printf("chunk %v unloaded (%d batches)", coord, len(batches))
		return Result{Action: Unloaded, Chunk: coord, Batches: len(batches)}
	}

	best, found := l.nearestMissing(pos, desired)
	if !found {
		return Result{Action: Idle}
	}

	batches := mesh.ExtractFaces(l.world.Chunk(best), l.topOnly)
	for _, b := range batches {
		l.sink.Add(b)
	}
	l.loaded[best] = batches
	l.order = append(l.order, best)
	l.logger.Printf("chunk %v loaded (%d batches, %d faces)", best, len(batches), mesh.CountFaces(batches))
	return Result{Action: Loaded, Chunk: best, Batches: len(batches)}
}

// nearestMissing picks the unloaded desired chunk whose centre is closest to
// pos. Vertical distance is divided by the vertical scale. Ties keep the
// first chunk in coordinate order.
func (l *Loader) nearestMissing(pos mgl32.Vec3, desired []world.ChunkCoord) (world.ChunkCoord, bool) {
	var best world.ChunkCoord
	bestDist := 0.0
	found := false
	for _, coord := range desired {
		if _, ok := l.loaded[coord]; ok {
			continue
		}
		d := l.distance(pos, coord)
		if !found || d < bestDist {
			best, bestDist, found = coord, d, true
		}
	}
	return best, found
}

func (l *Loader) distance(pos mgl32.Vec3, coord world.ChunkCoord) float64 {
	const half = world.ChunkSize / 2
	origin := coord.Origin()
	dx := float64(pos[0]) - float64(origin.X+half)
	dy := (float64(pos[1]) - float64(origin.Y+half)) / l.verticalScale
	dz := float64(pos[2]) - float64(origin.Z+half)
	return dx*dx + dy*dy + dz*dz
}

// Loaded returns the loaded chunks in load order.
func (l *Loader) Loaded() []world.ChunkCoord {
	out := make([]world.ChunkCoord, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Loader) IsLoaded(coord world.ChunkCoord) bool {
	_, ok := l.loaded[coord]
	return ok
}

// Batches returns the batches registered for a loaded chunk.
func (l *Loader) Batches(coord world.ChunkCoord) []*mesh.Batch {
	return l.loaded[coord]
}
