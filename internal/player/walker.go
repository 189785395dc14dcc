// Package player moves a first-person observer through the world with simple
// per-tick physics: gravity, ground snapping, damping and scripted input.
package player

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/world"
)

const (
	gravity      = 0.01
	damping      = 0.9
	groundAccel  = 0.02
	airAccel     = 0.015
	jumpVelocity = 0.3
	// eyeHeight is how far above the feet the ground probe starts.
	eyeHeight = 1.5
)

// BlockQuery answers block lookups in world coordinates.
type BlockQuery interface {
	Block(x, y, z int) world.Block
}

// BlockQueryFunc adapts a function to BlockQuery.
type BlockQueryFunc func(x, y, z int) world.Block

func (f BlockQueryFunc) Block(x, y, z int) world.Block {
	return f(x, y, z)
}

// Terrain returns a BlockQuery that generates the containing chunk before
// reading, so the walker never falls through terrain that has not been
// streamed yet.
func Terrain(w *world.World) BlockQuery {
	return BlockQueryFunc(func(x, y, z int) world.Block {
		coord, _, _, _ := world.BlockCoord{X: x, Y: y, Z: z}.Chunk()
		w.GenerateAt(coord)
		return w.Block(x, y, z)
	})
}

// Input is the steady control state applied every tick. Move is read in the
// horizontal plane only.
type Input struct {
	Move mgl32.Vec3
	Jump bool
}

// Walker is a position source driven by the engine loop.
type Walker struct {
	query BlockQuery

	mu       sync.RWMutex
	position mgl32.Vec3
	velocity mgl32.Vec3
	onGround bool
	input    Input
}

func NewWalker(query BlockQuery, spawn mgl32.Vec3) *Walker {
	return &Walker{query: query, position: spawn}
}

// SetInput replaces the control state.
func (w *Walker) SetInput(in Input) {
	w.mu.Lock()
	w.input = in
	w.mu.Unlock()
}

func (w *Walker) Position() mgl32.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.position
}

func (w *Walker) Velocity() mgl32.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.velocity
}

func (w *Walker) OnGround() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.onGround
}

// Tick advances one physics step. The step is fixed; delta is ignored.
func (w *Walker) Tick(time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.velocity[1] -= gravity
	w.position = w.position.Add(w.velocity)

	below := w.query.Block(
		floor(w.position[0]),
		floor(w.position[1]-eyeHeight),
		floor(w.position[2]),
	)
	if below.Opaque() {
		w.position[1] = 0.5 + float32(math.Floor(float64(w.position[1])))
		w.velocity[1] = 0
		w.onGround = true
	} else {
		w.onGround = false
	}

	w.velocity[0] *= damping
	w.velocity[2] *= damping

	accel := float32(airAccel)
	if w.onGround {
		accel = groundAccel
	}
	move := mgl32.Vec3{w.input.Move[0], 0, w.input.Move[2]}
	if move.Len() > 0 {
		move = move.Normalize().Mul(accel)
		w.velocity[0] += move[0]
		w.velocity[2] += move[2]
	}

	if w.input.Jump && w.onGround {
		w.velocity[1] = jumpVelocity
	}
}

func floor(v float32) int {
	return int(math.Floor(float64(v)))
}
