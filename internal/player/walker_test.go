package player

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/config"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

func flatWorld(t *testing.T, height int) *world.World {
	t.Helper()
	factory, err := terrain.NewFactory(config.GeneratorFlat, config.TerrainConfig{FlatHeight: height})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return world.New(1, factory)
}

func TestWalkerLandsOnTerrain(t *testing.T) {
	w := flatWorld(t, 4)
	walker := NewWalker(Terrain(w), mgl32.Vec3{8, 12, 8})

	for i := 0; i < 200; i++ {
		walker.Tick(0)
	}

	pos := walker.Position()
	if !walker.OnGround() {
		t.Fatalf("walker still airborne at %v", pos)
	}
	if walker.Velocity()[1] != 0 {
		t.Fatalf("vertical velocity not reset: %v", walker.Velocity())
	}
	if frac := pos[1] - float32(math.Floor(float64(pos[1]))); frac != 0.5 {
		t.Fatalf("walker not snapped to a half block: y=%v", pos[1])
	}
	if pos[1] < 5.5 || pos[1] > 6.5 {
		t.Fatalf("walker resting at unexpected height %v", pos[1])
	}

	rest := pos
	for i := 0; i < 50; i++ {
		walker.Tick(0)
	}
	if got := walker.Position(); got != rest {
		t.Fatalf("walker drifted while resting: %v -> %v", rest, got)
	}
}

func TestWalkerFallsWithoutGround(t *testing.T) {
	empty := BlockQueryFunc(func(x, y, z int) world.Block { return world.Air })
	walker := NewWalker(empty, mgl32.Vec3{0, 0, 0})

	walker.Tick(0)
	walker.Tick(0)
	if walker.OnGround() {
		t.Fatalf("walker reported ground over air")
	}
	if got := walker.Position()[1]; math.Abs(float64(got+0.03)) > 1e-6 {
		t.Fatalf("expected y=-0.03 after two ticks, got %v", got)
	}
}

func TestWalkerWalksAndJumps(t *testing.T) {
	w := flatWorld(t, 4)
	walker := NewWalker(Terrain(w), mgl32.Vec3{8, 6.5, 8})
	walker.SetInput(Input{Move: mgl32.Vec3{1, 5, 0}})

	for i := 0; i < 100; i++ {
		walker.Tick(0)
	}
	pos := walker.Position()
	if pos[0] <= 8 {
		t.Fatalf("walker did not move along +X: %v", pos)
	}
	if pos[2] != 8 {
		t.Fatalf("walker drifted along Z: %v", pos)
	}
	if vx := walker.Velocity()[0]; math.Abs(float64(vx-0.2)) > 1e-3 {
		t.Fatalf("expected terminal ground speed 0.2, got %v", vx)
	}

	walker.SetInput(Input{Jump: true})
	walker.Tick(0)
	if walker.Velocity()[1] != jumpVelocity {
		t.Fatalf("jump did not set vertical velocity: %v", walker.Velocity())
	}
	walker.Tick(0)
	if walker.Position()[1] <= pos[1] {
		t.Fatalf("walker did not leave the ground")
	}
}
