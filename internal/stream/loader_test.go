package stream

import (
	"io"
	"log"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"voxelworld/internal/config"
	"voxelworld/internal/mesh"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

type recordingSink struct {
	live    map[uuid.UUID]*mesh.Batch
	added   int
	removed int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{live: make(map[uuid.UUID]*mesh.Batch)}
}

func (s *recordingSink) Add(b *mesh.Batch) {
	s.live[b.ID] = b
	s.added++
}

func (s *recordingSink) Remove(b *mesh.Batch) {
	delete(s.live, b.ID)
	s.removed++
}

func newFlatWorld(t *testing.T) *world.World {
	t.Helper()
	factory, err := terrain.NewFactory(config.GeneratorFlat, config.TerrainConfig{FlatHeight: 4})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return world.New(1, factory)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func asSet(coords []world.ChunkCoord) map[world.ChunkCoord]bool {
	out := make(map[world.ChunkCoord]bool, len(coords))
	for _, c := range coords {
		out[c] = true
	}
	return out
}

func TestLoaderConvergesOneChunkPerTick(t *testing.T) {
	w := newFlatWorld(t)
	pos := mgl32.Vec3{8, 8, 8}
	sink := newRecordingSink()
	l := NewLoader(w, PositionFunc(func() mgl32.Vec3 { return pos }), sink, config.StreamConfig{RenderDistance: 1}, quietLogger())

	desired := l.Desired(pos)
	if len(desired) != 9 {
		t.Fatalf("expected 9 desired chunks, got %d", len(desired))
	}

	for i := 0; i < len(desired); i++ {
		res := l.Update()
		if res.Action != Loaded {
			t.Fatalf("tick %d: expected load, got %v", i, res.Action)
		}
		if got := len(l.Loaded()); got != i+1 {
			t.Fatalf("tick %d: loaded count %d", i, got)
		}
	}
	if res := l.Update(); res.Action != Idle {
		t.Fatalf("expected idle after convergence, got %v", res.Action)
	}
	if diff := cmp.Diff(asSet(desired), asSet(l.Loaded())); diff != "" {
		t.Fatalf("loaded set differs from desired (-want +got):\n%s", diff)
	}
	for _, coord := range desired {
		if !w.Chunk(coord).Generated() {
			t.Fatalf("desired chunk %v not generated", coord)
		}
	}
	if len(sink.live) != sink.added {
		t.Fatalf("sink saw %d adds but holds %d batches", sink.added, len(sink.live))
	}
}

func TestLoaderLoadsNearestFirst(t *testing.T) {
	w := newFlatWorld(t)
	pos := mgl32.Vec3{8, 8, 8}
	l := NewLoader(w, PositionFunc(func() mgl32.Vec3 { return pos }), newRecordingSink(), config.StreamConfig{RenderDistance: 2, VerticalScale: 4}, quietLogger())

	want := []world.ChunkCoord{{X: 0, Y: 0, Z: 0}, {X: 0, Y: -1, Z: 0}, {X: 0, Y: 1, Z: 0}}
	for i, coord := range want {
		res := l.Update()
		if res.Action != Loaded || res.Chunk != coord {
			t.Fatalf("tick %d: got %v %v, want load of %v", i, res.Action, res.Chunk, coord)
		}
	}
	// Four horizontal neighbours tie; coordinate order picks -X.
	if res := l.Update(); res.Chunk != (world.ChunkCoord{X: -1, Y: 0, Z: 0}) {
		t.Fatalf("unexpected fourth chunk %v", res.Chunk)
	}
}

func TestLoaderUnloadsBeforeLoading(t *testing.T) {
	w := newFlatWorld(t)
	pos := mgl32.Vec3{8, 8, 8}
	sink := newRecordingSink()
	l := NewLoader(w, PositionFunc(func() mgl32.Vec3 { return pos }), sink, config.StreamConfig{RenderDistance: 1}, quietLogger())

	for l.Update().Action != Idle {
	}
	firstBatches := sink.added

	pos = mgl32.Vec3{24, 8, 8}
	var actions []Action
	for {
		res := l.Update()
		if res.Action == Idle {
			break
		}
		actions = append(actions, res.Action)
		if res.Action == Unloaded && res.Chunk.X != -1 {
			t.Fatalf("unloaded chunk %v still in range", res.Chunk)
		}
		if res.Action == Loaded && res.Chunk.X != 2 {
			t.Fatalf("loaded unexpected chunk %v", res.Chunk)
		}
	}

	want := []Action{Unloaded, Unloaded, Unloaded, Loaded, Loaded, Loaded}
	if diff := cmp.Diff(want, actions); diff != "" {
		t.Fatalf("actions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(asSet(l.Desired(pos)), asSet(l.Loaded())); diff != "" {
		t.Fatalf("loaded set differs from desired (-want +got):\n%s", diff)
	}
	if sink.removed == 0 || sink.removed > firstBatches {
		t.Fatalf("unexpected remove count %d", sink.removed)
	}
	for _, b := range sink.live {
		if !l.IsLoaded(b.Chunk) {
			t.Fatalf("sink holds batch for unloaded chunk %v", b.Chunk)
		}
	}
}

func TestDesiredUsesFloorForNegativePositions(t *testing.T) {
	w := newFlatWorld(t)
	l := NewLoader(w, PositionFunc(func() mgl32.Vec3 { return mgl32.Vec3{} }), newRecordingSink(), config.StreamConfig{RenderDistance: 1}, quietLogger())

	got := l.Desired(mgl32.Vec3{-0.5, -1, -17})
	want := []world.ChunkCoord{
		{X: -2, Y: -1, Z: -3}, {X: -2, Y: -1, Z: -2}, {X: -2, Y: -1, Z: -1},
		{X: -1, Y: -1, Z: -3}, {X: -1, Y: -1, Z: -2}, {X: -1, Y: -1, Z: -1},
		{X: 0, Y: -1, Z: -3}, {X: 0, Y: -1, Z: -2}, {X: 0, Y: -1, Z: -1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("desired (-want +got):\n%s", diff)
	}
}
