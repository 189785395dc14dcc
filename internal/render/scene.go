// Package render holds headless display sinks for streamed chunk geometry:
// an in-memory scene graph, a fan-out tee and an isometric PNG snapshot.
package render

import (
	"sync"

	"github.com/google/uuid"

	"voxelworld/internal/mesh"
	"voxelworld/internal/stream"
)

// Scene is the set of batches currently on display. It is safe for
// concurrent use; the frame loop writes while transports read.
type Scene struct {
	mu      sync.RWMutex
	batches map[uuid.UUID]*mesh.Batch
	order   []uuid.UUID
}

func NewScene() *Scene {
	return &Scene{batches: make(map[uuid.UUID]*mesh.Batch)}
}

// Add registers a batch. Adding a batch already present is a no-op.
func (s *Scene) Add(b *mesh.Batch) {
	if b == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[b.ID]; ok {
		return
	}
	s.batches[b.ID] = b
	s.order = append(s.order, b.ID)
}

// Remove drops a batch. Unknown batches are ignored.
func (s *Scene) Remove(b *mesh.Batch) {
	if b == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[b.ID]; !ok {
		return
	}
	delete(s.batches, b.ID)
	for i, id := range s.order {
		if id == b.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}

// Batches returns the displayed batches in the order they were added.
func (s *Scene) Batches() []*mesh.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*mesh.Batch, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.batches[id])
	}
	return out
}

// FaceCount sums faces over every displayed batch.
func (s *Scene) FaceCount() int {
	return mesh.CountFaces(s.Batches())
}

// Tee forwards every call to each sink in order.
type Tee []stream.Sink

func (t Tee) Add(b *mesh.Batch) {
	for _, s := range t {
		s.Add(b)
	}
}

func (t Tee) Remove(b *mesh.Batch) {
	for _, s := range t {
		s.Remove(b)
	}
}
