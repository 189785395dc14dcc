package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

type sceneStats struct {
	Seed      int64      `json:"seed"`
	Frames    int        `json:"frames"`
	Batches   int        `json:"batches"`
	Faces     int        `json:"faces"`
	Chunks    int        `json:"cachedChunks"`
	Observer  [3]float32 `json:"observer"`
	Clients   int        `json:"clients"`
	Generator string     `json:"generator"`
}

type columnInfo struct {
	X       int      `json:"x"`
	Z       int      `json:"z"`
	Surface *float64 `json:"surface,omitempty"`
	Top     int      `json:"top"`
	Blocks  []string `json:"blocks"` // from Top downward
}

// Handler serves the websocket stream together with read-only JSON
// endpoints for health, scene statistics and column inspection.
func (s *Session) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/scene", s.handleScene)
	mux.HandleFunc("/column", s.handleColumn)
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.Handler())
	}
	return mux
}

func (s *Session) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Session) handleScene(w http.ResponseWriter, r *http.Request) {
	stats := sceneStats{
		Seed:      s.world.Seed(),
		Frames:    s.loop.Frames(),
		Batches:   s.scene.Len(),
		Faces:     s.scene.FaceCount(),
		Chunks:    s.world.Len(),
		Observer:  s.walker.Position(),
		Generator: s.cfg.World.Generator,
	}
	if s.hub != nil {
		stats.Clients = s.hub.ClientCount()
	}
	writeJSON(w, stats)
}

func (s *Session) handleColumn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	xStr := q.Get("x")
	zStr := q.Get("z")
	if xStr == "" || zStr == "" {
		http.Error(w, "x and z query parameters required", http.StatusBadRequest)
		return
	}
	x, err := strconv.Atoi(xStr)
	if err != nil {
		http.Error(w, "invalid x parameter", http.StatusBadRequest)
		return
	}
	z, err := strconv.Atoi(zStr)
	if err != nil {
		http.Error(w, "invalid z parameter", http.StatusBadRequest)
		return
	}
	top, bottom := 32, -16
	if v := q.Get("top"); v != "" {
		if top, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid top parameter", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("bottom"); v != "" {
		if bottom, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid bottom parameter", http.StatusBadRequest)
			return
		}
	}
	span, ok := world.ColumnSpan(top, bottom)
	if !ok {
		http.Error(w, fmt.Sprintf("top must be at or above bottom and less than %d above it", world.MaxColumnSpan), http.StatusBadRequest)
		return
	}

	info := columnInfo{X: x, Z: z, Top: top}
	if heights, ok := s.world.Generator().(terrain.Heights); ok {
		h := heights.HeightAt(x, z)
		info.Surface = &h
	}
	for i := 0; i < span; i++ {
		y := top - i
		coord, _, _, _ := world.BlockCoord{X: x, Y: y, Z: z}.Chunk()
		s.world.GenerateAt(coord)
		info.Blocks = append(info.Blocks, s.world.Block(x, y, z).String())
	}
	writeJSON(w, info)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// serve runs the HTTP surface on addr until ctx is done.
func (s *Session) serve(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
