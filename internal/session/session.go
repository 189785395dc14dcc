package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/config"
	"voxelworld/internal/engine"
	"voxelworld/internal/player"
	"voxelworld/internal/render"
	"voxelworld/internal/render/wsstream"
	"voxelworld/internal/stream"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

// Session wires a world, an observer, the streaming loader and the render
// sinks onto one frame loop.
type Session struct {
	cfg    *config.Config
	logger *log.Logger

	world  *world.World
	walker *player.Walker
	loader *stream.Loader
	scene  *render.Scene
	hub    *wsstream.Hub
	loop   *engine.Loop
}

func New(cfg *config.Config, logger *log.Logger) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "voxelview ", log.LstdFlags|log.Lmicroseconds)
	}

	factory, err := terrain.NewFactory(cfg.World.Generator, cfg.Terrain)
	if err != nil {
		return nil, err
	}
	w := world.New(cfg.World.Seed, factory)

	s := &Session{
		cfg:    cfg,
		logger: logger,
		world:  w,
		scene:  render.NewScene(),
		loop:   engine.NewLoop(cfg.Engine.FrameRate.Duration(), cfg.Engine.MaxFrames, logger),
	}

	var sink stream.Sink = s.scene
	if cfg.Render.Listen != "" {
		hub, err := wsstream.NewHub(wsstream.Options{
			Seed:         cfg.World.Seed,
			Compress:     cfg.Render.Compress,
			ClientBuffer: cfg.Render.ClientBuffer,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		s.hub = hub
		sink = render.Tee{s.scene, hub}
	}

	s.walker = player.NewWalker(player.Terrain(w), vec3(cfg.Player.Spawn))
	s.walker.SetInput(player.Input{Move: vec3(cfg.Player.Walk), Jump: cfg.Player.Jump})
	s.loader = stream.NewLoader(w, s.walker, sink, cfg.Stream, logger)

	// Movement runs before streaming so the loader sees this frame's position.
	s.loop.Register(s.walker)
	s.loop.Register(s.loader)
	return s, nil
}

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func (s *Session) World() *world.World { return s.world }

func (s *Session) Scene() *render.Scene { return s.scene }

func (s *Session) Walker() *player.Walker { return s.walker }

func (s *Session) Loader() *stream.Loader { return s.loader }

func (s *Session) Loop() *engine.Loop { return s.loop }

// Run drives the frame loop until ctx is done or the configured frame limit
// is reached, then writes the preview if one is configured. Cancellation is
// not an error.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	if s.hub != nil {
		go func() {
			err := s.serve(ctx, s.cfg.Render.Listen)
			if err != nil && ctx.Err() == nil {
				s.logger.Printf("HTTP server stopped: %v", err)
				cancel()
			}
			serveErr <- err
		}()
	}

	s.logger.Printf("session started: seed %d, generator %s, render distance %d",
		s.cfg.World.Seed, s.cfg.World.Generator, s.cfg.Stream.RenderDistance)

	err := s.loop.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	cancel()
	if s.hub != nil {
		if serr := <-serveErr; serr != nil && err == nil {
			err = serr
		}
	}

	pos := s.walker.Position()
	s.logger.Printf("session finished: %d frames, %d chunks loaded, %d faces displayed, observer at (%.1f, %.1f, %.1f)",
		s.loop.Frames(), len(s.loader.Loaded()), s.scene.FaceCount(), pos[0], pos[1], pos[2])

	if path := s.cfg.Render.PreviewPath; path != "" {
		if perr := render.SavePreview(path, s.scene.Batches()); perr != nil {
			return errors.Join(err, fmt.Errorf("save preview: %w", perr))
		}
		s.logger.Printf("preview written to %s", path)
	}
	return err
}
