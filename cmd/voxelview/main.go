package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"voxelworld/internal/config"
	"voxelworld/internal/mesh"
	"voxelworld/internal/render"
	"voxelworld/internal/session"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "voxelview",
		Usage: "generates, meshes and streams an infinite voxel world",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML configuration file",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "override world.seed",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			previewCommand(),
			columnCommand(),
		},
	}
}

func newLogger() *log.Logger {
	return log.New(log.Writer(), "voxelview ", log.LstdFlags|log.Lmicroseconds)
}

// loadConfig prefers an inline configuration from the environment over the
// --config file, then applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, ok, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if !ok {
		cfg, err = config.Load(c.String("config"))
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if c.IsSet("seed") {
		cfg.World.Seed = c.Int64("seed")
	}
	return cfg, nil
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run a headless streaming session around a walking observer",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "frames", Usage: "stop after this many frames (0 runs until interrupted)"},
			&cli.StringFlag{Name: "listen", Usage: "serve geometry over websocket at this address"},
			&cli.StringFlag{Name: "preview", Usage: "write an isometric PNG of the final scene"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("frames") {
				cfg.Engine.MaxFrames = c.Int("frames")
			}
			if c.IsSet("listen") {
				cfg.Render.Listen = c.String("listen")
			}
			if c.IsSet("preview") {
				cfg.Render.PreviewPath = c.String("preview")
			}

			s, err := session.New(cfg, newLogger())
			if err != nil {
				return fmt.Errorf("initialise session: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()
			if err := s.Run(ctx); err != nil {
				return fmt.Errorf("session exited with error: %w", err)
			}
			return nil
		},
	}
}

func newWorld(cfg *config.Config) (*world.World, error) {
	factory, err := terrain.NewFactory(cfg.World.Generator, cfg.Terrain)
	if err != nil {
		return nil, err
	}
	return world.New(cfg.World.Seed, factory), nil
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "render the chunks around a world position to a PNG",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "x", Usage: "world X of the centre"},
			&cli.Float64Flag{Name: "y", Usage: "world Y of the centre"},
			&cli.Float64Flag{Name: "z", Usage: "world Z of the centre"},
			&cli.IntFlag{Name: "radius", Value: 1, Usage: "chunks around the centre on each horizontal axis"},
			&cli.BoolFlag{Name: "top-only", Usage: "mesh only the highest visible block of each column"},
			&cli.StringFlag{Name: "out", Value: "preview.png", Usage: "output PNG path"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			w, err := newWorld(cfg)
			if err != nil {
				return err
			}

			radius := c.Int("radius")
			if radius < 0 {
				radius = 0
			}
			center := world.ChunkCoordAt(c.Float64("x"), c.Float64("y"), c.Float64("z"))
			var batches []*mesh.Batch
			for dx := -radius; dx <= radius; dx++ {
				for dy := -1; dy <= 1; dy++ {
					for dz := -radius; dz <= radius; dz++ {
						chunk := w.GenerateAt(center.Add(dx, dy, dz))
						batches = append(batches, mesh.ExtractFaces(chunk, c.Bool("top-only"))...)
					}
				}
			}

			out := c.String("out")
			if err := render.SavePreview(out, batches); err != nil {
				return err
			}
			newLogger().Printf("preview of %d chunks (%d faces) written to %s", w.Len(), mesh.CountFaces(batches), out)
			return nil
		},
	}
}

func columnCommand() *cli.Command {
	return &cli.Command{
		Name:      "column",
		Usage:     "print the block layering of one world column",
		ArgsUsage: "X Z",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "top", Value: 32, Usage: "highest world Y to print"},
			&cli.IntFlag{Name: "bottom", Value: -16, Usage: "lowest world Y to print"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("column needs X and Z, got %d arguments", c.NArg())
			}
			var x, z int
			if _, err := fmt.Sscan(c.Args().Get(0), &x); err != nil {
				return fmt.Errorf("parse X: %w", err)
			}
			if _, err := fmt.Sscan(c.Args().Get(1), &z); err != nil {
				return fmt.Errorf("parse Z: %w", err)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			w, err := newWorld(cfg)
			if err != nil {
				return err
			}
			return printColumn(c.App.Writer, w, x, z, c.Int("top"), c.Int("bottom"))
		},
	}
}

// printColumn writes the surface height followed by one line per run of
// identical blocks, top to bottom.
func printColumn(out io.Writer, w *world.World, x, z, top, bottom int) error {
	if heights, ok := w.Generator().(terrain.Heights); ok {
		if _, err := fmt.Fprintf(out, "column (%d, %d) surface %.3f\n", x, z, heights.HeightAt(x, z)); err != nil {
			return err
		}
	}
	if top < bottom {
		top, bottom = bottom, top
	}
	span, ok := world.ColumnSpan(top, bottom)
	if !ok {
		return fmt.Errorf("column range %d..%d is wider than %d blocks", top, bottom, world.MaxColumnSpan)
	}
	runStart := top
	current := columnBlock(w, x, top, z)
	for i := 1; i < span; i++ {
		y := top - i
		next := columnBlock(w, x, y, z)
		if next == current {
			continue
		}
		if _, err := fmt.Fprintf(out, "%5d..%-5d %s\n", runStart, y+1, current); err != nil {
			return err
		}
		runStart = y
		current = next
	}
	_, err := fmt.Fprintf(out, "%5d..%-5d %s\n", runStart, bottom, current)
	return err
}

func columnBlock(w *world.World, x, y, z int) world.Block {
	coord, _, _, _ := world.BlockCoord{X: x, Y: y, Z: z}.Chunk()
	w.GenerateAt(coord)
	return w.Block(x, y, z)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			return
		}

		// Ensure the process terminates if shutdown stalls.
		time.AfterFunc(10*time.Second, func() {
			log.Printf("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	return ctx, cancel
}
