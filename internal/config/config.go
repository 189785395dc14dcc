package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so configuration files can use human readable
// strings such as "16ms" while still allowing numeric nanoseconds.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds. Empty strings and null values decode
// to zero.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = Duration(time.Duration(f))
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML encodes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar at line %d", node.Line)
	}
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode integer: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures the tunable parameters of a voxel viewer session.
type Config struct {
	World   WorldConfig   `json:"world" yaml:"world"`
	Terrain TerrainConfig `json:"terrain" yaml:"terrain"`
	Stream  StreamConfig  `json:"stream" yaml:"stream"`
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Player  PlayerConfig  `json:"player" yaml:"player"`
	Render  RenderConfig  `json:"render" yaml:"render"`
}

type WorldConfig struct {
	Seed      int64  `json:"seed" yaml:"seed"`
	Generator string `json:"generator" yaml:"generator"` // "noise" or "flat"
}

const (
	GeneratorNoise = "noise"
	GeneratorFlat  = "flat"
)

type TerrainConfig struct {
	HorizontalScale float64 `json:"horizontalScale" yaml:"horizontalScale"` // world units per noise unit
	Amplitude       float64 `json:"amplitude" yaml:"amplitude"`             // column height multiplier
	FractalSize     float64 `json:"fractalSize" yaml:"fractalSize"`         // initial fractal feature size
	FlatHeight      int     `json:"flatHeight" yaml:"flatHeight"`           // surface level of the flat generator
}

type StreamConfig struct {
	RenderDistance int     `json:"renderDistance" yaml:"renderDistance"` // chunks around the observer
	VerticalScale  float64 `json:"verticalScale" yaml:"verticalScale"`   // vertical compression for load ordering
	TopOnly        bool    `json:"topOnly" yaml:"topOnly"`
}

type EngineConfig struct {
	FrameRate Duration `json:"frameRate" yaml:"frameRate"` // e.g. "16ms"
	MaxFrames int      `json:"maxFrames" yaml:"maxFrames"` // 0 runs until cancelled
}

type PlayerConfig struct {
	Spawn [3]float64 `json:"spawn" yaml:"spawn"`
	Walk  [3]float64 `json:"walk" yaml:"walk"` // steady input direction
	Jump  bool       `json:"jump" yaml:"jump"`
}

type RenderConfig struct {
	PreviewPath  string `json:"previewPath" yaml:"previewPath"` // PNG written when a session ends
	Listen       string `json:"listen" yaml:"listen"`           // websocket listen address, empty disables
	Compress     bool   `json:"compress" yaml:"compress"`
	ClientBuffer int    `json:"clientBuffer" yaml:"clientBuffer"` // queued frames per websocket client
}

//go:embed config.schema.json
var schemaSource string

var schema = jsonschema.MustCompileString("config.schema.json", schemaSource)

// Load reads a YAML (or JSON) configuration file. An empty path returns
// defaults; keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults, checks it against the
// configuration schema and validates the result.
func Parse(data []byte) (*Config, error) {
	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func validateDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		return nil
	}
	// Round trip through JSON so the validator sees JSON types only.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert document: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("convert document: %w", err)
	}
	return schema.Validate(instance)
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:      1,
			Generator: GeneratorNoise,
		},
		Terrain: TerrainConfig{
			HorizontalScale: 4,
			Amplitude:       20,
			FractalSize:     35,
			FlatHeight:      4,
		},
		Stream: StreamConfig{
			RenderDistance: 4,
			VerticalScale:  4,
			TopOnly:        false,
		},
		Engine: EngineConfig{
			FrameRate: Duration(16 * time.Millisecond),
			MaxFrames: 0,
		},
		Player: PlayerConfig{
			Spawn: [3]float64{8, 40, 8},
			Walk:  [3]float64{1, 0, 0},
			Jump:  false,
		},
		Render: RenderConfig{
			PreviewPath:  "",
			Listen:       "",
			Compress:     true,
			ClientBuffer: 256,
		},
	}
}

func (c *Config) Validate() error {
	if c.World.Generator != GeneratorNoise && c.World.Generator != GeneratorFlat {
		return errors.New("world.generator must be one of noise, flat")
	}
	if c.Terrain.HorizontalScale <= 0 {
		return errors.New("terrain.horizontalScale must be positive")
	}
	if c.Terrain.Amplitude < 0 {
		return errors.New("terrain.amplitude cannot be negative")
	}
	if c.Terrain.FractalSize < 1 {
		return errors.New("terrain.fractalSize must be at least 1")
	}
	if c.Stream.RenderDistance <= 0 {
		return errors.New("stream.renderDistance must be positive")
	}
	if c.Stream.VerticalScale <= 0 {
		return errors.New("stream.verticalScale must be positive")
	}
	if c.Engine.FrameRate <= 0 {
		return errors.New("engine.frameRate must be positive")
	}
	if c.Engine.MaxFrames < 0 {
		return errors.New("engine.maxFrames cannot be negative")
	}
	if c.Render.ClientBuffer <= 0 {
		return errors.New("render.clientBuffer must be positive")
	}
	return nil
}
