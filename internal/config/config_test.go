package config

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestValidateDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
}

func TestValidateDetectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "unknown generator",
			mutate: func(cfg *Config) {
				cfg.World.Generator = "caves"
			},
			wantErr: "world.generator must be one of noise, flat",
		},
		{
			name: "zero horizontal scale",
			mutate: func(cfg *Config) {
				cfg.Terrain.HorizontalScale = 0
			},
			wantErr: "terrain.horizontalScale must be positive",
		},
		{
			name: "negative amplitude",
			mutate: func(cfg *Config) {
				cfg.Terrain.Amplitude = -1
			},
			wantErr: "terrain.amplitude cannot be negative",
		},
		{
			name: "fractal size below one",
			mutate: func(cfg *Config) {
				cfg.Terrain.FractalSize = 0.5
			},
			wantErr: "terrain.fractalSize must be at least 1",
		},
		{
			name: "zero render distance",
			mutate: func(cfg *Config) {
				cfg.Stream.RenderDistance = 0
			},
			wantErr: "stream.renderDistance must be positive",
		},
		{
			name: "zero vertical scale",
			mutate: func(cfg *Config) {
				cfg.Stream.VerticalScale = 0
			},
			wantErr: "stream.verticalScale must be positive",
		},
		{
			name: "zero frame rate",
			mutate: func(cfg *Config) {
				cfg.Engine.FrameRate = 0
			},
			wantErr: "engine.frameRate must be positive",
		},
		{
			name: "negative max frames",
			mutate: func(cfg *Config) {
				cfg.Engine.MaxFrames = -1
			},
			wantErr: "engine.maxFrames cannot be negative",
		},
		{
			name: "zero client buffer",
			mutate: func(cfg *Config) {
				cfg.Render.ClientBuffer = 0
			},
			wantErr: "render.clientBuffer must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error %q", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Fatalf("unexpected error: got %q want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRoundTripsYAML(t *testing.T) {
	cfg := Default()
	cfg.World.Seed = 99
	cfg.World.Generator = GeneratorFlat
	cfg.Stream.RenderDistance = 6
	cfg.Stream.TopOnly = true
	cfg.Engine.FrameRate = Duration(33 * time.Millisecond)
	cfg.Player.Spawn = [3]float64{-4, 60, 12.5}
	cfg.Render.Listen = ":8090"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	path := filepath.Join(t.TempDir(), "voxelview.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Parse([]byte("stream:\n  renderDistance: 2\nengine:\n  frameRate: 50ms\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Default()
	want.Stream.RenderDistance = 2
	want.Engine.FrameRate = Duration(50 * time.Millisecond)
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown section", doc: "physics:\n  gravity: 1\n"},
		{name: "unknown key", doc: "stream:\n  radius: 3\n"},
		{name: "wrong type", doc: "stream:\n  renderDistance: far\n"},
		{name: "bad generator", doc: "world:\n  generator: caves\n"},
		{name: "short spawn", doc: "player:\n  spawn: [1, 2]\n"},
		{name: "bad duration", doc: "engine:\n  frameRate: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatalf("expected schema error")
			}
			if !strings.HasPrefix(err.Error(), "schema:") {
				t.Fatalf("expected schema error, got %v", err)
			}
		})
	}
}

func TestDurationDecoding(t *testing.T) {
	var cfg EngineConfig
	if err := json.Unmarshal([]byte(`{"frameRate":"250ms"}`), &cfg); err != nil {
		t.Fatalf("decode string: %v", err)
	}
	if cfg.FrameRate.Duration() != 250*time.Millisecond {
		t.Fatalf("unexpected duration %s", cfg.FrameRate.Duration())
	}
	if err := json.Unmarshal([]byte(`{"frameRate":1000000}`), &cfg); err != nil {
		t.Fatalf("decode number: %v", err)
	}
	if cfg.FrameRate.Duration() != time.Millisecond {
		t.Fatalf("unexpected duration %s", cfg.FrameRate.Duration())
	}
	if err := yaml.Unmarshal([]byte("frameRate: 2000000\n"), &cfg); err != nil {
		t.Fatalf("decode yaml integer: %v", err)
	}
	if cfg.FrameRate.Duration() != 2*time.Millisecond {
		t.Fatalf("unexpected duration %s", cfg.FrameRate.Duration())
	}
	if err := json.Unmarshal([]byte(`{"frameRate":"later"}`), &cfg); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv(EnvConfigJSON, "")
		t.Setenv(EnvConfigYAMLB64, "")
		cfg, ok, err := FromEnv()
		if err != nil || ok || cfg != nil {
			t.Fatalf("expected no config, got %v %v %v", cfg, ok, err)
		}
	})

	t.Run("json", func(t *testing.T) {
		want := Default()
		want.World.Seed = 1234
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal config: %v", err)
		}
		t.Setenv(EnvConfigYAMLB64, "")
		t.Setenv(EnvConfigJSON, string(data))

		cfg, ok, err := FromEnv()
		if err != nil || !ok {
			t.Fatalf("FromEnv: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Fatalf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		want := Default()
		want.Render.Compress = false
		data, err := yaml.Marshal(want)
		if err != nil {
			t.Fatalf("marshal yaml: %v", err)
		}
		t.Setenv(EnvConfigJSON, "")
		t.Setenv(EnvConfigYAMLB64, base64.StdEncoding.EncodeToString(data))

		cfg, ok, err := FromEnv()
		if err != nil || !ok {
			t.Fatalf("FromEnv: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Fatalf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv(EnvConfigYAMLB64, "")
		t.Setenv(EnvConfigJSON, `{"stream":{"renderDistance":0}}`)
		if _, _, err := FromEnv(); err == nil {
			t.Fatalf("expected validation error")
		}
	})

	t.Run("json unknown key", func(t *testing.T) {
		t.Setenv(EnvConfigYAMLB64, "")
		t.Setenv(EnvConfigJSON, `{"stream":{"renderDistanc":9},"bogus":true}`)
		_, ok, err := FromEnv()
		if err == nil || ok {
			t.Fatalf("expected schema error, got ok=%v err=%v", ok, err)
		}
		if !strings.Contains(err.Error(), "schema") {
			t.Fatalf("expected a schema error, got %v", err)
		}
	})
}
