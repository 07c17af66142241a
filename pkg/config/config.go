// Package config loads arexport settings from a TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chazu/arexport/pkg/logging"
)

// Config is the parsed configuration file.
type Config struct {
	Log         logging.Config
	Export      ExportConfig
	Compression CompressionConfig
	Engine      EngineConfig
}

// ExportConfig holds defaults for export jobs.
type ExportConfig struct {
	// Format is used when the output path has no extension.
	Format      string
	Compression string
	Workers     int
}

// CompressionConfig names the external programs run by the compressors.
type CompressionConfig struct {
	Node         string
	GltfPipeline string `toml:"gltf_pipeline"`
	Gltfpack     string
}

// EngineConfig controls recipe evaluation.
type EngineConfig struct {
	EvalTimeout string `toml:"eval_timeout"`
}

// Timeout parses EvalTimeout. An empty value yields zero, which the engine
// treats as its default.
func (c EngineConfig) Timeout() (time.Duration, error) {
	if c.EvalTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.EvalTimeout)
	if err != nil {
		return 0, fmt.Errorf("engine.eval_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("engine.eval_timeout: negative duration %s", d)
	}
	return d, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: logging.Config{
			MaxSize:    10,
			MaxAge:     28,
			MaxBackups: 3,
		},
		Export: ExportConfig{
			Format:  "glb",
			Workers: 4,
		},
		Compression: CompressionConfig{
			Node:         "node",
			GltfPipeline: "gltf-pipeline",
			Gltfpack:     "gltfpack",
		},
		Engine: EngineConfig{EvalTimeout: "5s"},
	}
}

// Load reads filename over the defaults. Keys present in the file but not
// understood are returned as warnings.
func Load(filename string) (*Config, []string, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil, nil
	}
	md, err := toml.DecodeFile(filename, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("could not decode TOML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filename, err)
	}
	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("%s: unknown key %q", filename, key.String()))
	}
	return cfg, warnings, nil
}

// Validate checks values the TOML decoder cannot.
func (c *Config) Validate() error {
	if c.Export.Workers < 0 {
		return fmt.Errorf("export.workers must not be negative, got %d", c.Export.Workers)
	}
	if _, err := c.Engine.Timeout(); err != nil {
		return err
	}
	switch c.Export.Compression {
	case "", "draco", "meshoptimizer":
	default:
		return fmt.Errorf("export.compression: unknown compressor %q", c.Export.Compression)
	}
	return nil
}
