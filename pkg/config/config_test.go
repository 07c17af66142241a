package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arexport.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Export.Format != "glb" || cfg.Export.Workers != 4 {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Log.File != "" {
		t.Errorf("default log file = %q, want stderr", cfg.Log.File)
	}
	d, err := cfg.Engine.Timeout()
	if err != nil || d != 5*time.Second {
		t.Errorf("timeout = %s, %v", d, err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, warnings, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if cfg.Compression.Gltfpack != "gltfpack" {
		t.Errorf("gltfpack = %q", cfg.Compression.Gltfpack)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[log]
file = "/tmp/arexport.log"
max_log_size = 50

[export]
format = "usdz"
compression = "draco"
workers = 2

[compression]
gltf_pipeline = "/opt/gltf-pipeline/bin/gltf-pipeline.js"

[engine]
eval_timeout = "250ms"
`)
	cfg, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if cfg.Log.File != "/tmp/arexport.log" || cfg.Log.MaxSize != 50 {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Log.MaxAge != 28 {
		t.Errorf("unset max_log_age = %d, want default 28", cfg.Log.MaxAge)
	}
	if cfg.Export.Format != "usdz" || cfg.Export.Compression != "draco" || cfg.Export.Workers != 2 {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Compression.GltfPipeline != "/opt/gltf-pipeline/bin/gltf-pipeline.js" {
		t.Errorf("gltf_pipeline = %q", cfg.Compression.GltfPipeline)
	}
	if cfg.Compression.Node != "node" {
		t.Errorf("unset node = %q, want default", cfg.Compression.Node)
	}
	if d, _ := cfg.Engine.Timeout(); d != 250*time.Millisecond {
		t.Errorf("timeout = %s", d)
	}
}

func TestLoadUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[export]
workers = 1
colour = "red"

[server]
port = 8000
`)
	cfg, warnings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Export.Workers != 1 {
		t.Errorf("workers = %d", cfg.Export.Workers)
	}
	joined := strings.Join(warnings, "\n")
	for _, key := range []string{"export.colour", "server.port"} {
		if !strings.Contains(joined, key) {
			t.Errorf("warnings %q missing %s", joined, key)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[export\nworkers = 1", "decode"},
		{"type", "[export]\nworkers = \"four\"", "decode"},
		{"negative workers", "[export]\nworkers = -1", "workers"},
		{"bad timeout", "[engine]\neval_timeout = \"soon\"", "eval_timeout"},
		{"negative timeout", "[engine]\neval_timeout = \"-1s\"", "negative"},
		{"unknown compressor", "[export]\ncompression = \"zstd\"", "unknown compressor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
