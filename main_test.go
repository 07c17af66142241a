package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"help", []string{"-h"}, 0},
		{"no recipe", nil, 2},
		{"two recipes", []string{"a.zy", "b.zy"}, 2},
		{"bad flag", []string{"-frobnicate", "a.zy"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if !strings.Contains(stderr, "Usage: arexport") {
				t.Errorf("stderr = %q, want usage", stderr)
			}
		})
	}
}

func TestRunExportFromStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "p.glb")
	code, stdout, stderr := runCLI(t, pointsSource, "-o", out, "-")
	if code != 0 {
		t.Fatalf("exit code = %d, stdout %q, stderr %q", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "wrote "+out+" (glb)") {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestRunCheckJSON(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "-check", "-json", filepath.Join("examples", "density.zy"))
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	var res EvalResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if len(res.Layers) != 2 || res.Layers[1].Method != "Voxel" {
		t.Errorf("layers = %+v", res.Layers)
	}
}

func TestRunEvalErrorExitCode(t *testing.T) {
	code, stdout, _ := runCLI(t, `(scatter "p" :x (list 1) :bogus 2)`, "-check", "-")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "unknown keyword :bogus") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "arexport.log")
	cfgFile := filepath.Join(dir, "arexport.toml")
	cfg := "[log]\nfile = " + `"` + filepath.ToSlash(logFile) + `"` + "\n[export]\nformat = \"usda\"\nshading = \"flat\"\n"
	if err := os.WriteFile(cfgFile, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "scene")
	code, stdout, stderr := runCLI(t, pointsSource, "-config", cfgFile, "-o", out, "-")
	if code != 0 {
		t.Fatalf("exit code = %d, stdout %q, stderr %q", code, stdout, stderr)
	}
	if _, err := os.Stat(out + ".usda"); err != nil {
		t.Errorf("default format not applied: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `unknown key "export.shading"`) {
		t.Errorf("log = %q", data)
	}
}

func TestRunConfigErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "", "-config", filepath.Join(t.TempDir(), "missing.toml"), "-")
	if code != 1 || !strings.Contains(stderr, "arexport:") {
		t.Errorf("missing config: code %d, stderr %q", code, stderr)
	}

	code, _, stderr = runCLI(t, "", "-compression", "zstd", "-")
	if code != 1 || !strings.Contains(stderr, "unknown compressor") {
		t.Errorf("bad compression: code %d, stderr %q", code, stderr)
	}
}
