package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/arexport/pkg/config"
	"github.com/chazu/arexport/pkg/gltf"
)

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := NewApp(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func readExample(t *testing.T, name string) string {
	t.Helper()
	source, err := os.ReadFile(filepath.Join("examples", name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(source)
}

func requireOK(t *testing.T, res ExportResult) {
	t.Helper()
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			t.Errorf("error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if !res.OK() {
		t.Fatalf("export not OK: %+v", res)
	}
}

// TestE2EScatterExample exercises the full pipeline: recipe source ->
// engine -> exporter -> .glb file on disk.
func TestE2EScatterExample(t *testing.T) {
	app := newTestApp(t, nil)
	out := filepath.Join(t.TempDir(), "trace.glb")

	res := app.Export(context.Background(), readExample(t, "scatter.zy"), out)
	requireOK(t, res)

	if res.Output != out || res.Format != "glb" {
		t.Errorf("output = %s (%s), want %s (glb)", res.Output, res.Format, out)
	}
	if len(res.Layers) != 1 || res.Layers[0].Label != "trace" {
		t.Fatalf("layers = %+v", res.Layers)
	}
	if res.Layers[0].Kind != "scatter" || res.Layers[0].Method != "Scatter" {
		t.Errorf("layer = %+v", res.Layers[0])
	}
	if len(res.Skipped) != 0 {
		t.Errorf("skipped = %v", res.Skipped)
	}

	asset, err := gltf.ReadFile(out)
	if err != nil {
		t.Fatalf("read %s: %v", out, err)
	}
	doc := asset.Document
	// 8 points at 10 per mesh is one point mesh; error bars and arrows add
	// their own meshes.
	if len(doc.Meshes) < 3 {
		t.Errorf("meshes = %d, want points, error bars and arrows", len(doc.Meshes))
	}
	if len(doc.Materials) == 0 {
		t.Error("no materials written")
	}
}

func TestE2EDensityExample(t *testing.T) {
	app := newTestApp(t, nil)
	out := filepath.Join(t.TempDir(), "density.usda")

	res := app.Export(context.Background(), readExample(t, "density.zy"), out)
	requireOK(t, res)

	if res.Format != "usda" {
		t.Errorf("format = %q", res.Format)
	}
	want := []LayerData{
		{Label: "core", Kind: "volume", Method: "Isosurface"},
		{Label: "halo", Kind: "volume", Method: "Voxel"},
	}
	if len(res.Layers) != len(want) {
		t.Fatalf("layers = %+v", res.Layers)
	}
	for i := range want {
		if res.Layers[i] != want[i] {
			t.Errorf("layer %d = %+v, want %+v", i, res.Layers[i], want[i])
		}
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty output file")
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := newTestApp(t, nil)
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Layers) != 0 {
		t.Errorf("expected 0 layers for empty source, got %d", len(result.Layers))
	}
	// Slices are non-nil so JSON shows [] rather than null.
	if result.Layers == nil || result.Errors == nil || result.Warnings == nil {
		t.Errorf("nil slices in %+v", result)
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp(t, nil)
	result := app.Export(context.Background(), `(scatter "p"`, filepath.Join(t.TempDir(), "p.glb"))

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.OK() || result.Output != "" {
		t.Errorf("expected no output on error, got %+v", result)
	}
}

// TestE2ESingleScatter ensures a minimal layer is evaluated and described.
func TestE2ESingleScatter(t *testing.T) {
	app := newTestApp(t, nil)
	source := `(viewer) (scatter "stars" :x (list 0.2 0.8) :y (list 0.5 0.5) :z (list 0.1 0.9) :color "#ffcc00")`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Layers) != 1 {
		t.Fatalf("expected 1 layer, got %d", len(result.Layers))
	}
	if result.Layers[0].Label != "stars" {
		t.Errorf("expected label 'stars', got %q", result.Layers[0].Label)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}
