package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/chazu/arexport/pkg/config"
	"github.com/chazu/arexport/pkg/engine"
	"github.com/chazu/arexport/pkg/export"
)

// errNoOutput is reported when neither the caller nor the recipe names an
// output file.
var errNoOutput = errors.New("no output path: pass -o or use (export-to ...)")

// App evaluates recipes and exports the layers they declare.
type App struct {
	cfg      *config.Config
	engine   *engine.Engine
	exporter *export.Exporter
	logger   *log.Logger
}

// LayerData summarizes one declared layer.
type LayerData struct {
	Label  string `json:"label"`
	Kind   string `json:"kind"`
	Method string `json:"method"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the outcome of evaluating a recipe without exporting it.
type EvalResult struct {
	Layers   []LayerData     `json:"layers"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []string        `json:"warnings"`
}

// ExportResult is the outcome of evaluating and exporting a recipe.
type ExportResult struct {
	EvalResult
	Output         string   `json:"output,omitempty"`
	Format         string   `json:"format,omitempty"`
	Skipped        []string `json:"skipped"`
	CompressionErr string   `json:"compressionError,omitempty"`
}

// OK reports whether the export produced a file without errors.
func (r ExportResult) OK() bool {
	return len(r.Errors) == 0 && r.Output != ""
}

// NewApp creates an App from cfg, logging to logger.
func NewApp(cfg *config.Config, logger *log.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	timeout, err := cfg.Engine.Timeout()
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine()
	eng.SetTimeout(timeout)

	opts := []export.Option{
		export.WithLogger(logger),
		export.WithCompressor(export.CompressionDraco,
			export.Draco(cfg.Compression.Node, cfg.Compression.GltfPipeline)),
		export.WithCompressor(export.CompressionMeshoptimizer,
			export.Meshoptimizer(cfg.Compression.Gltfpack)),
	}
	if cfg.Export.Workers > 0 {
		opts = append(opts, export.WithWorkers(cfg.Export.Workers))
	}

	return &App{
		cfg:      cfg,
		engine:   eng,
		exporter: export.New(opts...),
		logger:   logger,
	}, nil
}

// Evaluate runs source and describes the layers it declares.
func (a *App) Evaluate(source string) EvalResult {
	result, _ := a.evaluate(source)
	return result
}

func (a *App) evaluate(source string) (EvalResult, *engine.Recipe) {
	result := EvalResult{
		Layers:   []LayerData{},
		Errors:   []EvalErrorData{},
		Warnings: []string{},
	}

	recipe, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.logger.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result, nil
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result, nil
	}

	for _, w := range recipe.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}
	for _, le := range recipe.Layers {
		result.Layers = append(result.Layers, LayerData{
			Label:  le.Layer.Label(),
			Kind:   le.Layer.Kind().String(),
			Method: le.Method,
		})
	}
	return result, recipe
}

// Export evaluates source and writes its layers. A non-empty output
// overrides the recipe's (export-to ...) path; a path without an extension
// gets the configured default format.
func (a *App) Export(ctx context.Context, source, output string) ExportResult {
	eval, recipe := a.evaluate(source)
	result := ExportResult{EvalResult: eval, Skipped: []string{}}
	if recipe == nil {
		return result
	}

	job := recipe.Job(output)
	if job.Path == "" {
		return result.fail(errNoOutput)
	}
	if filepath.Ext(job.Path) == "" && a.cfg.Export.Format != "" {
		job.Path += "." + a.cfg.Export.Format
	}
	if job.Compression == "" {
		job.Compression = a.cfg.Export.Compression
	}

	res, err := a.exporter.Export(ctx, job)
	if err != nil {
		a.logger.Printf("Export error: %v", err)
		return result.fail(fmt.Errorf("export %s: %w", job.Path, err))
	}

	result.Output = res.Path
	result.Format = string(res.Format)
	for _, s := range res.Skipped {
		result.Skipped = append(result.Skipped, s.String())
	}
	if res.CompressionErr != nil {
		result.CompressionErr = res.CompressionErr.Error()
	}
	return result
}

func (r ExportResult) fail(err error) ExportResult {
	r.Errors = append(r.Errors, EvalErrorData{Message: err.Error()})
	return r
}
