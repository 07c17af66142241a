// Package export turns viewer layers into 3D asset files.
//
// An Export call picks a builder family from the output extension, runs
// the adapter registered for each (layer kind, method, family) and writes
// the accumulated scene once at the end. Layers that fail are recorded in
// the Result and skipped; the rest of the scene is still written.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/chazu/arexport/pkg/gltf"
	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/kernel/sdfx"
	"github.com/chazu/arexport/pkg/layer"
	"github.com/chazu/arexport/pkg/stl"
	"github.com/chazu/arexport/pkg/usd"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedExportExtension = errors.New("unsupported export extension")
	ErrUnsupportedLayer           = errors.New("no exporter for layer")
	ErrNoLayers                   = errors.New("nothing to export")
)

// Format is an output file format, named by its extension.
type Format string

const (
	FormatGLTF Format = "gltf"
	FormatGLB  Format = "glb"
	FormatUSDA Format = "usda"
	FormatUSDZ Format = "usdz"
	FormatUSDC Format = "usdc"
	FormatSTL  Format = "stl"
)

// Family groups formats that share a builder and therefore adapters.
type Family int

const (
	// FamilyBinary formats accumulate buffers, views and accessors.
	FamilyBinary Family = iota
	// FamilyHierarchical formats accumulate a prim tree.
	FamilyHierarchical
)

func (f Family) String() string {
	if f == FamilyBinary {
		return "binary"
	}
	return "hierarchical"
}

// Family returns the builder family that writes f.
func (f Format) Family() Family {
	switch f {
	case FormatGLTF, FormatGLB:
		return FamilyBinary
	default:
		return FamilyHierarchical
	}
}

// Compressible reports whether compression post-processors apply to f.
func (f Format) Compressible() bool {
	return f.Family() == FamilyBinary
}

// FormatFromPath returns the format selected by the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch f := Format(ext); f {
	case FormatGLTF, FormatGLB, FormatUSDA, FormatUSDZ, FormatSTL:
		return f, nil
	case FormatUSDC:
		return "", fmt.Errorf("%w: .usdc (binary crate files are not written; use .usda or .usdz)", ErrUnsupportedExportExtension)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedExportExtension, filepath.Ext(path))
}

// LayerExport is one layer together with the method used to draw it and
// that method's numeric options.
type LayerExport struct {
	Layer   layer.Layer
	Method  string
	Options Options
}

// Job describes one export.
type Job struct {
	Path        string
	Viewer      layer.ViewerState
	Layers      []LayerExport
	Compression string // "", or a registered compressor name
}

// Skip records a layer or isosurface level left out of the output.
type Skip struct {
	Layer string
	Err   error
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: %v", s.Layer, s.Err)
}

// Result describes a finished export.
type Result struct {
	Path    string
	Format  Format
	Skipped []Skip
	// CompressionErr is set when the post-processor failed. The
	// uncompressed file at Path is still valid.
	CompressionErr error
}

// Exporter runs export jobs. Its configuration is read-only after New, so
// one Exporter may run several jobs concurrently; each job gets its own
// builder.
type Exporter struct {
	logger      *log.Logger
	extractor   kernel.Extractor
	workers     int
	compressors map[string]Compressor
	newID       func() string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the destination of skip and compression messages.
func WithLogger(l *log.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithExtractor replaces the level-set extraction backend.
func WithExtractor(x kernel.Extractor) Option {
	return func(e *Exporter) { e.extractor = x }
}

// WithWorkers bounds how many isosurface levels are extracted at once.
func WithWorkers(n int) Option {
	return func(e *Exporter) { e.workers = n }
}

// WithCompressor registers a compression post-processor under name,
// replacing any previous one.
func WithCompressor(name string, c Compressor) Option {
	return func(e *Exporter) { e.compressors[name] = c }
}

// WithIDGenerator sets the source of buffer and prim identifiers.
func WithIDGenerator(fn func() string) Option {
	return func(e *Exporter) { e.newID = fn }
}

// New returns an Exporter using sdfx marching cubes and the default
// compressors.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		logger:    log.Default(),
		extractor: sdfx.New(),
		workers:   runtime.NumCPU(),
		compressors: map[string]Compressor{
			CompressionDraco:         Draco("node", "gltf-pipeline"),
			CompressionMeshoptimizer: Meshoptimizer("gltfpack"),
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	return e
}

// Export writes the layers of job to job.Path.
func (e *Exporter) Export(ctx context.Context, job Job) (Result, error) {
	format, err := FormatFromPath(job.Path)
	if err != nil {
		return Result{}, err
	}
	if len(job.Layers) == 0 {
		return Result{}, ErrNoLayers
	}
	if err := job.Viewer.Validate(); err != nil {
		return Result{}, err
	}
	var compressor Compressor
	if job.Compression != "" {
		c, ok := e.compressors[job.Compression]
		if !ok {
			return Result{}, fmt.Errorf("unknown compression %q", job.Compression)
		}
		compressor = c
	}

	s := e.newSession(ctx, job.Viewer, format)
	if err := s.run(job.Layers); err != nil {
		return Result{}, err
	}
	if err := s.write(job.Path); err != nil {
		return Result{}, err
	}

	res := Result{Path: job.Path, Format: format, Skipped: s.skipped}
	if compressor != nil {
		if !format.Compressible() {
			e.logger.Printf("export: %s output is not compressed", format)
		} else if err := compressor.Compress(ctx, job.Path); err != nil {
			e.logger.Printf("export: compress %s: %v", job.Path, err)
			res.CompressionErr = err
		}
	}
	return res, nil
}

// session holds the state of one export: the builder for the output
// family and the skips recorded so far. Adapters run one at a time
// against it.
type session struct {
	ctx       context.Context
	viewer    layer.ViewerState
	format    Format
	logger    *log.Logger
	extractor kernel.Extractor
	workers   int
	newID     func() string

	gltf      *gltf.Builder
	usd       *usd.Builder
	stl       *stl.Builder
	materials map[kernel.Material]int

	skipped []Skip
}

func (e *Exporter) newSession(ctx context.Context, v layer.ViewerState, format Format) *session {
	s := &session{
		ctx:       ctx,
		viewer:    v,
		format:    format,
		logger:    e.logger,
		extractor: e.extractor,
		workers:   e.workers,
		newID:     e.newID,
	}
	switch format {
	case FormatGLTF, FormatGLB:
		s.gltf = gltf.NewBuilder(gltf.WithIDGenerator(e.newID))
		s.materials = make(map[kernel.Material]int)
	case FormatSTL:
		s.stl = stl.NewBuilder(usd.WithIDGenerator(e.newID))
		s.usd = s.stl.Builder
	default:
		s.usd = usd.NewBuilder(usd.WithIDGenerator(e.newID))
	}
	return s
}

// run dispatches every layer to its adapter. Layers whose exporter
// consumes several layers at once are gathered and run after the others,
// in the order their first layer appeared.
func (s *session) run(layers []LayerExport) error {
	family := s.format.Family()
	var batches []key
	batched := make(map[key][]LayerExport)
	for _, le := range layers {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		k := key{kind: le.Layer.Kind(), method: le.Method, family: family}
		ent, ok := lookup(k)
		if !ok || !ent.supports(s.format) {
			s.skip(le.Layer.Label(), fmt.Errorf("%w: %s layer with method %q for %s output", ErrUnsupportedLayer, k.kind, le.Method, s.format))
			continue
		}
		if ent.multiple {
			if _, seen := batched[k]; !seen {
				batches = append(batches, k)
			}
			batched[k] = append(batched[k], le)
			continue
		}
		if err := s.apply(ent, []LayerExport{le}); err != nil {
			return err
		}
	}
	for _, k := range batches {
		ent, _ := lookup(k)
		if err := s.apply(ent, batched[k]); err != nil {
			return err
		}
	}
	return nil
}

// apply runs one adapter. Cancellation aborts the export; any other
// adapter error skips the layers it was given.
func (s *session) apply(ent entry, layers []LayerExport) error {
	err := ent.fn(s, layers)
	if err == nil {
		return nil
	}
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	for _, le := range layers {
		s.skip(le.Layer.Label(), err)
	}
	return nil
}

func (s *session) skip(label string, err error) {
	s.logger.Printf("export: skipping %s: %v", label, err)
	s.skipped = append(s.skipped, Skip{Layer: label, Err: err})
}

// material returns the binary-builder material for m, adding it on first
// use.
func (s *session) material(m kernel.Material) int {
	if idx, ok := s.materials[m]; ok {
		return idx
	}
	idx := s.gltf.AddMaterial(m)
	s.materials[m] = idx
	return idx
}

func (s *session) write(path string) error {
	switch {
	case s.gltf != nil:
		return s.gltf.BuildAndExport(path)
	case s.stl != nil:
		return s.stl.Export(path)
	default:
		return s.usd.Export(path)
	}
}
