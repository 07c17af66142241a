package gltf

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/arexport/pkg/codec"
	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

// addTriangle adds one buffer holding a triangle and returns the mesh index.
func addTriangle(b *Builder, offset v3.Vec) int {
	points := []v3.Vec{offset, offset.Add(v3.Vec{X: 1}), offset.Add(v3.Vec{Y: 1})}
	tris := []kernel.Triangle{{0, 1, 2}}

	data := codec.AppendPoints(nil, points)
	pointsLen := len(data)
	data = codec.AppendTriangles(data, tris)
	name := b.NewBufferName()

	buffer := b.BufferCount()
	pv := b.AddBufferView(buffer, 0, pointsLen, TargetArrayBuffer)
	iv := b.AddBufferView(buffer, pointsLen, len(data)-pointsLen, TargetElementArrayBuffer)
	var ext codec.Extrema
	ext.Add(points)
	min, max := ext.Slices()
	pa := b.AddAccessor(AccessorSpec{BufferView: pv, ComponentType: ComponentFloat, Count: 3, Type: TypeVec3, Min: min, Max: max})
	ia := b.AddAccessor(AccessorSpec{BufferView: iv, ComponentType: ComponentUnsignedInt, Count: 3, Type: TypeScalar, Min: []float64{0}, Max: []float64{2}})
	mat := b.AddMaterial(kernel.Material{Color: kernel.Color{R: 255}, Opacity: 0.5})
	mesh := b.AddMesh(TrianglePrimitive(pa, ia, mat))
	b.AddBuffer(len(data), name)
	b.AddFileResource(name, data)
	return mesh
}

func TestBuilderCountsAndIndices(t *testing.T) {
	b := NewBuilder(WithIDGenerator(sequentialIDs()))
	first := addTriangle(b, v3.Vec{})
	second := addTriangle(b, v3.Vec{Z: 1})

	if first != 0 || second != 1 {
		t.Fatalf("mesh indices = %d, %d; want 0, 1", first, second)
	}
	counts := map[string][2]int{
		"buffers":   {b.BufferCount(), 2},
		"views":     {b.BufferViewCount(), 4},
		"accessors": {b.AccessorCount(), 4},
		"materials": {b.MaterialCount(), 2},
		"meshes":    {b.MeshCount(), 2},
		"files":     {b.FileResourceCount(), 2},
	}
	for name, c := range counts {
		if c[0] != c[1] {
			t.Errorf("%s count = %d, want %d", name, c[0], c[1])
		}
	}
	if got := b.FileResources()[1].Name; got != "buffer_id2.bin" {
		t.Errorf("second buffer name = %q, want buffer_id2.bin", got)
	}
}

func TestBuildCreatesNodePerMesh(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < 3; i++ {
		addTriangle(b, v3.Vec{X: float64(i)})
	}
	doc := b.Build()

	if len(doc.Nodes) != 3 || len(doc.Scenes) != 1 || len(doc.Scenes[0].Nodes) != 3 {
		t.Fatalf("got %d nodes, %d scenes", len(doc.Nodes), len(doc.Scenes))
	}
	for i, n := range doc.Nodes {
		if n.Mesh == nil || *n.Mesh != i {
			t.Errorf("node %d mesh = %v", i, n.Mesh)
		}
	}
	if doc.Scene == nil || *doc.Scene != 0 {
		t.Errorf("default scene = %v", doc.Scene)
	}
	if doc.Asset.Version != "2.0" || doc.Asset.Generator != Generator {
		t.Errorf("asset version = %q", doc.Asset.Version)
	}

	m := doc.Materials[0].PBRMetallicRoughness
	if *m.BaseColorFactor != [4]float64{1, 0, 0, 0.5} || *m.RoughnessFactor != 1 || *m.MetallicFactor != 0 {
		t.Errorf("material = %v %v %v", *m.BaseColorFactor, *m.RoughnessFactor, *m.MetallicFactor)
	}
}

func expectPanic(t *testing.T, substr string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", substr)
		}
		if !strings.Contains(fmt.Sprint(r), substr) {
			t.Fatalf("panic %q does not contain %q", r, substr)
		}
	}()
	fn()
}

func TestBuilderOrderingViolationsPanic(t *testing.T) {
	t.Run("accessor before view", func(t *testing.T) {
		b := NewBuilder()
		expectPanic(t, "buffer view 0 of 0", func() {
			b.AddAccessor(AccessorSpec{BufferView: 0, ComponentType: ComponentFloat, Count: 1, Type: TypeVec3})
		})
	})
	t.Run("mesh before accessor", func(t *testing.T) {
		b := NewBuilder()
		expectPanic(t, "accessor 0 of 0", func() {
			b.AddMesh(TrianglePrimitive(0, 0, 0))
		})
	})
	t.Run("mesh before material", func(t *testing.T) {
		b := NewBuilder()
		v := b.AddBufferView(0, 0, 12, TargetArrayBuffer)
		a := b.AddAccessor(AccessorSpec{BufferView: v, ComponentType: ComponentFloat, Count: 1, Type: TypeVec3})
		expectPanic(t, "material 0 of 0", func() {
			b.AddMesh(TrianglePrimitive(a, a, 0))
		})
	})
	t.Run("accessor overruns view", func(t *testing.T) {
		b := NewBuilder()
		v := b.AddBufferView(0, 0, 12, TargetArrayBuffer)
		expectPanic(t, "spans 24 bytes", func() {
			b.AddAccessor(AccessorSpec{BufferView: v, ComponentType: ComponentFloat, Count: 2, Type: TypeVec3})
		})
	})
	t.Run("view without buffer at build", func(t *testing.T) {
		b := NewBuilder()
		b.AddBufferView(0, 0, 12, TargetArrayBuffer)
		expectPanic(t, "references buffer 0 of 0", func() { b.Build() })
	})
	t.Run("unaligned view", func(t *testing.T) {
		b := NewBuilder()
		expectPanic(t, "not 4-byte aligned", func() { b.AddBufferView(0, 2, 12, TargetArrayBuffer) })
	})
}

func TestExportGLTFWritesResources(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(WithIDGenerator(sequentialIDs()))
	addTriangle(b, v3.Vec{})
	addTriangle(b, v3.Vec{X: 2})

	path := filepath.Join(dir, "scene.gltf")
	if err := b.BuildAndExport(path); err != nil {
		t.Fatalf("BuildAndExport: %v", err)
	}
	asset, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(asset.Buffers) != 2 || asset.Document.Buffers[1].URI != "buffer_id2.bin" {
		t.Fatalf("buffers = %+v", asset.Document.Buffers)
	}
	points, err := codec.UnpackPoints(asset.AccessorData(2))
	if err != nil {
		t.Fatal(err)
	}
	if points[1] != (v3.Vec{X: 3}) {
		t.Errorf("second mesh point 1 = %v, want (3,0,0)", points[1])
	}
}

func TestExportGLBMergesBuffers(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder()
	addTriangle(b, v3.Vec{})
	addTriangle(b, v3.Vec{Y: 5})

	path := filepath.Join(dir, "scene.glb")
	if err := b.BuildAndExport(path); err != nil {
		t.Fatalf("BuildAndExport: %v", err)
	}
	asset, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc := asset.Document
	if len(doc.Buffers) != 1 || doc.Buffers[0].URI != "" {
		t.Fatalf("GLB should hold one embedded buffer, got %+v", doc.Buffers)
	}
	// Each source buffer is 36 + 12 bytes; the second starts at 48.
	if doc.BufferViews[2].ByteOffset != 48 || doc.BufferViews[3].ByteOffset != 84 {
		t.Errorf("rebased offsets = %d, %d; want 48, 84", doc.BufferViews[2].ByteOffset, doc.BufferViews[3].ByteOffset)
	}
	for _, v := range doc.BufferViews {
		if v.ByteOffset%4 != 0 || v.Buffer != 0 {
			t.Errorf("view %+v not rebased onto aligned buffer 0", v)
		}
	}
	tris, err := codec.UnpackTriangles(asset.AccessorData(3))
	if err != nil {
		t.Fatal(err)
	}
	if tris[0] != (kernel.Triangle{0, 1, 2}) {
		t.Errorf("triangle = %v", tris[0])
	}
	points, _ := codec.UnpackPoints(asset.AccessorData(2))
	if points[0] != (v3.Vec{Y: 5}) {
		t.Errorf("second mesh first point = %v", points[0])
	}
}

func TestExportGLBContainer(t *testing.T) {
	b := NewBuilder()
	addTriangle(b, v3.Vec{})

	path := filepath.Join(t.TempDir(), "scene.glb")
	if err := b.BuildAndExport(path); err != nil {
		t.Fatalf("BuildAndExport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("glTF")) {
		t.Errorf("header = %q, want glTF magic", data[:4])
	}
	if len(data)%4 != 0 {
		t.Errorf("GLB length %d is not 4-byte aligned", len(data))
	}
}

func TestExportMissingResource(t *testing.T) {
	for _, ext := range []string{"gltf", "glb"} {
		t.Run(ext, func(t *testing.T) {
			b := NewBuilder()
			b.AddBuffer(12, "absent.bin")
			err := b.BuildAndExport(filepath.Join(t.TempDir(), "scene."+ext))
			if err == nil || !strings.Contains(err.Error(), "no file resource") {
				t.Errorf("BuildAndExport() error = %v, want missing resource", err)
			}
		})
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.glb")
	if err := os.WriteFile(garbage, []byte("not a glb file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(garbage); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("garbage: error = %v, want ErrInvalidDocument", err)
	}
	if _, err := ReadFile(filepath.Join(dir, "missing.gltf")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing: error = %v, want not exist", err)
	}
}

func TestBuildAndExportRejectsExtension(t *testing.T) {
	b := NewBuilder()
	if err := b.BuildAndExport(filepath.Join(t.TempDir(), "x.obj")); err == nil {
		t.Error("BuildAndExport accepted .obj")
	}
}
