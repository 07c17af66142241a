// Package tessellate walks a USD stage and produces world-space triangle
// meshes, resolving internal references and accumulating translate ops.
// One mesh is produced per mesh prim.
package tessellate

import (
	"fmt"

	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/usd"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// transformStack accumulates translations during traversal.
type transformStack struct {
	translations []v3.Vec
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(v v3.Vec) {
	ts.translations = append(ts.translations, v)
}

func (ts *transformStack) pop() {
	if len(ts.translations) > 0 {
		ts.translations = ts.translations[:len(ts.translations)-1]
	}
}

// accumulated returns the sum of all translations on the stack.
func (ts *transformStack) accumulated() v3.Vec {
	var sum v3.Vec
	for _, t := range ts.translations {
		sum = sum.Add(t)
	}
	return sum
}

// Flatten returns one mesh per mesh prim with every enclosing translation
// applied. Referencing prims get a translated copy of their target's
// geometry. Each mesh is named after its prim path. The stage is not
// modified.
func Flatten(s *usd.Stage) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	ts := newTransformStack()
	for _, root := range s.Roots {
		p := s.Get(root)
		if p == nil {
			continue
		}
		collected, err := walkPrim(s, p, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", root, err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// walkPrim recursively collects meshes under p.
func walkPrim(s *usd.Stage, p *usd.Prim, ts *transformStack) ([]*kernel.Mesh, error) {
	switch p.Kind {
	case usd.PrimMaterial, usd.PrimShader, usd.PrimLight, usd.PrimPoints:
		return nil, nil
	}

	pushed := p.Translate != nil
	if pushed {
		ts.push(*p.Translate)
		defer ts.pop()
	}

	var meshes []*kernel.Mesh
	if p.Kind == usd.PrimMesh {
		m, err := handleMesh(s, p, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	for _, child := range s.Children(p) {
		collected, err := walkPrim(s, child, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// handleMesh resolves the prim's geometry and moves it into world space.
func handleMesh(s *usd.Stage, p *usd.Prim, ts *transformStack) (*kernel.Mesh, error) {
	geom, err := s.ResolveMesh(p)
	if err != nil {
		return nil, err
	}
	m := geom.Translated(ts.accumulated())
	m.Name = string(p.Path)
	return m, nil
}
