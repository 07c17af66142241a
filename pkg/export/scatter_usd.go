package export

import (
	"github.com/chazu/arexport/pkg/kernel"
	"github.com/chazu/arexport/pkg/layer"
	"github.com/chazu/arexport/pkg/shapes"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	usdArrowResolution    = 10
	usdErrorBarResolution = 6
)

// scatterUSD draws each point as a glyph prim. Fixed-size layers store the
// glyph once and place every other point as a translated reference to it;
// per-point sizes need one mesh per point.
func scatterUSD(s *session, layers []LayerExport) error {
	le := layers[0]
	p, err := prepareScatter(s.viewer, le.Layer)
	if err != nil {
		return err
	}
	g, err := glyphFor(le.Layer, le.Options)
	if err != nil {
		return err
	}

	if p.fixedSize {
		first := p.points[0]
		h := s.usd.AddMesh(g.mesh(first.pos, first.radius), first.material, p.label)
		for _, pt := range p.points[1:] {
			var m *kernel.Material
			if pt.material != first.material {
				m = &pt.material
			}
			s.usd.AddTranslatedReference(h, pt.pos.Sub(first.pos), m)
		}
	} else {
		for _, pt := range p.points {
			s.usd.AddMesh(g.mesh(pt.pos, pt.radius), pt.material, p.label)
		}
	}

	shaft := p.radius / 8
	for a := layer.AxisX; a <= layer.AxisZ; a++ {
		if p.errors[a] == nil {
			continue
		}
		axis := offsetAlong(layer.ExportAxis(a), 1)
		id := p.label + "_" + a.String() + "err"
		for i, e := range p.errors[a] {
			if e <= 0 {
				continue
			}
			bar, err := shapes.Cylinder(p.points[i].pos, shaft, 2*e, axis, usdErrorBarResolution)
			if err != nil {
				return err
			}
			s.usd.AddMesh(bar, p.points[i].material, id)
		}
	}

	if p.vectors != nil {
		tipHeight := p.radius / 2
		sz := arrowSizes{shaft: shaft, tipRadius: tipHeight / 2, tipHeight: tipHeight, resolution: usdArrowResolution}
		id := p.label + "_vectors"
		for i, v := range p.vectors {
			a, err := makeArrow(p.points[i].pos, v, p.arrows, sz)
			if err != nil {
				continue
			}
			s.usd.AddMesh(a.shaft, p.points[i].material, id)
			if a.tip != nil {
				s.usd.AddMesh(a.tip, p.points[i].material, id)
			}
		}
	}
	return nil
}

// pointsUSD writes the layer as one point cloud prim with a display color
// per point.
func pointsUSD(s *session, layers []LayerExport) error {
	p, err := prepareScatter(s.viewer, layers[0].Layer)
	if err != nil {
		return err
	}
	pts := make([]v3.Vec, len(p.points))
	colors := make([]kernel.Color, len(p.points))
	for i, pt := range p.points {
		pts[i] = pt.pos
		colors[i] = pt.material.Color
	}
	s.usd.AddPoints(pts, colors, nil, p.label)
	return nil
}
