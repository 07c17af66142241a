package usd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/arexport/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// WriteUSDA serializes the stage as USD ASCII text.
func WriteUSDA(w io.Writer, s *Stage) error {
	bw := bufio.NewWriter(w)
	uw := &usdaWriter{w: bw, s: s}

	uw.line(0, "#usda 1.0")
	uw.line(0, "(")
	uw.line(1, fmt.Sprintf("defaultPrim = %q", s.DefaultPrim.Name()))
	uw.line(1, "metersPerUnit = "+formatDouble(s.MetersPerUnit))
	uw.line(1, fmt.Sprintf("upAxis = %q", s.UpAxis))
	uw.line(0, ")")

	for _, r := range s.Roots {
		if p := s.Get(r); p != nil {
			uw.blank()
			uw.prim(0, p)
		}
	}
	if uw.err != nil {
		return uw.err
	}
	return bw.Flush()
}

type usdaWriter struct {
	w   *bufio.Writer
	s   *Stage
	err error
}

func (uw *usdaWriter) line(depth int, text string) {
	if uw.err != nil {
		return
	}
	_, uw.err = fmt.Fprintf(uw.w, "%s%s\n", strings.Repeat("    ", depth), text)
}

func (uw *usdaWriter) blank() {
	uw.line(0, "")
}

func (uw *usdaWriter) prim(depth int, p *Prim) {
	var meta []string
	if p.Material != "" {
		meta = append(meta, `prepend apiSchemas = ["MaterialBindingAPI"]`)
	}
	if p.Reference != "" {
		meta = append(meta, fmt.Sprintf("prepend references = <%s>", p.Reference))
	}

	header := fmt.Sprintf("def %s %q", p.Kind, p.Path.Name())
	if len(meta) == 0 {
		uw.line(depth, header)
	} else {
		uw.line(depth, header+" (")
		for _, m := range meta {
			uw.line(depth+1, m)
		}
		uw.line(depth, ")")
	}
	uw.line(depth, "{")
	uw.attributes(depth+1, p)
	for i, c := range uw.s.Children(p) {
		if i > 0 || hasAttributes(p) {
			uw.blank()
		}
		uw.prim(depth+1, c)
	}
	uw.line(depth, "}")
}

func hasAttributes(p *Prim) bool {
	return p.Translate != nil || p.Material != "" || p.Mesh != nil || p.Points != nil ||
		p.Shader != nil || p.Light != nil || p.Kind == PrimMaterial
}

func (uw *usdaWriter) attributes(depth int, p *Prim) {
	if p.Mesh != nil {
		writeMesh(uw, depth, p.Mesh)
	}
	if p.Points != nil {
		writePoints(uw, depth, p.Points)
	}
	if p.Material != "" {
		uw.line(depth, fmt.Sprintf("rel material:binding = <%s>", p.Material))
	}
	if p.Translate != nil {
		uw.line(depth, "double3 xformOp:translate = "+formatVec(*p.Translate, formatDouble))
		uw.line(depth, `uniform token[] xformOpOrder = ["xformOp:translate"]`)
	}
	if p.Kind == PrimMaterial {
		uw.line(depth, fmt.Sprintf("token outputs:surface.connect = <%s.outputs:surface>", p.Path.Child(shaderName)))
	}
	if sh := p.Shader; sh != nil {
		uw.line(depth, `uniform token info:id = "UsdPreviewSurface"`)
		uw.line(depth, fmt.Sprintf("color3f inputs:diffuseColor = (%s, %s, %s)",
			formatFloat(sh.DiffuseColor[0]), formatFloat(sh.DiffuseColor[1]), formatFloat(sh.DiffuseColor[2])))
		uw.line(depth, "float inputs:metallic = "+formatFloat(sh.Metallic))
		uw.line(depth, "float inputs:opacity = "+formatFloat(sh.Opacity))
		uw.line(depth, "float inputs:roughness = "+formatFloat(sh.Roughness))
		uw.line(depth, "token outputs:surface")
	}
	if l := p.Light; l != nil {
		uw.line(depth, "float inputs:height = "+formatFloat(l.Height))
		uw.line(depth, "float inputs:intensity = "+formatFloat(l.Intensity))
		uw.line(depth, "float inputs:width = "+formatFloat(l.Width))
	}
}

func writeMesh(uw *usdaWriter, depth int, m *kernel.Mesh) {
	counts := make([]string, len(m.Triangles))
	indices := make([]string, 0, 3*len(m.Triangles))
	for i, t := range m.Triangles {
		counts[i] = "3"
		for _, idx := range t {
			indices = append(indices, strconv.FormatUint(uint64(idx), 10))
		}
	}
	points := make([]string, len(m.Points))
	for i, p := range m.Points {
		points[i] = formatVec(p, formatFloat)
	}
	min, max := m.Bounds()

	uw.line(depth, fmt.Sprintf("float3[] extent = [%s, %s]", formatVec(min, formatFloat), formatVec(max, formatFloat)))
	uw.line(depth, "int[] faceVertexCounts = ["+strings.Join(counts, ", ")+"]")
	uw.line(depth, "int[] faceVertexIndices = ["+strings.Join(indices, ", ")+"]")
	uw.line(depth, "point3f[] points = ["+strings.Join(points, ", ")+"]")
	uw.line(depth, `uniform token subdivisionScheme = "none"`)
}

func writePoints(uw *usdaWriter, depth int, d *PointsData) {
	points := make([]string, len(d.Points))
	for i, p := range d.Points {
		points[i] = formatVec(p, formatFloat)
	}
	if len(d.Points) > 0 {
		min, max := (&kernel.Mesh{Points: d.Points}).Bounds()
		uw.line(depth, fmt.Sprintf("float3[] extent = [%s, %s]", formatVec(min, formatFloat), formatVec(max, formatFloat)))
	}
	uw.line(depth, "point3f[] points = ["+strings.Join(points, ", ")+"]")
	if len(d.Colors) > 0 {
		colors := make([]string, len(d.Colors))
		for i, c := range d.Colors {
			colors[i] = "(" + formatFloat(c[0]) + ", " + formatFloat(c[1]) + ", " + formatFloat(c[2]) + ")"
		}
		uw.line(depth, "color3f[] primvars:displayColor = ["+strings.Join(colors, ", ")+"] (")
		uw.line(depth+1, `interpolation = "vertex"`)
		uw.line(depth, ")")
	}
	widths := make([]string, len(d.Widths))
	for i, w := range d.Widths {
		widths[i] = formatFloat(w)
	}
	uw.line(depth, "float[] widths = ["+strings.Join(widths, ", ")+"] (")
	uw.line(depth+1, `interpolation = "vertex"`)
	uw.line(depth, ")")
}

func formatVec(v v3.Vec, f func(float64) string) string {
	return "(" + f(v.X) + ", " + f(v.Y) + ", " + f(v.Z) + ")"
}

// formatFloat prints single precision values, the precision of float and
// point3f attributes.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 32)
}

func formatDouble(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
