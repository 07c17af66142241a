package usd

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStage is returned by Export when Validate reports errors.
var ErrInvalidStage = errors.New("invalid stage")

// ValidationError describes a single structural problem.
type ValidationError struct {
	Path    Path // prim with the problem, empty for stage-level findings
	Message string
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("prim %s: %s", e.Path, e.Message)
}

// Validate checks the stage structure and returns every finding. An empty
// slice means the stage can be written. It never mutates the stage.
func Validate(s *Stage) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRoots(s)...)
	errs = append(errs, validateNames(s)...)
	errs = append(errs, validateReferences(s)...)
	errs = append(errs, validateReferenceCycles(s)...)
	errs = append(errs, validateGeometry(s)...)
	return errs
}

// validationErr joins findings into one error wrapping ErrInvalidStage.
func validationErr(errs []ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalidStage, strings.Join(msgs, "; "))
}

// validateRoots checks the default prim and that every root exists.
func validateRoots(s *Stage) []ValidationError {
	var errs []ValidationError
	if s.DefaultPrim == "" || s.Prims[s.DefaultPrim] == nil {
		errs = append(errs, ValidationError{Message: fmt.Sprintf("default prim %q does not exist", s.DefaultPrim)})
	} else if s.DefaultPrim.Parent() != "/" {
		errs = append(errs, ValidationError{Path: s.DefaultPrim, Message: "default prim must be a root prim"})
	}
	for _, r := range s.Roots {
		if s.Prims[r] == nil {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("root %s does not exist", r)})
		}
	}
	return errs
}

// validateNames checks that every prim name is a valid identifier.
func validateNames(s *Stage) []ValidationError {
	var errs []ValidationError
	for path := range s.Prims {
		if name := path.Name(); !IsIdentifier(name) {
			errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf("invalid prim name %q", name)})
		}
	}
	return errs
}

// validateReferences checks children, references and material bindings.
func validateReferences(s *Stage) []ValidationError {
	var errs []ValidationError
	for _, p := range s.Prims {
		for _, c := range p.Children {
			if s.Prims[c] == nil {
				errs = append(errs, ValidationError{Path: p.Path, Message: fmt.Sprintf("child %s does not exist", c)})
			}
		}
		if p.Reference != "" {
			target := s.Prims[p.Reference]
			switch {
			case target == nil:
				errs = append(errs, ValidationError{Path: p.Path, Message: fmt.Sprintf("reference %s does not exist", p.Reference)})
			case target.Kind != p.Kind:
				errs = append(errs, ValidationError{Path: p.Path, Message: fmt.Sprintf("%s prim references %s prim %s", p.Kind, target.Kind, p.Reference)})
			}
		}
		if p.Material != "" {
			m := s.Prims[p.Material]
			if m == nil || m.Kind != PrimMaterial {
				errs = append(errs, ValidationError{Path: p.Path, Message: fmt.Sprintf("material binding %s is not a material", p.Material)})
			}
		}
	}
	return errs
}

// validateReferenceCycles walks reference chains with three-color marking.
func validateReferenceCycles(s *Stage) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	color := make(map[Path]int)
	var errs []ValidationError

	var visit func(p Path) bool
	visit = func(p Path) bool {
		switch color[p] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{Path: p, Message: "reference cycle"})
			return true
		}
		color[p] = gray
		if prim := s.Prims[p]; prim != nil && prim.Reference != "" {
			if visit(prim.Reference) {
				return true
			}
		}
		color[p] = black
		return false
	}

	for p := range s.Prims {
		if color[p] == white && visit(p) {
			break
		}
	}
	return errs
}

// validateGeometry checks that every mesh prim carries valid geometry or a
// reference to it, and that point clouds have one width per point.
func validateGeometry(s *Stage) []ValidationError {
	var errs []ValidationError
	for _, p := range s.Prims {
		if p.Kind == PrimPoints {
			if msg := checkPoints(p.Points); msg != "" {
				errs = append(errs, ValidationError{Path: p.Path, Message: msg})
			}
			continue
		}
		if p.Kind != PrimMesh {
			continue
		}
		if p.Mesh == nil {
			if p.Reference == "" {
				errs = append(errs, ValidationError{Path: p.Path, Message: "mesh has neither geometry nor a reference"})
			}
			continue
		}
		if err := p.Mesh.Validate(); err != nil {
			errs = append(errs, ValidationError{Path: p.Path, Message: err.Error()})
		}
	}
	return errs
}

func checkPoints(d *PointsData) string {
	switch {
	case d == nil:
		return "points prim has no data"
	case len(d.Widths) != len(d.Points):
		return fmt.Sprintf("%d widths for %d points", len(d.Widths), len(d.Points))
	case d.Colors != nil && len(d.Colors) != len(d.Points):
		return fmt.Sprintf("%d colors for %d points", len(d.Colors), len(d.Points))
	}
	return ""
}

// IsIdentifier reports whether name is a valid prim name.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Sanitize maps an arbitrary label to a valid identifier by replacing every
// other character with an underscore.
func Sanitize(label string) string {
	var b strings.Builder
	for i, c := range label {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			b.WriteRune(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
