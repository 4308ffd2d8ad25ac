// Package mesh converts triangle soups into indexed meshes and derives
// per-vertex tangent spaces for normal mapping.
package mesh

import (
	"errors"
	"fmt"

	"github.com/macsen-huw/meshbake/pkg/math"
)

// Soup errors.
var (
	ErrMalformedSoup = errors.New("malformed triangle soup")
)

// TriangleSoup holds per-triangle vertex attributes with no sharing between
// triangles. The three slices run parallel, one entry per soup vertex,
// implicitly grouped in triangles of three.
type TriangleSoup struct {
	Positions []math.Vec3
	Texcoords []math.Vec2
	Normals   []math.Vec3
}

// Validate checks the soup precondition: equal attribute lengths and a
// vertex count that forms whole triangles.
func (s *TriangleSoup) Validate() error {
	if len(s.Texcoords) != len(s.Positions) || len(s.Normals) != len(s.Positions) {
		return fmt.Errorf("%w: attribute lengths %d/%d/%d differ",
			ErrMalformedSoup, len(s.Positions), len(s.Texcoords), len(s.Normals))
	}
	if len(s.Positions)%3 != 0 {
		return fmt.Errorf("%w: vertex count %d is not a multiple of 3",
			ErrMalformedSoup, len(s.Positions))
	}
	return nil
}

// IndexedMesh holds deduplicated vertex attributes plus a triangle-list
// index buffer referencing them. Every index is < len(Positions).
type IndexedMesh struct {
	Positions []math.Vec3
	Texcoords []math.Vec2
	Normals   []math.Vec3
	Indices   []uint32
}

// VertexCount returns the number of unique vertices.
func (m *IndexedMesh) VertexCount() int {
	return len(m.Positions)
}
