package mesh

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/macsen-huw/meshbake/pkg/math"
)

// createQuadMesh builds an indexed unit quad in the XY plane with normals
// along +Z. UVs are produced from positions by the given mapping.
func createQuadMesh(uv func(math.Vec3) math.Vec2) *IndexedMesh {
	m := &IndexedMesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 0, Y: 1, Z: 0},
			{X: 1, Y: 1, Z: 0},
		},
		Indices: []uint32{0, 1, 2, 1, 3, 2},
	}
	for _, p := range m.Positions {
		m.Texcoords = append(m.Texcoords, uv(p))
		m.Normals = append(m.Normals, math.Vec3{X: 0, Y: 0, Z: 1})
	}
	return m
}

func TestTangentsPlanarQuad(t *testing.T) {
	m := createQuadMesh(func(p math.Vec3) math.Vec2 {
		return math.Vec2{X: p.X, Y: p.Y}
	})

	tangents := Tangents(m)
	if len(tangents) != m.VertexCount() {
		t.Fatalf("expected %d tangents, got %d", m.VertexCount(), len(tangents))
	}

	for i, tan := range tangents {
		if math32.Abs(tan.X-1) > 1e-5 || math32.Abs(tan.Y) > 1e-5 || math32.Abs(tan.Z) > 1e-5 {
			t.Errorf("tangent %d = %v, want ~(1,0,0)", i, tan)
		}
		if tan.W != 1 {
			t.Errorf("tangent %d handedness = %v, want +1", i, tan.W)
		}
	}
}

func TestTangentsMirroredUV(t *testing.T) {
	m := createQuadMesh(func(p math.Vec3) math.Vec2 {
		return math.Vec2{X: -p.X, Y: p.Y}
	})

	for i, tan := range Tangents(m) {
		if math32.Abs(tan.X+1) > 1e-5 {
			t.Errorf("tangent %d = %v, want ~(-1,0,0)", i, tan)
		}
		if tan.W != -1 {
			t.Errorf("tangent %d handedness = %v, want -1 for mirrored UVs", i, tan.W)
		}
	}
}

func TestTangentsOrthogonalToNormal(t *testing.T) {
	// Skewed UV mapping: the raw tangent is not perpendicular to the
	// normal's plane axes, orthogonalization must fix the frame up.
	m := createQuadMesh(func(p math.Vec3) math.Vec2 {
		return math.Vec2{X: p.X + 0.3*p.Y, Y: p.Y}
	})

	for i, tan := range Tangents(m) {
		n := m.Normals[i]
		dot := tan.Vec3().Dot(n)
		if math32.Abs(dot) > 1e-5 {
			t.Errorf("tangent %d not orthogonal to normal: dot = %v", i, dot)
		}
		l := tan.Vec3().Length()
		if math32.Abs(l-1) > 1e-4 {
			t.Errorf("tangent %d length = %v, want ~1", i, l)
		}
	}
}

func TestTangentsDegenerateUV(t *testing.T) {
	// All corners share one UV: zero UV area everywhere. The triangles
	// must contribute nothing instead of producing NaNs.
	m := createQuadMesh(func(math.Vec3) math.Vec2 {
		return math.Vec2{X: 0.5, Y: 0.5}
	})

	for i, tan := range Tangents(m) {
		if tan.X != 0 || tan.Y != 0 || tan.Z != 0 {
			t.Errorf("tangent %d = %v, want zero vector for degenerate UVs", i, tan)
		}
		if tan.W != 1 {
			t.Errorf("tangent %d handedness = %v, want default +1", i, tan.W)
		}
		if tan.X != tan.X || tan.Y != tan.Y {
			t.Errorf("tangent %d contains NaN", i)
		}
	}
}

func TestTangentsCountMatchesVertices(t *testing.T) {
	m := createQuadMesh(func(p math.Vec3) math.Vec2 {
		return math.Vec2{X: p.X, Y: p.Y}
	})

	tangents := Tangents(m)
	if len(tangents) != len(m.Positions) {
		t.Errorf("tangent count %d != vertex count %d", len(tangents), len(m.Positions))
	}
}
