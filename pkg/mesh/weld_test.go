package mesh

import (
	"errors"
	"reflect"
	"testing"

	"github.com/macsen-huw/meshbake/pkg/math"
)

// createQuadSoup builds two triangles sharing an edge (B-C), with the
// shared corners bit-identical: A(0,0,0) B(1,0,0) C(0,1,0) D(1,1,0).
func createQuadSoup() *TriangleSoup {
	a := math.Vec3{X: 0, Y: 0, Z: 0}
	b := math.Vec3{X: 1, Y: 0, Z: 0}
	c := math.Vec3{X: 0, Y: 1, Z: 0}
	d := math.Vec3{X: 1, Y: 1, Z: 0}
	up := math.Vec3{X: 0, Y: 0, Z: 1}

	uv := func(p math.Vec3) math.Vec2 { return math.Vec2{X: p.X, Y: p.Y} }

	soup := &TriangleSoup{}
	for _, p := range []math.Vec3{a, b, c, b, d, c} {
		soup.Positions = append(soup.Positions, p)
		soup.Texcoords = append(soup.Texcoords, uv(p))
		soup.Normals = append(soup.Normals, up)
	}
	return soup
}

func TestWeldSharedEdge(t *testing.T) {
	soup := createQuadSoup()

	m, err := Weld(soup, 1e-5)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}

	if m.VertexCount() != 4 {
		t.Errorf("expected 4 unique vertices, got %d", m.VertexCount())
	}
	wantIndices := []uint32{0, 1, 2, 1, 3, 2}
	if !reflect.DeepEqual(m.Indices, wantIndices) {
		t.Errorf("expected indices %v, got %v", wantIndices, m.Indices)
	}
}

func TestWeldDeterminism(t *testing.T) {
	soup := createQuadSoup()

	first, err := Weld(soup, 1e-5)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}
	second, err := Weld(soup, 1e-5)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated welds of the same soup differ")
	}
}

func TestWeldToleranceMerges(t *testing.T) {
	soup := createQuadSoup()
	// Nudge the second occurrence of B (soup vertex 3) by less than tol.
	soup.Positions[3].X += 5e-6

	m, err := Weld(soup, 1e-5)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("expected nudged vertex to merge, got %d unique", m.VertexCount())
	}

	// The same nudge must not merge under a tighter tolerance.
	m, err = Weld(soup, 1e-7)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}
	if m.VertexCount() != 5 {
		t.Errorf("expected 5 unique vertices at tight tolerance, got %d", m.VertexCount())
	}
}

func TestWeldTexcoordSplits(t *testing.T) {
	soup := createQuadSoup()
	// Same position, different UV: a seam. Must stay two vertices.
	soup.Texcoords[3].X += 0.5

	m, err := Weld(soup, 1e-5)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}
	if m.VertexCount() != 5 {
		t.Errorf("expected UV seam to split vertices, got %d unique", m.VertexCount())
	}
}

func TestWeldZeroTolerance(t *testing.T) {
	soup := createQuadSoup()

	m, err := Weld(soup, 0)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("expected exact duplicates to merge at tol 0, got %d", m.VertexCount())
	}

	// Any bit difference keeps vertices apart at tol 0.
	soup.Positions[3].X += 1e-7
	m, err = Weld(soup, 0)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}
	if m.VertexCount() != 5 {
		t.Errorf("expected 5 unique vertices at tol 0, got %d", m.VertexCount())
	}
}

func TestWeldAllUniquePassthrough(t *testing.T) {
	soup := &TriangleSoup{}
	for i := 0; i < 9; i++ {
		f := float32(i)
		soup.Positions = append(soup.Positions, math.Vec3{X: f, Y: f * 2, Z: f * 3})
		soup.Texcoords = append(soup.Texcoords, math.Vec2{X: f, Y: -f})
		soup.Normals = append(soup.Normals, math.Vec3{X: 0, Y: 0, Z: 1})
	}

	m, err := Weld(soup, 0)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}
	if m.VertexCount() != 9 {
		t.Errorf("expected all 9 vertices to survive, got %d", m.VertexCount())
	}
	for i, idx := range m.Indices {
		if int(idx) != i {
			t.Fatalf("index %d = %d, want %d", i, idx, i)
		}
	}
}

func TestWeldReplayReconstructsSoup(t *testing.T) {
	soup := createQuadSoup()
	soup.Positions[3].X += 5e-6

	const tol = 1e-5
	m, err := Weld(soup, tol)
	if err != nil {
		t.Fatalf("Weld failed: %v", err)
	}

	if len(m.Indices) != len(soup.Positions) {
		t.Fatalf("expected %d indices, got %d", len(soup.Positions), len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= m.VertexCount() {
			t.Fatalf("index %d out of range: %d >= %d", i, idx, m.VertexCount())
		}
		if !withinTolerance(soup, i, m, idx, tol) {
			t.Errorf("replayed vertex %d differs from soup by more than tol", i)
		}
	}
}

func TestWeldMalformedSoup(t *testing.T) {
	soup := createQuadSoup()
	soup.Normals = soup.Normals[:len(soup.Normals)-1]

	if _, err := Weld(soup, 1e-5); !errors.Is(err, ErrMalformedSoup) {
		t.Errorf("expected ErrMalformedSoup, got %v", err)
	}

	soup = createQuadSoup()
	soup.Positions = soup.Positions[:4]
	soup.Texcoords = soup.Texcoords[:4]
	soup.Normals = soup.Normals[:4]

	if _, err := Weld(soup, 1e-5); !errors.Is(err, ErrMalformedSoup) {
		t.Errorf("expected ErrMalformedSoup for partial triangle, got %v", err)
	}
}
