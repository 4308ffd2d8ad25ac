package mesh

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/chewxy/math32"

	"github.com/macsen-huw/meshbake/pkg/math"
)

// Weld deduplicates the soup's vertices into an IndexedMesh. Two soup
// vertices merge when every component of position, texcoord and normal
// differs by at most tol. The representative of each equivalence class is
// the first soup vertex encountered in scan order, which makes the output
// deterministic for a fixed input ordering. Triangle winding is preserved.
//
// A tolerance of zero (or below) degenerates to exact bit-pattern matching.
func Weld(soup *TriangleSoup, tol float32) (*IndexedMesh, error) {
	if err := soup.Validate(); err != nil {
		return nil, err
	}

	if tol <= 0 {
		return weldExact(soup), nil
	}
	return weldTolerant(soup, tol), nil
}

// weldExact merges only bit-identical vertices, keyed by the hash of their
// raw float bits. Hash collisions are resolved by exact comparison.
func weldExact(soup *TriangleSoup) *IndexedMesh {
	out := &IndexedMesh{
		Indices: make([]uint32, 0, len(soup.Positions)),
	}
	buckets := make(map[uint64][]uint32)

	for i := range soup.Positions {
		key := bitKey(soup.Positions[i], soup.Texcoords[i], soup.Normals[i])

		found := false
		for _, cand := range buckets[key] {
			if out.Positions[cand] == soup.Positions[i] &&
				out.Texcoords[cand] == soup.Texcoords[i] &&
				out.Normals[cand] == soup.Normals[i] {
				out.Indices = append(out.Indices, cand)
				found = true
				break
			}
		}
		if !found {
			idx := uint32(len(out.Positions))
			out.Positions = append(out.Positions, soup.Positions[i])
			out.Texcoords = append(out.Texcoords, soup.Texcoords[i])
			out.Normals = append(out.Normals, soup.Normals[i])
			buckets[key] = append(buckets[key], idx)
			out.Indices = append(out.Indices, idx)
		}
	}

	return out
}

// weldTolerant merges vertices within tol using a spatial hash over
// tol-sized position cells. A vertex within tol of a representative can be
// at most one cell away on each axis, so only the 27 neighbouring cells are
// scanned, in a fixed order. Buckets hold output vertex indices in insertion
// order; the first candidate within tolerance wins.
func weldTolerant(soup *TriangleSoup, tol float32) *IndexedMesh {
	out := &IndexedMesh{
		Indices: make([]uint32, 0, len(soup.Positions)),
	}
	buckets := make(map[uint64][]uint32)

	for i := range soup.Positions {
		p := soup.Positions[i]
		cx := cellCoord(p.X, tol)
		cy := cellCoord(p.Y, tol)
		cz := cellCoord(p.Z, tol)

		match := int64(-1)
	scan:
		for dz := int64(-1); dz <= 1; dz++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dx := int64(-1); dx <= 1; dx++ {
					for _, cand := range buckets[cellKey(cx+dx, cy+dy, cz+dz)] {
						if withinTolerance(soup, i, out, cand, tol) {
							match = int64(cand)
							break scan
						}
					}
				}
			}
		}

		if match >= 0 {
			out.Indices = append(out.Indices, uint32(match))
			continue
		}

		idx := uint32(len(out.Positions))
		out.Positions = append(out.Positions, soup.Positions[i])
		out.Texcoords = append(out.Texcoords, soup.Texcoords[i])
		out.Normals = append(out.Normals, soup.Normals[i])
		home := cellKey(cx, cy, cz)
		buckets[home] = append(buckets[home], idx)
		out.Indices = append(out.Indices, idx)
	}

	return out
}

// withinTolerance compares soup vertex i against the representative of
// output vertex cand, componentwise across all eight attribute components.
func withinTolerance(soup *TriangleSoup, i int, out *IndexedMesh, cand uint32, tol float32) bool {
	return near(soup.Positions[i].X, out.Positions[cand].X, tol) &&
		near(soup.Positions[i].Y, out.Positions[cand].Y, tol) &&
		near(soup.Positions[i].Z, out.Positions[cand].Z, tol) &&
		near(soup.Texcoords[i].X, out.Texcoords[cand].X, tol) &&
		near(soup.Texcoords[i].Y, out.Texcoords[cand].Y, tol) &&
		near(soup.Normals[i].X, out.Normals[cand].X, tol) &&
		near(soup.Normals[i].Y, out.Normals[cand].Y, tol) &&
		near(soup.Normals[i].Z, out.Normals[cand].Z, tol)
}

func near(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}

func cellCoord(v, tol float32) int64 {
	return int64(math32.Floor(v / tol))
}

// cellKey hashes a 3D cell coordinate. Collisions only cost extra candidate
// checks; matches are always verified componentwise.
func cellKey(x, y, z int64) uint64 {
	var b [24]byte
	binary.LittleEndian.PutUint64(b[0:], uint64(x))
	binary.LittleEndian.PutUint64(b[8:], uint64(y))
	binary.LittleEndian.PutUint64(b[16:], uint64(z))
	return xxhash.Sum64(b[:])
}

// bitKey hashes the exact bit patterns of all vertex attributes.
func bitKey(p math.Vec3, t math.Vec2, n math.Vec3) uint64 {
	var b [32]byte
	binary.LittleEndian.PutUint32(b[0:], math32.Float32bits(p.X))
	binary.LittleEndian.PutUint32(b[4:], math32.Float32bits(p.Y))
	binary.LittleEndian.PutUint32(b[8:], math32.Float32bits(p.Z))
	binary.LittleEndian.PutUint32(b[12:], math32.Float32bits(t.X))
	binary.LittleEndian.PutUint32(b[16:], math32.Float32bits(t.Y))
	binary.LittleEndian.PutUint32(b[20:], math32.Float32bits(n.X))
	binary.LittleEndian.PutUint32(b[24:], math32.Float32bits(n.Y))
	binary.LittleEndian.PutUint32(b[28:], math32.Float32bits(n.Z))
	return xxhash.Sum64(b[:])
}
