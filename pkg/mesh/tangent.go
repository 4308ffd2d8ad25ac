package mesh

import (
	"github.com/chewxy/math32"

	"github.com/macsen-huw/meshbake/pkg/math"
)

// uvDegenerateEps is the UV-area determinant below which a triangle corner
// contributes nothing to the tangent accumulation.
const uvDegenerateEps = 1e-12

// Tangents computes one 4D tangent per unique vertex of an indexed mesh.
// XYZ hold the tangent orthogonalized against the vertex normal, W holds
// the bitangent handedness (+1 or -1).
//
// Corner tangent spaces are solved from the triangle edge vectors and the
// matching texcoord deltas, summed into per-vertex accumulators, then
// Gram-Schmidt orthogonalized. Triangles with degenerate UVs are skipped
// rather than poisoning the accumulation.
func Tangents(m *IndexedMesh) []math.Vec4 {
	vcount := m.VertexCount()
	accT := make([]math.Vec3, vcount)
	accB := make([]math.Vec3, vcount)

	for tri := 0; tri+2 < len(m.Indices); tri += 3 {
		for corner := 0; corner < 3; corner++ {
			a := m.Indices[tri+corner]
			b := m.Indices[tri+(corner+1)%3]
			c := m.Indices[tri+(corner+2)%3]

			e1 := m.Positions[b].Sub(m.Positions[a])
			e2 := m.Positions[c].Sub(m.Positions[a])
			duv1 := m.Texcoords[b].Sub(m.Texcoords[a])
			duv2 := m.Texcoords[c].Sub(m.Texcoords[a])

			det := duv1.X*duv2.Y - duv2.X*duv1.Y
			if math32.Abs(det) < uvDegenerateEps {
				continue
			}
			r := 1 / det

			tangent := e1.Scale(duv2.Y).Sub(e2.Scale(duv1.Y)).Scale(r)
			bitangent := e2.Scale(duv1.X).Sub(e1.Scale(duv2.X)).Scale(r)

			accT[a] = accT[a].Add(tangent)
			accB[a] = accB[a].Add(bitangent)
		}
	}

	out := make([]math.Vec4, vcount)
	for i := 0; i < vcount; i++ {
		n := m.Normals[i]

		// Gram-Schmidt: remove the normal component from the tangent,
		// then the normal and tangent components from the bitangent.
		t := accT[i].Sub(n.Scale(n.Dot(accT[i]))).Normalize()
		b := accB[i].Sub(n.Scale(n.Dot(accB[i])))
		b = b.Sub(t.Scale(t.Dot(b))).Normalize()

		w := float32(1)
		if n.Cross(t).Dot(b) < 0 {
			w = -1
		}
		out[i] = math.Vec4{X: t.X, Y: t.Y, Z: t.Z, W: w}
	}

	return out
}
