// Package formats provides parsers and writers for the mesh baking file
// formats: Wavefront OBJ/MTL input (optionally zstd-compressed) and the
// baked binary asset output.
package formats

import "github.com/macsen-huw/meshbake/pkg/math"

// Material holds up to five texture paths of a PBR material. An empty
// string means the slot is unset.
type Material struct {
	Name string

	BaseColorTexture string
	RoughnessTexture string
	MetalnessTexture string
	AlphaMaskTexture string
	NormalMapTexture string
}

// MeshRange addresses a contiguous run of triangle-soup vertices inside an
// InputModel's attribute pools, all sharing one material.
type MeshRange struct {
	VertexStart   int
	VertexCount   int
	MaterialIndex int
}

// InputModel is a parsed model as triangle soup: flat attribute pools with
// one entry per unshared triangle corner, split into per-material ranges.
type InputModel struct {
	Positions []math.Vec3
	Texcoords []math.Vec2
	Normals   []math.Vec3

	Meshes    []MeshRange
	Materials []Material
}

// SoupVertexCount returns the total number of triangle-soup vertices.
func (m *InputModel) SoupVertexCount() int {
	return len(m.Positions)
}
