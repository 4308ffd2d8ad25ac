package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/macsen-huw/meshbake/pkg/math"
)

// Baked format errors.
var (
	ErrInvalidBakedMagic       = errors.New("invalid baked mesh magic")
	ErrUnsupportedBakedVariant = errors.New("unsupported baked mesh variant")
	ErrTruncatedBakedData      = errors.New("truncated baked mesh data")
	ErrInvalidBakedModel       = errors.New("invalid baked model")
	ErrInvalidTextureRef       = errors.New("texture reference out of range")
)

// TextureNone marks an absent material texture reference.
const TextureNone = uint32(0xFFFFFFFF)

// bakedMagic identifies the file type. The leading NUL bytes keep the file
// from being misidentified as text.
var bakedMagic = [16]byte{0, 0, 'C', 'O', 'M', 'P', '5', '8', '2', '2', 'M', 'm', 'e', 's', 'h', 0}

// bakedVariant identifies the schema revision. Change it whenever the
// layout below changes.
var bakedVariant = [16]byte{'s', 'c', '2', '0', 'm', 'h', '-', 't', 'a', 'n'}

// BakedTexture is one entry of the texture table: the path the renderer
// loads the image from and its channel count (1, 3 or 4).
type BakedTexture struct {
	Path     string
	Channels uint8
}

// BakedMaterial references the texture table by id, slot by slot.
// Each field is a valid table index or TextureNone.
type BakedMaterial struct {
	BaseColor uint32
	Roughness uint32
	Metalness uint32
	AlphaMask uint32
	NormalMap uint32
}

// slots returns the material's texture references in serialization order.
func (m *BakedMaterial) slots() [5]uint32 {
	return [5]uint32{m.BaseColor, m.Roughness, m.Metalness, m.AlphaMask, m.NormalMap}
}

// BakedMesh is one indexed, tangent-augmented mesh.
type BakedMesh struct {
	MaterialIndex uint32
	Positions     []math.Vec3
	Normals       []math.Vec3
	Texcoords     []math.Vec2
	Tangents      []math.Vec4
	Indices       []uint32
}

// BakedModel is the full content of a baked asset file.
type BakedModel struct {
	Textures  []BakedTexture
	Materials []BakedMaterial
	Meshes    []BakedMesh
}

// Validate checks the cross-table invariants before serialization: every
// material texture reference indexes the texture table or is TextureNone,
// every mesh has equally sized attribute arrays and in-range indices.
func (m *BakedModel) Validate() error {
	texCount := uint32(len(m.Textures))
	for i := range m.Materials {
		for _, ref := range m.Materials[i].slots() {
			if ref != TextureNone && ref >= texCount {
				return fmt.Errorf("%w: material %d references texture %d of %d",
					ErrInvalidTextureRef, i, ref, texCount)
			}
		}
	}
	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		v := len(mesh.Positions)
		if len(mesh.Normals) != v || len(mesh.Texcoords) != v || len(mesh.Tangents) != v {
			return fmt.Errorf("%w: mesh %d attribute lengths %d/%d/%d/%d differ",
				ErrInvalidBakedModel, i, v, len(mesh.Normals), len(mesh.Texcoords), len(mesh.Tangents))
		}
		for _, idx := range mesh.Indices {
			if int(idx) >= v {
				return fmt.Errorf("%w: mesh %d index %d out of %d vertices",
					ErrInvalidBakedModel, i, idx, v)
			}
		}
	}
	return nil
}

// WriteBakedModel serializes the model to w in the fixed little-endian
// layout. Counts always precede the data they describe so a reader can
// pre-allocate. Any short write aborts with the underlying error.
func WriteBakedModel(w io.Writer, m *BakedModel) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if _, err := w.Write(bakedMagic[:]); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}
	if _, err := w.Write(bakedVariant[:]); err != nil {
		return fmt.Errorf("writing variant: %w", err)
	}

	// Texture table: u32 count, then per texture a length-prefixed
	// NUL-terminated path and a u8 channel count.
	if err := writeU32(w, uint32(len(m.Textures))); err != nil {
		return fmt.Errorf("writing texture count: %w", err)
	}
	for i := range m.Textures {
		if err := writeString(w, m.Textures[i].Path); err != nil {
			return fmt.Errorf("writing texture %d path: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, m.Textures[i].Channels); err != nil {
			return fmt.Errorf("writing texture %d channels: %w", i, err)
		}
	}

	// Material table: u32 count, then five u32 texture ids per material.
	if err := writeU32(w, uint32(len(m.Materials))); err != nil {
		return fmt.Errorf("writing material count: %w", err)
	}
	for i := range m.Materials {
		slots := m.Materials[i].slots()
		if err := binary.Write(w, binary.LittleEndian, slots[:]); err != nil {
			return fmt.Errorf("writing material %d: %w", i, err)
		}
	}

	// Mesh table: u32 count, then per mesh the material index, vertex and
	// index counts, and the attribute arrays in fixed order.
	if err := writeU32(w, uint32(len(m.Meshes))); err != nil {
		return fmt.Errorf("writing mesh count: %w", err)
	}
	for i := range m.Meshes {
		mesh := &m.Meshes[i]
		if err := writeU32(w, mesh.MaterialIndex); err != nil {
			return fmt.Errorf("writing mesh %d material index: %w", i, err)
		}
		if err := writeU32(w, uint32(len(mesh.Positions))); err != nil {
			return fmt.Errorf("writing mesh %d vertex count: %w", i, err)
		}
		if err := writeU32(w, uint32(len(mesh.Indices))); err != nil {
			return fmt.Errorf("writing mesh %d index count: %w", i, err)
		}
		for _, arr := range []any{mesh.Positions, mesh.Normals, mesh.Texcoords, mesh.Tangents, mesh.Indices} {
			if err := binary.Write(w, binary.LittleEndian, arr); err != nil {
				return fmt.Errorf("writing mesh %d data: %w", i, err)
			}
		}
	}

	return nil
}

// writeU32 writes a little-endian uint32.
func writeU32(w io.Writer, v uint32) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// writeString writes a u32 byte length (terminator included) followed by
// the string bytes and a NUL terminator.
func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s)+1)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// ParseBakedModel parses a baked asset from raw bytes.
func ParseBakedModel(data []byte) (*BakedModel, error) {
	if len(data) < 32 {
		return nil, ErrTruncatedBakedData
	}
	if !bytes.Equal(data[0:16], bakedMagic[:]) {
		return nil, ErrInvalidBakedMagic
	}
	if !bytes.Equal(data[16:32], bakedVariant[:]) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBakedVariant,
			string(bytes.TrimRight(data[16:32], "\x00")))
	}

	r := bytes.NewReader(data[32:])
	model := &BakedModel{}

	// Texture table.
	textureCount, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading texture count", ErrTruncatedBakedData)
	}
	model.Textures = make([]BakedTexture, textureCount)
	for i := uint32(0); i < textureCount; i++ {
		path, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading texture %d path", ErrTruncatedBakedData, i)
		}
		var channels uint8
		if err := binary.Read(r, binary.LittleEndian, &channels); err != nil {
			return nil, fmt.Errorf("%w: reading texture %d channels", ErrTruncatedBakedData, i)
		}
		model.Textures[i] = BakedTexture{Path: path, Channels: channels}
	}

	// Material table.
	materialCount, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading material count", ErrTruncatedBakedData)
	}
	model.Materials = make([]BakedMaterial, materialCount)
	for i := uint32(0); i < materialCount; i++ {
		var slots [5]uint32
		if err := binary.Read(r, binary.LittleEndian, slots[:]); err != nil {
			return nil, fmt.Errorf("%w: reading material %d", ErrTruncatedBakedData, i)
		}
		for _, ref := range slots {
			if ref != TextureNone && ref >= textureCount {
				return nil, fmt.Errorf("%w: material %d references texture %d of %d",
					ErrInvalidTextureRef, i, ref, textureCount)
			}
		}
		model.Materials[i] = BakedMaterial{
			BaseColor: slots[0],
			Roughness: slots[1],
			Metalness: slots[2],
			AlphaMask: slots[3],
			NormalMap: slots[4],
		}
	}

	// Mesh table.
	meshCount, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading mesh count", ErrTruncatedBakedData)
	}
	model.Meshes = make([]BakedMesh, meshCount)
	for i := uint32(0); i < meshCount; i++ {
		mesh, err := parseBakedMesh(r)
		if err != nil {
			return nil, fmt.Errorf("parsing mesh %d: %w", i, err)
		}
		model.Meshes[i] = mesh
	}

	return model, nil
}

// parseBakedMesh parses a single mesh record.
func parseBakedMesh(r *bytes.Reader) (BakedMesh, error) {
	var mesh BakedMesh

	materialIndex, err := readU32(r)
	if err != nil {
		return BakedMesh{}, fmt.Errorf("%w: reading material index", ErrTruncatedBakedData)
	}
	mesh.MaterialIndex = materialIndex

	vertexCount, err := readU32(r)
	if err != nil {
		return BakedMesh{}, fmt.Errorf("%w: reading vertex count", ErrTruncatedBakedData)
	}
	indexCount, err := readU32(r)
	if err != nil {
		return BakedMesh{}, fmt.Errorf("%w: reading index count", ErrTruncatedBakedData)
	}

	// Each vertex needs 48 bytes of attribute data, each index 4. Reject
	// counts the remaining input cannot possibly satisfy.
	need := int64(vertexCount)*48 + int64(indexCount)*4
	if need > int64(r.Len()) {
		return BakedMesh{}, fmt.Errorf("%w: mesh needs %d bytes, %d remain",
			ErrTruncatedBakedData, need, r.Len())
	}

	mesh.Positions = make([]math.Vec3, vertexCount)
	mesh.Normals = make([]math.Vec3, vertexCount)
	mesh.Texcoords = make([]math.Vec2, vertexCount)
	mesh.Tangents = make([]math.Vec4, vertexCount)
	mesh.Indices = make([]uint32, indexCount)

	for _, arr := range []any{mesh.Positions, mesh.Normals, mesh.Texcoords, mesh.Tangents, mesh.Indices} {
		if err := binary.Read(r, binary.LittleEndian, arr); err != nil {
			return BakedMesh{}, fmt.Errorf("%w: reading mesh data", ErrTruncatedBakedData)
		}
	}

	for _, idx := range mesh.Indices {
		if idx >= vertexCount {
			return BakedMesh{}, fmt.Errorf("%w: index %d out of %d vertices",
				ErrInvalidBakedModel, idx, vertexCount)
		}
	}

	return mesh, nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// readString reads a u32 length-prefixed NUL-terminated string.
func readString(r *bytes.Reader) (string, error) {
	length, err := readU32(r)
	if err != nil {
		return "", err
	}
	if length == 0 || int64(length) > int64(r.Len()) {
		return "", ErrTruncatedBakedData
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if buf[length-1] != 0 {
		return "", fmt.Errorf("%w: string missing terminator", ErrTruncatedBakedData)
	}
	return string(buf[:length-1]), nil
}

// ParseBakedModelFile parses a baked asset file from disk.
func ParseBakedModelFile(path string) (*BakedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading baked mesh file: %w", err)
	}
	return ParseBakedModel(data)
}
