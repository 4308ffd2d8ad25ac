package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/macsen-huw/meshbake/pkg/math"
)

// OBJ format errors.
var (
	ErrMalformedOBJ = errors.New("malformed OBJ data")
	ErrMalformedMTL = errors.New("malformed MTL data")
)

// zstdMagic is the zstandard frame header.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// LoadOBJFile loads a Wavefront OBJ file into an InputModel. Files with a
// zstd frame header are decompressed transparently, so both plain .obj and
// compressed .obj-zstd / .obj.zst sources work. Referenced MTL files are
// resolved relative to the OBJ's directory.
func LoadOBJFile(path string) (*InputModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}

	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()

		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
	}

	return ParseOBJ(data, filepath.Dir(path))
}

// objParser accumulates state while scanning an OBJ file.
type objParser struct {
	baseDir string

	// Raw attribute pools, 1-based from the file's perspective.
	positions []math.Vec3
	texcoords []math.Vec2
	normals   []math.Vec3

	model         *InputModel
	materialIndex map[string]int
	currentMat    int
	rangeStart    int
}

// ParseOBJ parses OBJ data into a triangle-soup InputModel. Polygons are
// fan-triangulated, negative indices resolve from the end of the pools, and
// faces without normals get flat face normals. A new mesh range starts at
// every material switch. baseDir anchors mtllib references.
func ParseOBJ(data []byte, baseDir string) (*InputModel, error) {
	p := &objParser{
		baseDir:       baseDir,
		model:         &InputModel{},
		materialIndex: make(map[string]int),
		currentMat:    -1,
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if err := p.handleLine(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning OBJ data: %w", err)
	}

	p.closeRange()

	if len(p.model.Materials) == 0 {
		// Models without material libraries still need one material for
		// their mesh ranges to reference.
		p.model.Materials = append(p.model.Materials, Material{Name: "default"})
	}

	return p.model, nil
}

func (p *objParser) handleLine(fields []string) error {
	switch fields[0] {
	case "v":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return err
		}
		p.positions = append(p.positions, v)
	case "vt":
		v, err := parseVec2(fields[1:])
		if err != nil {
			return err
		}
		p.texcoords = append(p.texcoords, v)
	case "vn":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return err
		}
		p.normals = append(p.normals, v)
	case "f":
		return p.addFace(fields[1:])
	case "usemtl":
		if len(fields) < 2 {
			return fmt.Errorf("%w: usemtl without a name", ErrMalformedOBJ)
		}
		p.switchMaterial(fields[1])
	case "mtllib":
		if len(fields) < 2 {
			return fmt.Errorf("%w: mtllib without a path", ErrMalformedOBJ)
		}
		return p.loadMTL(filepath.Join(p.baseDir, fields[1]))
	}
	// o, g, s and anything unknown carry no geometry and are skipped.
	return nil
}

// switchMaterial selects the active material, creating an empty one for
// names no MTL file declared, and closes the current mesh range.
func (p *objParser) switchMaterial(name string) {
	idx, ok := p.materialIndex[name]
	if !ok {
		idx = len(p.model.Materials)
		p.model.Materials = append(p.model.Materials, Material{Name: name})
		p.materialIndex[name] = idx
	}
	if idx == p.currentMat {
		return
	}
	p.closeRange()
	p.currentMat = idx
}

// closeRange finishes the mesh range accumulated since the last material
// switch, if it holds any vertices.
func (p *objParser) closeRange() {
	end := len(p.model.Positions)
	if end == p.rangeStart {
		return
	}
	mat := p.currentMat
	if mat < 0 {
		mat = 0
	}
	p.model.Meshes = append(p.model.Meshes, MeshRange{
		VertexStart:   p.rangeStart,
		VertexCount:   end - p.rangeStart,
		MaterialIndex: mat,
	})
	p.rangeStart = end
}

// faceCorner is one parsed "v/vt/vn" reference of a face.
type faceCorner struct {
	pos    math.Vec3
	uv     math.Vec2
	normal math.Vec3
	hasN   bool
}

func (p *objParser) addFace(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("%w: face with %d corners", ErrMalformedOBJ, len(refs))
	}

	corners := make([]faceCorner, len(refs))
	for i, ref := range refs {
		c, err := p.parseCorner(ref)
		if err != nil {
			return err
		}
		corners[i] = c
	}

	// Fan triangulation preserves the face's winding order.
	for i := 1; i+1 < len(corners); i++ {
		tri := [3]faceCorner{corners[0], corners[i], corners[i+1]}

		if !tri[0].hasN || !tri[1].hasN || !tri[2].hasN {
			flat := tri[1].pos.Sub(tri[0].pos).Cross(tri[2].pos.Sub(tri[0].pos)).Normalize()
			for j := range tri {
				if !tri[j].hasN {
					tri[j].normal = flat
				}
			}
		}

		for _, c := range tri {
			p.model.Positions = append(p.model.Positions, c.pos)
			p.model.Texcoords = append(p.model.Texcoords, c.uv)
			p.model.Normals = append(p.model.Normals, c.normal)
		}
	}

	return nil
}

// parseCorner resolves one "v", "v/vt", "v//vn" or "v/vt/vn" reference.
func (p *objParser) parseCorner(ref string) (faceCorner, error) {
	var c faceCorner

	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return c, fmt.Errorf("%w: face corner %q", ErrMalformedOBJ, ref)
	}

	pi, err := resolveIndex(parts[0], len(p.positions))
	if err != nil {
		return c, fmt.Errorf("%w: position reference %q", ErrMalformedOBJ, ref)
	}
	c.pos = p.positions[pi]

	if len(parts) > 1 && parts[1] != "" {
		ti, err := resolveIndex(parts[1], len(p.texcoords))
		if err != nil {
			return c, fmt.Errorf("%w: texcoord reference %q", ErrMalformedOBJ, ref)
		}
		c.uv = p.texcoords[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := resolveIndex(parts[2], len(p.normals))
		if err != nil {
			return c, fmt.Errorf("%w: normal reference %q", ErrMalformedOBJ, ref)
		}
		c.normal = p.normals[ni]
		c.hasN = true
	}

	return c, nil
}

// resolveIndex converts a 1-based, possibly negative OBJ index into a
// 0-based pool offset.
func resolveIndex(s string, poolLen int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v == 0 {
		return 0, ErrMalformedOBJ
	}
	if v < 0 {
		v = poolLen + v
	} else {
		v--
	}
	if v < 0 || v >= poolLen {
		return 0, ErrMalformedOBJ
	}
	return v, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("%w: expected 3 components, got %d", ErrMalformedOBJ, len(fields))
	}
	x, err1 := strconv.ParseFloat(fields[0], 32)
	y, err2 := strconv.ParseFloat(fields[1], 32)
	z, err3 := strconv.ParseFloat(fields[2], 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return math.Vec3{}, fmt.Errorf("%w: bad float component", ErrMalformedOBJ)
	}
	return math.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}, nil
}

func parseVec2(fields []string) (math.Vec2, error) {
	if len(fields) < 2 {
		return math.Vec2{}, fmt.Errorf("%w: expected 2 components, got %d", ErrMalformedOBJ, len(fields))
	}
	x, err1 := strconv.ParseFloat(fields[0], 32)
	y, err2 := strconv.ParseFloat(fields[1], 32)
	if err1 != nil || err2 != nil {
		return math.Vec2{}, fmt.Errorf("%w: bad float component", ErrMalformedOBJ)
	}
	return math.Vec2{X: float32(x), Y: float32(y)}, nil
}

// loadMTL parses a material library and appends its materials.
func (p *objParser) loadMTL(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading MTL file: %w", err)
	}
	return p.parseMTL(data, filepath.Dir(path))
}

// parseMTL reads newmtl blocks and the texture map statements the baker
// consumes. Texture paths are resolved relative to the MTL's directory.
// Unknown statements (illumination models, scalar factors) are skipped.
func (p *objParser) parseMTL(data []byte, baseDir string) error {
	var cur *Material

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return fmt.Errorf("%w: line %d: newmtl without a name", ErrMalformedMTL, lineNo)
			}
			name := fields[1]
			if idx, ok := p.materialIndex[name]; ok {
				// usemtl may have referenced the material before the
				// library was read; fill the placeholder in.
				cur = &p.model.Materials[idx]
				continue
			}
			p.model.Materials = append(p.model.Materials, Material{Name: name})
			p.materialIndex[name] = len(p.model.Materials) - 1
			cur = &p.model.Materials[len(p.model.Materials)-1]
			continue
		}

		if cur == nil || len(fields) < 2 {
			continue
		}

		// Map statements may carry options; the texture path is the last
		// token.
		tex := filepath.Join(baseDir, fields[len(fields)-1])
		switch strings.ToLower(fields[0]) {
		case "map_kd":
			cur.BaseColorTexture = tex
		case "map_pr":
			cur.RoughnessTexture = tex
		case "map_pm":
			cur.MetalnessTexture = tex
		case "map_d":
			cur.AlphaMaskTexture = tex
		case "map_bump", "bump", "norm":
			cur.NormalMapTexture = tex
		}
	}
	return scanner.Err()
}
