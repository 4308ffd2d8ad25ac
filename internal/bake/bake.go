// Package bake drives the asset baking pipeline: it loads a triangle-soup
// model, normalizes its materials, welds each sub-mesh into an indexed
// mesh, derives tangents, deduplicates textures and writes the baked
// binary asset plus its texture directory.
package bake

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/macsen-huw/meshbake/internal/config"
	"github.com/macsen-huw/meshbake/internal/logger"
	"github.com/macsen-huw/meshbake/pkg/formats"
	"github.com/macsen-huw/meshbake/pkg/math"
	"github.com/macsen-huw/meshbake/pkg/mesh"
)

// Pipeline errors.
var (
	ErrInvalidInput = errors.New("invalid input model")

	// ErrTextureLookup signals a material referencing a texture path the
	// dedup table does not hold. The table is built from the same
	// materials, so hitting this means the pipeline itself is broken;
	// it is guarded rather than papered over with a sentinel id.
	ErrTextureLookup = errors.New("texture path missing from dedup table")
)

// Options configures a single bake run.
type Options struct {
	Input  string
	Output string

	// Tolerance is the vertex welding tolerance.
	Tolerance float32

	// TextureDirSuffix forms the texture directory name:
	// <output basename><suffix>.
	TextureDirSuffix string

	// Fallback textures substituted by the normalizer.
	FallbackBaseColor string
	FallbackScalar    string

	// Transform is a static pre-transform applied to positions and
	// normals before welding.
	Transform math.Mat4
}

// OptionsFromConfig builds run options from the baking configuration.
func OptionsFromConfig(cfg *config.BakeConfig, input, output string) Options {
	return Options{
		Input:             input,
		Output:            output,
		Tolerance:         cfg.Tolerance,
		TextureDirSuffix:  cfg.TextureDirSuffix,
		FallbackBaseColor: cfg.FallbackBaseColor,
		FallbackScalar:    cfg.FallbackScalar,
		Transform:         math.Identity(),
	}
}

// Report summarizes a completed bake.
type Report struct {
	SoupVertices   int
	OutputVertices int
	OutputIndices  int
	Meshes         int
	Materials      int
	Textures       int
	TexturesCopied int
	CopyErrors     int
	Warnings       []string
}

// Run executes the full pipeline. Stages run strictly in order; the baked
// file is written and closed before any texture is copied. Copy failures
// are reported in the Report, every other failure aborts the run.
func Run(opts Options) (*Report, error) {
	model, err := formats.LoadOBJFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", opts.Input, err)
	}

	Normalize(model, opts.FallbackBaseColor, opts.FallbackScalar)
	applyTransform(model, opts.Transform)

	logger.Info("model loaded",
		zap.String("input", opts.Input),
		zap.Int("meshes", len(model.Meshes)),
		zap.Int("materials", len(model.Materials)),
		zap.Int("soupVertices", model.SoupVertexCount()))

	report := &Report{
		SoupVertices: model.SoupVertexCount(),
		Meshes:       len(model.Meshes),
		Materials:    len(model.Materials),
	}

	// Weld and generate tangents per sub-mesh.
	indexed := make([]*mesh.IndexedMesh, len(model.Meshes))
	tangents := make([][]math.Vec4, len(model.Meshes))
	for i, r := range model.Meshes {
		soup, err := extractSoup(model, r)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		m, err := mesh.Weld(soup, opts.Tolerance)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		indexed[i] = m
		tangents[i] = mesh.Tangents(m)

		report.OutputVertices += m.VertexCount()
		report.OutputIndices += len(m.Indices)
	}

	logger.Info("meshes indexed",
		zap.Int("vertices", report.OutputVertices),
		zap.Int("indices", report.OutputIndices))

	// Texture table. Must be complete before serialization: materials
	// reference textures by id.
	rootDir := filepath.Dir(opts.Output)
	basename := strings.TrimSuffix(filepath.Base(opts.Output), filepath.Ext(opts.Output))
	texDir := basename + opts.TextureDirSuffix

	textures := FindUniqueTextures(model)
	report.Warnings = AssignDestPaths(textures, texDir)
	report.Textures = len(textures)
	for _, w := range report.Warnings {
		logger.Warn(w)
	}

	baked, err := assemble(model, indexed, tangents, textures)
	if err != nil {
		return nil, err
	}

	if err := writeBakedFile(opts.Output, baked); err != nil {
		return nil, err
	}
	logger.Info("baked asset written", zap.String("output", opts.Output))

	// Copies start only after the baked file is closed.
	if err := os.MkdirAll(filepath.Join(rootDir, texDir), 0755); err != nil {
		return nil, fmt.Errorf("creating texture directory: %w", err)
	}
	report.TexturesCopied, report.CopyErrors = CopyTextures(rootDir, textures)

	logger.Info("textures copied",
		zap.Int("copied", report.TexturesCopied),
		zap.Int("total", report.Textures),
		zap.Int("errors", report.CopyErrors))

	return report, nil
}

// extractSoup slices one sub-mesh's triangle soup out of the model pools.
func extractSoup(model *formats.InputModel, r formats.MeshRange) (*mesh.TriangleSoup, error) {
	end := r.VertexStart + r.VertexCount
	if r.VertexStart < 0 || end > model.SoupVertexCount() {
		return nil, fmt.Errorf("%w: mesh range [%d,%d) outside %d soup vertices",
			ErrInvalidInput, r.VertexStart, end, model.SoupVertexCount())
	}
	return &mesh.TriangleSoup{
		Positions: model.Positions[r.VertexStart:end],
		Texcoords: model.Texcoords[r.VertexStart:end],
		Normals:   model.Normals[r.VertexStart:end],
	}, nil
}

// applyTransform bakes a static transform into the soup pools. Normals use
// the inverse-transpose and are renormalized to survive non-uniform scale.
func applyTransform(model *formats.InputModel, m math.Mat4) {
	if m == (math.Mat4{}) || m == math.Identity() {
		return
	}
	nm := m.NormalMatrix()
	for i := range model.Positions {
		model.Positions[i] = m.TransformPoint(model.Positions[i])
	}
	for i := range model.Normals {
		model.Normals[i] = nm.TransformDirection(model.Normals[i]).Normalize()
	}
}

// assemble builds the serializable model from the pipeline outputs.
func assemble(model *formats.InputModel, indexed []*mesh.IndexedMesh, tangents [][]math.Vec4, textures map[string]*TextureInfo) (*formats.BakedModel, error) {
	baked := &formats.BakedModel{}

	for _, info := range OrderedTextures(textures) {
		baked.Textures = append(baked.Textures, formats.BakedTexture{
			Path:     info.DestPath,
			Channels: info.Channels,
		})
	}

	for i := range model.Materials {
		mat := &model.Materials[i]
		refs, err := materialRefs(mat, textures)
		if err != nil {
			return nil, fmt.Errorf("material %d (%s): %w", i, mat.Name, err)
		}
		baked.Materials = append(baked.Materials, refs)
	}

	for i, r := range model.Meshes {
		m := indexed[i]
		baked.Meshes = append(baked.Meshes, formats.BakedMesh{
			MaterialIndex: uint32(r.MaterialIndex),
			Positions:     m.Positions,
			Normals:       m.Normals,
			Texcoords:     m.Texcoords,
			Tangents:      tangents[i],
			Indices:       m.Indices,
		})
	}

	return baked, nil
}

// materialRefs resolves a material's texture paths to table ids. An empty
// slot serializes as the absent-texture sentinel.
func materialRefs(mat *formats.Material, textures map[string]*TextureInfo) (formats.BakedMaterial, error) {
	resolve := func(path string) (uint32, error) {
		if path == "" {
			return formats.TextureNone, nil
		}
		info, ok := textures[path]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrTextureLookup, path)
		}
		return info.UniqueID, nil
	}

	var refs formats.BakedMaterial
	var err error
	if refs.BaseColor, err = resolve(mat.BaseColorTexture); err != nil {
		return refs, err
	}
	if refs.Roughness, err = resolve(mat.RoughnessTexture); err != nil {
		return refs, err
	}
	if refs.Metalness, err = resolve(mat.MetalnessTexture); err != nil {
		return refs, err
	}
	if refs.AlphaMask, err = resolve(mat.AlphaMaskTexture); err != nil {
		return refs, err
	}
	if refs.NormalMap, err = resolve(mat.NormalMapTexture); err != nil {
		return refs, err
	}
	return refs, nil
}

// writeBakedFile serializes the model with guaranteed file closure on
// every exit path. A write or close failure surfaces as an error; the
// destination is never left silently truncated.
func writeBakedFile(path string, baked *formats.BakedModel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening %s for writing: %w", path, err)
	}

	w := bufio.NewWriter(f)
	werr := formats.WriteBakedModel(w, baked)
	if werr == nil {
		werr = w.Flush()
	}
	cerr := f.Close()

	if werr != nil {
		return fmt.Errorf("writing %s: %w", path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("closing %s: %w", path, cerr)
	}
	return nil
}
