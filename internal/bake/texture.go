package bake

import (
	"fmt"
	"path/filepath"

	"github.com/macsen-huw/meshbake/pkg/formats"
)

// TextureInfo describes one unique texture referenced by the model.
type TextureInfo struct {
	// UniqueID is dense: the ids of a table with N entries are exactly
	// 0..N-1, so the id doubles as the serialized table index.
	UniqueID uint32
	Channels uint8
	DestPath string
}

// materialSlots fixes the traversal order of a material's texture slots
// and the channel count recorded when a path is first seen in that slot.
var materialSlots = []struct {
	name     string
	channels uint8
	path     func(*formats.Material) string
}{
	{"baseColor", 4, func(m *formats.Material) string { return m.BaseColorTexture }},
	{"roughness", 1, func(m *formats.Material) string { return m.RoughnessTexture }},
	{"metalness", 1, func(m *formats.Material) string { return m.MetalnessTexture }},
	{"alphaMask", 4, func(m *formats.Material) string { return m.AlphaMaskTexture }},
	{"normalMap", 3, func(m *formats.Material) string { return m.NormalMapTexture }},
}

// FindUniqueTextures scans every material's texture slots in fixed order
// and assigns each distinct non-empty path a sequential id starting at 0.
// Revisiting a path never changes its id or channel count: the slot it was
// first seen in wins.
func FindUniqueTextures(model *formats.InputModel) map[string]*TextureInfo {
	unique := make(map[string]*TextureInfo)

	nextID := uint32(0)
	for i := range model.Materials {
		mat := &model.Materials[i]
		for _, slot := range materialSlots {
			path := slot.path(mat)
			if path == "" {
				continue
			}
			if _, seen := unique[path]; seen {
				continue
			}
			unique[path] = &TextureInfo{UniqueID: nextID, Channels: slot.channels}
			nextID++
		}
	}

	return unique
}

// AssignDestPaths computes each texture's destination as
// <texDir>/<basename-of-source>, slash-separated for the serialized table.
// Distinct sources sharing a basename would overwrite each other; such
// collisions are returned as warnings the caller may choose to tolerate.
func AssignDestPaths(textures map[string]*TextureInfo, texDir string) []string {
	var warnings []string

	byBase := make(map[string]string, len(textures))
	for _, src := range sortedByID(textures) {
		base := filepath.Base(src)
		if prev, clash := byBase[base]; clash {
			warnings = append(warnings,
				fmt.Sprintf("texture basename collision: %q and %q both map to %q",
					prev, src, base))
		} else {
			byBase[base] = src
		}
		textures[src].DestPath = filepath.ToSlash(filepath.Join(texDir, base))
	}

	return warnings
}

// OrderedTextures materializes the map into an id-ordered slice for
// serialization; map iteration order must never leak into the file.
func OrderedTextures(textures map[string]*TextureInfo) []*TextureInfo {
	ordered := make([]*TextureInfo, len(textures))
	for _, info := range textures {
		ordered[info.UniqueID] = info
	}
	return ordered
}

// sortedByID returns the source paths in id order, giving every consumer
// of the map a deterministic iteration.
func sortedByID(textures map[string]*TextureInfo) []string {
	paths := make([]string, len(textures))
	for src, info := range textures {
		paths[info.UniqueID] = src
	}
	return paths
}
