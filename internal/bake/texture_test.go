package bake

import (
	"testing"

	"github.com/macsen-huw/meshbake/pkg/formats"
)

func createTestMaterials() *formats.InputModel {
	return &formats.InputModel{
		Materials: []formats.Material{
			{
				Name:             "stone",
				BaseColorTexture: "tex/stone.png",
				RoughnessTexture: "tex/rough.png",
				MetalnessTexture: "tex/rough.png",
			},
			{
				Name:             "wood",
				BaseColorTexture: "tex/wood.png",
				RoughnessTexture: "tex/rough.png",
				NormalMapTexture: "tex/wood_n.png",
			},
		},
	}
}

func TestFindUniqueTexturesDenseIDs(t *testing.T) {
	textures := FindUniqueTextures(createTestMaterials())

	if len(textures) != 4 {
		t.Fatalf("got %d unique textures, want 4", len(textures))
	}
	seen := make([]bool, len(textures))
	for path, info := range textures {
		if int(info.UniqueID) >= len(textures) {
			t.Fatalf("texture %q has id %d outside dense range", path, info.UniqueID)
		}
		if seen[info.UniqueID] {
			t.Fatalf("duplicate id %d", info.UniqueID)
		}
		seen[info.UniqueID] = true
	}
}

func TestFindUniqueTexturesOrder(t *testing.T) {
	textures := FindUniqueTextures(createTestMaterials())

	want := map[string]uint32{
		"tex/stone.png":  0,
		"tex/rough.png":  1,
		"tex/wood.png":   2,
		"tex/wood_n.png": 3,
	}
	for path, id := range want {
		info, ok := textures[path]
		if !ok {
			t.Fatalf("texture %q not found", path)
		}
		if info.UniqueID != id {
			t.Errorf("texture %q id = %d, want %d", path, info.UniqueID, id)
		}
	}
}

func TestFindUniqueTexturesFirstSlotWins(t *testing.T) {
	// rough.png first appears in a roughness slot (1 channel) and later
	// in metalness and on the second material; the first sighting sticks.
	textures := FindUniqueTextures(createTestMaterials())

	info := textures["tex/rough.png"]
	if info.Channels != 1 {
		t.Errorf("rough.png channels = %d, want 1", info.Channels)
	}

	if textures["tex/stone.png"].Channels != 4 {
		t.Errorf("stone.png channels = %d, want 4", textures["tex/stone.png"].Channels)
	}
	if textures["tex/wood_n.png"].Channels != 3 {
		t.Errorf("wood_n.png channels = %d, want 3", textures["tex/wood_n.png"].Channels)
	}
}

func TestAssignDestPaths(t *testing.T) {
	textures := FindUniqueTextures(createTestMaterials())

	warnings := AssignDestPaths(textures, "model-tex")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if got := textures["tex/stone.png"].DestPath; got != "model-tex/stone.png" {
		t.Errorf("dest path = %q, want %q", got, "model-tex/stone.png")
	}
}

func TestAssignDestPathsBasenameCollision(t *testing.T) {
	model := &formats.InputModel{
		Materials: []formats.Material{
			{Name: "a", BaseColorTexture: "one/diffuse.png"},
			{Name: "b", BaseColorTexture: "two/diffuse.png"},
		},
	}
	textures := FindUniqueTextures(model)

	warnings := AssignDestPaths(textures, "model-tex")
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
	}
	// Both still get a destination; the collision is the caller's call.
	for src, info := range textures {
		if info.DestPath != "model-tex/diffuse.png" {
			t.Errorf("texture %q dest = %q", src, info.DestPath)
		}
	}
}

func TestOrderedTextures(t *testing.T) {
	textures := FindUniqueTextures(createTestMaterials())
	AssignDestPaths(textures, "model-tex")

	ordered := OrderedTextures(textures)
	if len(ordered) != len(textures) {
		t.Fatalf("ordered length = %d, want %d", len(ordered), len(textures))
	}
	for i, info := range ordered {
		if info == nil {
			t.Fatalf("slot %d is nil", i)
		}
		if int(info.UniqueID) != i {
			t.Errorf("slot %d holds id %d", i, info.UniqueID)
		}
	}
}
