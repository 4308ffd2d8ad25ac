package bake

import (
	"testing"

	"github.com/macsen-huw/meshbake/pkg/formats"
)

func TestNormalizeFillsEmptySlots(t *testing.T) {
	model := &formats.InputModel{
		Materials: []formats.Material{
			{Name: "bare"},
		},
	}

	Normalize(model, "fallback/rgba1111.png", "fallback/r1.png")

	mat := model.Materials[0]
	if mat.BaseColorTexture != "fallback/rgba1111.png" {
		t.Errorf("base color = %q, want fallback", mat.BaseColorTexture)
	}
	if mat.RoughnessTexture != "fallback/r1.png" {
		t.Errorf("roughness = %q, want scalar fallback", mat.RoughnessTexture)
	}
	if mat.MetalnessTexture != "fallback/r1.png" {
		t.Errorf("metalness = %q, want scalar fallback", mat.MetalnessTexture)
	}
	if mat.AlphaMaskTexture != "" {
		t.Errorf("alpha mask = %q, want empty", mat.AlphaMaskTexture)
	}
	if mat.NormalMapTexture != "" {
		t.Errorf("normal map = %q, want empty", mat.NormalMapTexture)
	}
}

func TestNormalizeKeepsExistingTextures(t *testing.T) {
	model := &formats.InputModel{
		Materials: []formats.Material{
			{
				Name:             "stone",
				BaseColorTexture: "tex/stone.png",
				RoughnessTexture: "tex/stone_r.png",
				MetalnessTexture: "tex/stone_m.png",
				AlphaMaskTexture: "tex/stone_a.png",
				NormalMapTexture: "tex/stone_n.png",
			},
		},
	}

	Normalize(model, "fallback/rgba1111.png", "fallback/r1.png")

	mat := model.Materials[0]
	if mat.BaseColorTexture != "tex/stone.png" ||
		mat.RoughnessTexture != "tex/stone_r.png" ||
		mat.MetalnessTexture != "tex/stone_m.png" ||
		mat.AlphaMaskTexture != "tex/stone_a.png" ||
		mat.NormalMapTexture != "tex/stone_n.png" {
		t.Errorf("existing textures were replaced: %+v", mat)
	}
}
