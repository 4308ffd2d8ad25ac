package bake

import "github.com/macsen-huw/meshbake/pkg/formats"

// Normalize fills empty material texture slots with the configured
// fallback images: the 4-channel RGBA fallback for base color, the
// 1-channel grayscale fallback for roughness and metalness. Alpha mask
// and normal map slots stay empty when unset; the renderer treats those
// as feature-off rather than sampling a default.
//
// This is the only mutation the loaded model sees during a bake.
func Normalize(model *formats.InputModel, fallbackBaseColor, fallbackScalar string) {
	for i := range model.Materials {
		mat := &model.Materials[i]
		if mat.BaseColorTexture == "" {
			mat.BaseColorTexture = fallbackBaseColor
		}
		if mat.RoughnessTexture == "" {
			mat.RoughnessTexture = fallbackScalar
		}
		if mat.MetalnessTexture == "" {
			mat.MetalnessTexture = fallbackScalar
		}
	}
}
