package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spf13/cobra"

	"github.com/macsen-huw/meshbake/pkg/formats"
)

var flagGLBOutput string

var glbCmd = &cobra.Command{
	Use:   "export-glb [file]",
	Short: "Convert a baked mesh asset to binary glTF",
	Long: `Export a baked asset as a .glb file for inspection in standard glTF
viewers. Geometry, tangents and the material table are carried over;
textures are referenced by their baked paths as external URIs.`,
	Args: cobra.ExactArgs(1),
	RunE: runExportGLB,
}

func init() {
	glbCmd.Flags().StringVarP(&flagGLBOutput, "output", "o", "", "output path (default: input with .glb extension)")
	rootCmd.AddCommand(glbCmd)
}

func runExportGLB(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := flagGLBOutput
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".glb"
	}

	model, err := formats.ParseBakedModelFile(input)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", input, err)
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "meshbake"

	for i, tex := range model.Textures {
		doc.Images = append(doc.Images, &gltf.Image{
			Name: fmt.Sprintf("texture-%d", i),
			URI:  tex.Path,
		})
		doc.Textures = append(doc.Textures, &gltf.Texture{
			Source: gltf.Index(uint32(i)),
		})
	}

	for i, mat := range model.Materials {
		gm := &gltf.Material{
			Name:                 fmt.Sprintf("material-%d", i),
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{},
			AlphaMode:            gltf.AlphaOpaque,
		}
		if mat.BaseColor != formats.TextureNone {
			gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: mat.BaseColor}
		}
		if mat.Roughness != formats.TextureNone {
			gm.PBRMetallicRoughness.MetallicRoughnessTexture = &gltf.TextureInfo{Index: mat.Roughness}
		}
		if mat.NormalMap != formats.TextureNone {
			gm.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(mat.NormalMap)}
		}
		if mat.AlphaMask != formats.TextureNone {
			gm.AlphaMode = gltf.AlphaMask
		}
		doc.Materials = append(doc.Materials, gm)
	}

	for i, m := range model.Meshes {
		positions := make([][3]float32, len(m.Positions))
		normals := make([][3]float32, len(m.Normals))
		texcoords := make([][2]float32, len(m.Texcoords))
		tangents := make([][4]float32, len(m.Tangents))
		for j := range m.Positions {
			p, n := m.Positions[j], m.Normals[j]
			positions[j] = [3]float32{p.X, p.Y, p.Z}
			normals[j] = [3]float32{n.X, n.Y, n.Z}
			uv := m.Texcoords[j]
			texcoords[j] = [2]float32{uv.X, uv.Y}
			t := m.Tangents[j]
			tangents[j] = [4]float32{t.X, t.Y, t.Z, t.W}
		}
		indices := make([]uint32, len(m.Indices))
		copy(indices, m.Indices)

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION:   uint32(modeler.WritePosition(doc, positions)),
				gltf.NORMAL:     uint32(modeler.WriteNormal(doc, normals)),
				gltf.TEXCOORD_0: uint32(modeler.WriteTextureCoord(doc, texcoords)),
				gltf.TANGENT:    uint32(modeler.WriteTangent(doc, tangents)),
			},
			Indices: gltf.Index(uint32(modeler.WriteIndices(doc, indices))),
		}
		if int(m.MaterialIndex) < len(doc.Materials) {
			prim.Material = gltf.Index(m.MaterialIndex)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       fmt.Sprintf("mesh-%d", i),
			Primitives: []*gltf.Primitive{prim},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(uint32(i))})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
	}

	if err := gltf.SaveBinary(doc, output); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Printf("Exported %s -> %s (%d meshes)\n", input, output, len(model.Meshes))
	return nil
}
