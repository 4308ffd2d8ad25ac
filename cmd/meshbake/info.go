package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macsen-huw/meshbake/pkg/formats"
)

var flagInfoVerbose bool

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display the contents of a baked mesh asset",
	Long:  "Show the texture, material and mesh tables of a baked asset along with vertex and index totals.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVarP(&flagInfoVerbose, "verbose", "v", false, "list every table entry")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	model, err := formats.ParseBakedModelFile(filename)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filename, err)
	}

	var vertices, indices int
	for _, m := range model.Meshes {
		vertices += len(m.Positions)
		indices += len(m.Indices)
	}

	fmt.Println("Baked Mesh Asset")
	fmt.Println("================")
	fmt.Printf("File: %s\n\n", filename)

	fmt.Printf("Textures: %d\n", len(model.Textures))
	fmt.Printf("Materials: %d\n", len(model.Materials))
	fmt.Printf("Meshes: %d\n", len(model.Meshes))
	fmt.Printf("Vertices: %d\n", vertices)
	fmt.Printf("Indices: %d (%d triangles)\n", indices, indices/3)

	if !flagInfoVerbose {
		return nil
	}

	fmt.Println("\nTexture Table:")
	for i, tex := range model.Textures {
		fmt.Printf("  %4d: %s (%d channels)\n", i, tex.Path, tex.Channels)
	}

	fmt.Println("\nMaterial Table:")
	for i, mat := range model.Materials {
		fmt.Printf("  %4d: baseColor=%s roughness=%s metalness=%s alphaMask=%s normalMap=%s\n",
			i,
			formatTextureRef(mat.BaseColor),
			formatTextureRef(mat.Roughness),
			formatTextureRef(mat.Metalness),
			formatTextureRef(mat.AlphaMask),
			formatTextureRef(mat.NormalMap))
	}

	fmt.Println("\nMesh Table:")
	for i, m := range model.Meshes {
		fmt.Printf("  %4d: material=%d vertices=%d indices=%d\n",
			i, m.MaterialIndex, len(m.Positions), len(m.Indices))
	}

	return nil
}

func formatTextureRef(id uint32) string {
	if id == formats.TextureNone {
		return "-"
	}
	return fmt.Sprintf("#%d", id)
}
