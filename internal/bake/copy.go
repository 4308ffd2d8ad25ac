package bake

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/macsen-huw/meshbake/internal/logger"
)

// CopyTextures copies each unique texture to its destination below
// rootDir, in id order. Existing destination files are never overwritten:
// re-running a bake reports copy failures for already-present files
// instead of clobbering them. Per-file failures are logged and counted,
// not propagated; the batch always runs to the end.
func CopyTextures(rootDir string, textures map[string]*TextureInfo) (copied, failed int) {
	sources := sortedByID(textures)
	for _, src := range sources {
		dest := filepath.Join(rootDir, filepath.FromSlash(textures[src].DestPath))
		if err := copyFileNoOverwrite(src, dest); err != nil {
			failed++
			logger.Warn("texture copy failed",
				zap.String("source", src),
				zap.String("dest", dest),
				zap.Error(err))
			continue
		}
		copied++
	}
	return copied, failed
}

// copyFileNoOverwrite copies src to dst, failing if dst already exists.
func copyFileNoOverwrite(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying data: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}
	return nil
}
