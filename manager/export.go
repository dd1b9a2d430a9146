package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/404FoundingFather/ollama-model-manager/envconfig"
	"github.com/404FoundingFather/ollama-model-manager/format"
)

// archiveMetadata is the metadata.json member of an exported archive. The
// snake_case keys keep archives interchangeable with the original tool.
type archiveMetadata struct {
	ModelName     string `json:"model_name"`
	ParameterSize string `json:"parameter_size"`
	OriginalPath  string `json:"original_path"`
}

// Export bundles a variant's manifest and every blob it references into a
// gzip-compressed tar at output. The source repository is never mutated,
// so a failed or cancelled export is safe to retry. Cancellation at any
// checkpoint removes the staging area and the output file.
func (m *Manager) Export(ctx context.Context, manifestPath, model, tag, output string, fn ProgressFunc) (err error) {
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s:%s", ErrModelNotFound, model, tag)
		}
		return err
	}

	staging, err := os.MkdirTemp(envconfig.TmpDir(), "ollama-export-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	// the output file exists only once archive assembly starts; remove it
	// again on any later failure or cancellation
	var partial bool
	defer func() {
		if err != nil && partial {
			os.Remove(output)
		}
	}()

	metadata, err := json.MarshalIndent(archiveMetadata{
		ModelName:     model,
		ParameterSize: tag,
		OriginalPath:  filepath.Dir(manifestPath),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "metadata.json"), metadata, 0o644); err != nil {
		return fmt.Errorf("staging metadata: %w", err)
	}

	if err := copyFile(manifestPath, filepath.Join(staging, "manifest")); err != nil {
		return fmt.Errorf("staging manifest: %w", err)
	}

	// config first, then layers in manifest order
	blobs := make([]Layer, 0, len(manifest.Layers)+1)
	if manifest.Config.Digest != "" {
		blobs = append(blobs, manifest.Config)
	}
	blobs = append(blobs, manifest.Layers...)

	total := manifest.TotalSize()
	var copied int64

	names := []string{"metadata.json", "manifest"}
	for _, blob := range blobs {
		src, err := m.layout.BlobPath(blob.Digest)
		if err != nil {
			return err
		}
		if _, err := os.Stat(src); err != nil {
			return fmt.Errorf("%w: %s", ErrBlobMissing, blob.Digest)
		}

		name := filepath.Base(src)
		msg := fmt.Sprintf("copying %s (%s)", name, format.HumanBytes(blob.Size))
		if err := report(ctx, fn, msg, stagePercent(copied, total)); err != nil {
			return err
		}

		if err := copyFile(src, filepath.Join(staging, name)); err != nil {
			return fmt.Errorf("copying blob %s: %w", name, err)
		}

		copied += blob.Size
		if err := report(ctx, fn, "copied "+name, stagePercent(copied, total)); err != nil {
			return err
		}

		names = append(names, name)
	}

	if err := report(ctx, fn, "creating archive", 95); err != nil {
		return err
	}

	partial = true
	err = writeArchive(output, staging, names, func(name string) error {
		return report(ctx, fn, fmt.Sprintf("adding %s to archive", name), 95)
	})
	if err != nil {
		return err
	}

	return report(ctx, fn, "export complete", 100)
}

// stagePercent maps bytes copied so far into the 0-95 range reserved for
// blob staging; archive assembly owns 95-100.
func stagePercent(copied, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(copied * 95 / total)
}
