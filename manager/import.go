package manager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/404FoundingFather/ollama-model-manager/envconfig"
	"github.com/404FoundingFather/ollama-model-manager/format"
)

// Import extracts an exported archive and installs its manifest and blobs
// into the repository. customName overrides the destination as "name[:tag]";
// otherwise the archive's metadata and finally its filename decide. Blobs
// already installed before a failure are not rolled back.
func (m *Manager) Import(ctx context.Context, archivePath, customName string, fn ProgressFunc) error {
	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}

	staging, err := os.MkdirTemp(envconfig.TmpDir(), "ollama-import-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := report(ctx, fn, "extracting archive", 10); err != nil {
		return err
	}
	err = extractArchive(archivePath, staging, func(member string) error {
		return report(ctx, fn, "extracting "+member, 10)
	})
	if err != nil {
		return err
	}

	manifestSrc := filepath.Join(staging, "manifest")
	if _, err := os.Stat(manifestSrc); err != nil {
		return ErrManifestMissing
	}

	manifest, err := loadManifest(manifestSrc)
	if err != nil {
		return err
	}

	model, tag, err := resolveImportName(customName, staging, archivePath)
	if err != nil {
		return err
	}

	// the model directory is created; the tag itself is a file inside it
	if err := os.MkdirAll(m.layout.ModelDir(model), 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	if err := report(ctx, fn, fmt.Sprintf("importing %s:%s", model, tag), 20); err != nil {
		return err
	}
	if err := copyFile(manifestSrc, m.layout.ManifestPath(model, tag)); err != nil {
		return fmt.Errorf("installing manifest: %w", err)
	}

	if err := os.MkdirAll(m.layout.BlobsDir, 0o755); err != nil {
		return fmt.Errorf("creating blobs directory: %w", err)
	}

	if manifest.Config.Digest != "" {
		if err := report(ctx, fn, "copying config", 25); err != nil {
			return err
		}
		if err := m.installBlob(staging, manifest.Config); err != nil {
			return err
		}
	}

	for i, layer := range manifest.Layers {
		percent := 25 + i*70/len(manifest.Layers)
		msg := fmt.Sprintf("copying %s (%s)", layer.Digest, format.HumanBytes(layer.Size))
		if err := report(ctx, fn, msg, percent); err != nil {
			return err
		}
		if err := m.installBlob(staging, layer); err != nil {
			return err
		}
	}

	// effects are committed; the final report is a notification only
	notify(fn, "import complete", 100)
	return nil
}

// installBlob moves one referenced blob from the extracted archive into the
// blob store, optionally verifying its content hash.
func (m *Manager) installBlob(staging string, blob Layer) error {
	dst, err := m.layout.BlobPath(blob.Digest)
	if err != nil {
		return err
	}

	src := filepath.Join(staging, filepath.Base(dst))
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%w: %s", ErrBlobMissingInArchive, blob.Digest)
	}

	if !m.verify {
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("installing blob %s: %w", blob.Digest, err)
		}
		return nil
	}

	if err := copyFileVerify(src, dst, blob.Digest); err != nil {
		return fmt.Errorf("installing blob %s: %w", blob.Digest, err)
	}
	return nil
}

func copyFileVerify(src, dst, digest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if sum := hex.EncodeToString(h.Sum(nil)); digestScheme+":"+sum != digest {
		os.Remove(dst)
		return fmt.Errorf("%w: content hashes to %s", ErrDigestMismatch, sum)
	}
	return nil
}

// resolveImportName picks the destination variant by priority: the custom
// name argument, then archive metadata, then the archive filename.
func resolveImportName(customName, staging, archivePath string) (model, tag string, err error) {
	if customName != "" {
		model, tag, ok := strings.Cut(customName, ":")
		if !ok || tag == "" {
			tag = DefaultTag
		}
		return model, tag, nil
	}

	if data, err := os.ReadFile(filepath.Join(staging, "metadata.json")); err == nil {
		var meta archiveMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return "", "", fmt.Errorf("parsing metadata.json: %w", err)
		}
		if meta.ModelName != "" && meta.ParameterSize != "" {
			return meta.ModelName, meta.ParameterSize, nil
		}
	}

	model, tag = inferNameFromFilename(archivePath)
	return model, tag, nil
}

// inferNameFromFilename splits the archive stem at its last hyphen:
// "alpha-7b.tar.gz" becomes alpha:7b, "alpha.tar.gz" becomes alpha:default.
func inferNameFromFilename(archivePath string) (model, tag string) {
	stem := filepath.Base(archivePath)
	for _, ext := range []string{".tar.gz", ".tgz", ".tar"} {
		if strings.HasSuffix(stem, ext) {
			stem = strings.TrimSuffix(stem, ext)
			break
		}
	}

	if i := strings.LastIndex(stem, "-"); i > 0 && i < len(stem)-1 {
		return stem[:i], stem[i+1:]
	}
	return stem, DefaultTag
}
