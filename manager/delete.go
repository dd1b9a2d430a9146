package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Delete removes a variant's manifest and best-effort-deletes its blobs.
// With reference counting enabled (the default), blobs still referenced by
// another manifest in the store are kept. The manifest is the authoritative
// record of the variant, so only its removal can fail the operation; blob
// removals log warnings instead.
func (m *Manager) Delete(ctx context.Context, model, tag string, fn ProgressFunc) error {
	manifestPath := m.layout.ManifestPath(model, tag)
	if _, err := os.Stat(manifestPath); err != nil {
		return fmt.Errorf("%w: %s:%s", ErrModelNotFound, model, tag)
	}

	if err := report(ctx, fn, fmt.Sprintf("reading manifest for %s:%s", model, tag), 10); err != nil {
		return err
	}

	manifest, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	digests := manifest.Digests()

	var shared map[string]bool
	if m.refCount {
		shared = m.referencedElsewhere(manifestPath)
	}

	if err := report(ctx, fn, "deleting blob files", 30); err != nil {
		return err
	}

	for i, digest := range digests {
		blobPath, err := m.layout.BlobPath(digest)
		if err != nil {
			m.logger.Warn("skipping invalid digest", "digest", digest, "error", err)
			continue
		}
		name := filepath.Base(blobPath)

		if shared[digest] {
			m.logger.Info("keeping blob referenced by another model", "blob", name)
			continue
		}

		percent := 30 + i*60/len(digests)
		if err := report(ctx, fn, "deleting "+name, percent); err != nil {
			return err
		}

		if err := os.Remove(blobPath); err != nil {
			// best-effort: a missing or stuck blob never fails the delete
			m.logger.Warn("could not delete blob", "blob", name, "error", err)
		}
	}

	if err := report(ctx, fn, "deleting manifest", 90); err != nil {
		return err
	}
	if err := os.Remove(manifestPath); err != nil {
		return fmt.Errorf("deleting manifest: %w", err)
	}

	// the variant is gone at this point; directory cleanup proceeds even if
	// the caller cancels now
	modelDir := m.layout.ModelDir(model)
	if entries, err := os.ReadDir(modelDir); err == nil && len(entries) == 0 {
		notify(fn, fmt.Sprintf("removing empty model directory %s", model), 95)
		if err := os.Remove(modelDir); err != nil {
			m.logger.Warn("could not remove model directory", "model", model, "error", err)
		}
	}

	notify(fn, "delete complete", 100)
	return nil
}

// referencedElsewhere collects every digest referenced by a manifest other
// than the one being deleted. Unreadable manifests are skipped, matching
// scan semantics.
func (m *Manager) referencedElsewhere(exclude string) map[string]bool {
	shared := make(map[string]bool)

	models, err := m.List()
	if err != nil {
		m.logger.Warn("could not scan store for shared blobs", "error", err)
		return shared
	}

	exclude = filepath.Clean(exclude)
	for _, variants := range models {
		for _, variant := range variants {
			if filepath.Clean(variant.ManifestPath) == exclude {
				continue
			}
			manifest, err := loadManifest(variant.ManifestPath)
			if err != nil {
				continue
			}
			for _, digest := range manifest.Digests() {
				shared[digest] = true
			}
		}
	}

	return shared
}
