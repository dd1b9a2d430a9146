package manager

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Layer struct {
	MediaType string `json:"mediaType,omitempty"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
}

type Manifest struct {
	SchemaVersion int     `json:"schemaVersion,omitempty"`
	MediaType     string  `json:"mediaType,omitempty"`
	Config        Layer   `json:"config"`
	Layers        []Layer `json:"layers"`
}

// Size is the displayed variant size: the sum of layer sizes, excluding
// the config blob.
func (m *Manifest) Size() int64 {
	var total int64
	for _, layer := range m.Layers {
		total += layer.Size
	}
	return total
}

// TotalSize includes the config blob; used for transfer progress.
func (m *Manifest) TotalSize() int64 {
	return m.Size() + m.Config.Size
}

// Digests returns the config digest followed by each layer digest in
// manifest order, skipping empty entries.
func (m *Manifest) Digests() []string {
	digests := make([]string, 0, len(m.Layers)+1)
	if m.Config.Digest != "" {
		digests = append(digests, m.Config.Digest)
	}
	for _, layer := range m.Layers {
		if layer.Digest != "" {
			digests = append(digests, layer.Digest)
		}
	}
	return digests
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	return &manifest, nil
}

// Variant is one installed model variant, backed by exactly one manifest.
type Variant struct {
	Model        string  `json:"model"`
	Tag          string  `json:"parameter_size"`
	Size         int64   `json:"size"`
	SizeGiB      float64 `json:"size_gb"`
	Path         string  `json:"path"`
	ManifestPath string  `json:"manifest_file"`
}

// locateManifest resolves the manifest file for a tag entry using the
// ordered fallback: the entry itself when it is a file, otherwise a file
// inside the entry named after the tag, then "manifest", then
// "manifest.json".
func locateManifest(entry, tag string) (string, bool) {
	info, err := os.Stat(entry)
	if err != nil {
		return "", false
	}

	if !info.IsDir() {
		return entry, true
	}

	for _, name := range []string{tag, "manifest", "manifest.json"} {
		candidate := filepath.Join(entry, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return "", false
}

// ResolveManifest finds the manifest file for model:tag, trying the
// canonical file first and falling back to the legacy nested shapes.
func (m *Manager) ResolveManifest(model, tag string) (string, error) {
	if path, ok := locateManifest(m.layout.ManifestPath(model, tag), tag); ok {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s:%s", ErrModelNotFound, model, tag)
}

// List re-walks the manifest tree and parses every manifest found. There
// is no cached index; every call reflects the store as it is now. A
// manifest that fails to parse is skipped with a warning, never aborting
// the scan.
func (m *Manager) List() (map[string][]Variant, error) {
	models := make(map[string][]Variant)

	library := m.layout.LibraryDir()
	modelDirs, err := os.ReadDir(library)
	if err != nil {
		if os.IsNotExist(err) {
			return models, nil
		}
		return nil, err
	}

	for _, modelDir := range modelDirs {
		if !modelDir.IsDir() {
			continue
		}
		model := modelDir.Name()

		tags, err := os.ReadDir(filepath.Join(library, model))
		if err != nil {
			m.logger.Warn("skipping unreadable model directory", "model", model, "error", err)
			continue
		}

		for _, tagEntry := range tags {
			tag := tagEntry.Name()
			entry := filepath.Join(library, model, tag)

			manifestPath, ok := locateManifest(entry, tag)
			if !ok {
				m.logger.Debug("no manifest for tag entry", "model", model, "tag", tag)
				continue
			}

			manifest, err := loadManifest(manifestPath)
			if err != nil {
				m.logger.Warn("skipping unparseable manifest", "model", model, "tag", tag, "error", err)
				continue
			}

			size := manifest.Size()
			models[model] = append(models[model], Variant{
				Model:        model,
				Tag:          tag,
				Size:         size,
				SizeGiB:      float64(size) / (1 << 30),
				Path:         entry,
				ManifestPath: manifestPath,
			})
		}
	}

	return models, nil
}
