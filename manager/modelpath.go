package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/404FoundingFather/ollama-model-manager/envconfig"
)

const (
	DefaultRegistry  = "registry.ollama.ai"
	DefaultNamespace = "library"
	DefaultTag       = "default"

	digestScheme = "sha256"
)

// Layout describes where a model repository keeps its manifests and blobs.
// It is resolved once and immutable afterwards.
type Layout struct {
	Root         string
	ManifestsDir string
	BlobsDir     string
}

// layoutStrategy maps a repository root to a candidate layout. Strategies
// are tried in order; the first whose Detect accepts the root wins.
type layoutStrategy struct {
	Name   string
	Detect func(root string) bool
	Apply  func(root string) Layout
}

var layoutStrategies = []layoutStrategy{
	{
		// current shape: manifests and blobs under a nested models dir
		Name: "models",
		Detect: func(root string) bool {
			info, err := os.Stat(filepath.Join(root, "models"))
			return err == nil && info.IsDir()
		},
		Apply: func(root string) Layout {
			models := filepath.Join(root, "models")
			return Layout{
				Root:         root,
				ManifestsDir: filepath.Join(models, "manifests"),
				BlobsDir:     filepath.Join(models, "blobs"),
			}
		},
	},
	{
		// legacy shape: manifests and blobs directly under the root
		Name:   "legacy",
		Detect: func(root string) bool { return true },
		Apply: func(root string) Layout {
			return Layout{
				Root:         root,
				ManifestsDir: filepath.Join(root, "manifests"),
				BlobsDir:     filepath.Join(root, "blobs"),
			}
		},
	},
}

// ResolveLayout inspects root and picks the first matching layout strategy.
func ResolveLayout(root string) Layout {
	for _, s := range layoutStrategies {
		if s.Detect(root) {
			return s.Apply(root)
		}
	}
	// unreachable: the legacy strategy accepts everything
	return layoutStrategies[len(layoutStrategies)-1].Apply(root)
}

// DefaultRoot returns the repository root: OLLAMA_MODELS if set, otherwise
// ~/.ollama.
func DefaultRoot() (string, error) {
	if dir := envconfig.Models(); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".ollama"), nil
}

// LibraryDir is the fixed two-level hierarchy holding one directory per
// model, with one manifest file per tag inside it.
func (l Layout) LibraryDir() string {
	return filepath.Join(l.ManifestsDir, DefaultRegistry, DefaultNamespace)
}

// ModelDir returns the directory holding all manifests for one model.
func (l Layout) ModelDir(model string) string {
	return filepath.Join(l.LibraryDir(), model)
}

// ManifestPath returns the canonical manifest path for a variant. The tag
// is a file, not a directory; older layouts that nest it deeper are handled
// by the manifest locator fallback on read.
func (l Layout) ManifestPath(model, tag string) string {
	return filepath.Join(l.ModelDir(model), tag)
}

// BlobPath maps a digest to its on-disk path without checking existence.
// Callers must treat a missing file as the blob-missing condition.
func (l Layout) BlobPath(digest string) (string, error) {
	scheme, hex, ok := strings.Cut(digest, ":")
	if !ok || scheme != digestScheme || !isHex(hex) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}

	return filepath.Join(l.BlobsDir, scheme+"-"+hex), nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
