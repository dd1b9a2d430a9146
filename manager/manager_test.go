package manager

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// testLayout builds an empty store in the current (nested models) shape.
func testLayout(t *testing.T) Layout {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0o755))

	layout := ResolveLayout(root)
	require.NoError(t, os.MkdirAll(layout.ManifestsDir, 0o755))
	require.NoError(t, os.MkdirAll(layout.BlobsDir, 0o755))
	return layout
}

func testManager(t *testing.T, layout Layout, opts ...Option) *Manager {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWithLayout(layout, append([]Option{WithLogger(quiet)}, opts...)...)
}

// writeBlob stores content under its real digest and returns the digest.
func writeBlob(t *testing.T, layout Layout, content []byte) string {
	t.Helper()
	sum := sha256.Sum256(content)
	digest := "sha256:" + hex.EncodeToString(sum[:])

	path, err := layout.BlobPath(digest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return digest
}

func writeManifest(t *testing.T, layout Layout, model, tag string, manifest *Manifest) string {
	t.Helper()
	path := layout.ManifestPath(model, tag)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// readArchive returns every member of a tar.gz archive by name.
func readArchive(t *testing.T, path string) map[string][]byte {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	gz, err := gzip.NewReader(file)
	require.NoError(t, err)
	defer gz.Close()

	members := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		members[hdr.Name] = data
	}
	return members
}

// writeTestArchive builds a flat tar.gz from the given members.
func writeTestArchive(t *testing.T, path string, members map[string][]byte) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	for name, data := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(data))}))
		_, err := tw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, file.Close())
}

// countingProgress cancels at the nth checkpoint (0-based); cancelAt < 0
// never cancels. It records every event it sees.
type countingProgress struct {
	calls    int
	cancelAt int
	messages []string
	percents []int
}

func (c *countingProgress) fn(message string, percent int) bool {
	c.messages = append(c.messages, message)
	c.percents = append(c.percents, percent)
	cancel := c.cancelAt >= 0 && c.calls == c.cancelAt
	c.calls++
	return !cancel
}

func neverCancel() *countingProgress {
	return &countingProgress{cancelAt: -1}
}
