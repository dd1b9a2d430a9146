package manager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportRoundTrip(t *testing.T) {
	source := testLayout(t)
	manifestPath, blobs := populateVariant(t, source, "mistral", "7b")

	archive := filepath.Join(t.TempDir(), "mistral-7b.tar.gz")
	require.NoError(t, testManager(t, source).Export(context.Background(),
		manifestPath, "mistral", "7b", archive, neverCancel().fn))

	dest := testLayout(t)
	rec := neverCancel()
	require.NoError(t, testManager(t, dest).Import(context.Background(), archive, "", rec.fn))
	require.Equal(t, 100, rec.percents[len(rec.percents)-1])

	// manifest byte-identical to the source
	want, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	got, err := os.ReadFile(dest.ManifestPath("mistral", "7b"))
	require.NoError(t, err)
	require.Equal(t, want, got)

	// every referenced blob byte-identical to the source
	for digest, content := range blobs {
		path, err := dest.BlobPath(digest)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, content, data)
	}

	// the imported variant shows up in a scan
	models, err := testManager(t, dest).List()
	require.NoError(t, err)
	require.Len(t, models["mistral"], 1)
}

func TestImportCustomName(t *testing.T) {
	source := testLayout(t)
	manifestPath, _ := populateVariant(t, source, "mistral", "7b")

	archive := filepath.Join(t.TempDir(), "mistral-7b.tar.gz")
	require.NoError(t, testManager(t, source).Export(context.Background(),
		manifestPath, "mistral", "7b", archive, neverCancel().fn))

	t.Run("name with tag", func(t *testing.T) {
		dest := testLayout(t)
		require.NoError(t, testManager(t, dest).Import(context.Background(), archive, "renamed:3b", neverCancel().fn))
		_, err := os.Stat(dest.ManifestPath("renamed", "3b"))
		require.NoError(t, err)
	})

	t.Run("name without tag defaults", func(t *testing.T) {
		dest := testLayout(t)
		require.NoError(t, testManager(t, dest).Import(context.Background(), archive, "renamed", neverCancel().fn))
		_, err := os.Stat(dest.ManifestPath("renamed", "default"))
		require.NoError(t, err)
	})

	t.Run("custom name outranks metadata", func(t *testing.T) {
		dest := testLayout(t)
		require.NoError(t, testManager(t, dest).Import(context.Background(), archive, "override:1b", neverCancel().fn))
		_, err := os.Stat(dest.ManifestPath("override", "1b"))
		require.NoError(t, err)
		_, err = os.Stat(dest.ManifestPath("mistral", "7b"))
		require.True(t, os.IsNotExist(err))
	})
}

func TestInferNameFromFilename(t *testing.T) {
	cases := []struct {
		path  string
		model string
		tag   string
	}{
		{"alpha-7b.tar.gz", "alpha", "7b"},
		{"alpha.tar.gz", "alpha", "default"},
		{"/some/dir/alpha-7b.tgz", "alpha", "7b"},
		{"deep-seek-33b.tar.gz", "deep-seek", "33b"},
		{"alpha", "alpha", "default"},
	}

	for _, tt := range cases {
		t.Run(tt.path, func(t *testing.T) {
			model, tag := inferNameFromFilename(tt.path)
			require.Equal(t, tt.model, model)
			require.Equal(t, tt.tag, tag)
		})
	}
}

func TestImportNameFromArchiveFilename(t *testing.T) {
	// archive without metadata.json: the filename decides
	layout := testLayout(t)
	content := []byte("blob")
	digest := writeBlob(t, layout, content)
	blobName := "sha256-" + digest[len("sha256:"):]

	manifest := []byte(`{"config":{"digest":"` + digest + `","size":4},"layers":[{"digest":"` + digest + `","size":4}]}`)
	archive := filepath.Join(t.TempDir(), "alpha-7b.tar.gz")
	writeTestArchive(t, archive, map[string][]byte{
		"manifest": manifest,
		blobName:   content,
	})

	dest := testLayout(t)
	require.NoError(t, testManager(t, dest).Import(context.Background(), archive, "", neverCancel().fn))
	_, err := os.Stat(dest.ManifestPath("alpha", "7b"))
	require.NoError(t, err)
}

func TestImportManifestMissing(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "broken.tar.gz")
	writeTestArchive(t, archive, map[string][]byte{
		"metadata.json": []byte(`{"model_name":"x","parameter_size":"1b","original_path":""}`),
	})

	err := testManager(t, testLayout(t)).Import(context.Background(), archive, "", neverCancel().fn)
	require.ErrorIs(t, err, ErrManifestMissing)
}

func TestImportArchiveNotFound(t *testing.T) {
	err := testManager(t, testLayout(t)).Import(context.Background(),
		filepath.Join(t.TempDir(), "nope.tar.gz"), "", neverCancel().fn)
	require.ErrorIs(t, err, ErrArchiveNotFound)
}

func TestImportBlobMissingInArchive(t *testing.T) {
	layout := testLayout(t)
	config := []byte("config")
	configDigest := writeBlob(t, layout, config)
	configName := "sha256-" + configDigest[len("sha256:"):]

	// layer digest referenced but absent from the archive
	manifest := []byte(`{"config":{"digest":"` + configDigest + `","size":6},` +
		`"layers":[{"digest":"sha256:00000000000000000000000000000000","size":10}]}`)

	archive := filepath.Join(t.TempDir(), "partial-7b.tar.gz")
	writeTestArchive(t, archive, map[string][]byte{
		"manifest": manifest,
		configName: config,
	})

	dest := testLayout(t)
	err := testManager(t, dest).Import(context.Background(), archive, "", neverCancel().fn)
	require.ErrorIs(t, err, ErrBlobMissingInArchive)

	// blobs copied before the failure are not rolled back
	configPath, err2 := dest.BlobPath(configDigest)
	require.NoError(t, err2)
	_, statErr := os.Stat(configPath)
	require.NoError(t, statErr)

	// neither is the installed manifest
	_, statErr = os.Stat(dest.ManifestPath("partial", "7b"))
	require.NoError(t, statErr)
}

func TestImportRejectsNestedMembers(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "evil.tar.gz")
	writeTestArchive(t, archive, map[string][]byte{
		"manifest":  []byte(`{"config":{"digest":"","size":0},"layers":[]}`),
		"../escape": []byte("nope"),
	})

	err := testManager(t, testLayout(t)).Import(context.Background(), archive, "", neverCancel().fn)
	require.Error(t, err)
}

func TestImportCancellation(t *testing.T) {
	staging := t.TempDir()
	t.Setenv("OLLAMA_TMPDIR", staging)

	source := testLayout(t)
	manifestPath, _ := populateVariant(t, source, "mistral", "7b")
	archive := filepath.Join(t.TempDir(), "mistral-7b.tar.gz")
	require.NoError(t, testManager(t, source).Export(context.Background(),
		manifestPath, "mistral", "7b", archive, neverCancel().fn))

	dest := testLayout(t)
	err := testManager(t, dest).Import(context.Background(), archive, "", (&countingProgress{cancelAt: 0}).fn)
	require.ErrorIs(t, err, ErrCancelled)

	// working area is gone; nothing was installed this early
	entries, readErr := os.ReadDir(staging)
	require.NoError(t, readErr)
	require.Empty(t, entries)
	_, statErr := os.Stat(dest.ManifestPath("mistral", "7b"))
	require.True(t, os.IsNotExist(statErr))
}

func TestImportFinalCheckpointIsNotification(t *testing.T) {
	source := testLayout(t)
	manifestPath, _ := populateVariant(t, source, "mistral", "7b")
	archive := filepath.Join(t.TempDir(), "mistral-7b.tar.gz")
	require.NoError(t, testManager(t, source).Export(context.Background(),
		manifestPath, "mistral", "7b", archive, neverCancel().fn))

	dest := testLayout(t)

	// decline to continue only at the 100% report: the import is already
	// committed and must still succeed
	fn := func(message string, percent int) bool {
		return percent != 100
	}
	require.NoError(t, testManager(t, dest).Import(context.Background(), archive, "", fn))

	_, err := os.Stat(dest.ManifestPath("mistral", "7b"))
	require.NoError(t, err)
}

func TestImportVerify(t *testing.T) {
	// blob content does not hash to its claimed digest
	lying := []byte("tampered")
	goodDigest := "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	blobName := "sha256-" + goodDigest[len("sha256:"):]

	manifest := []byte(`{"config":{"digest":"` + goodDigest + `","size":8},"layers":[]}`)
	archive := filepath.Join(t.TempDir(), "tampered-7b.tar.gz")
	writeTestArchive(t, archive, map[string][]byte{
		"manifest": manifest,
		blobName:   lying,
	})

	t.Run("verification off trusts content", func(t *testing.T) {
		dest := testLayout(t)
		require.NoError(t, testManager(t, dest).Import(context.Background(), archive, "", neverCancel().fn))
	})

	t.Run("verification on rejects it", func(t *testing.T) {
		dest := testLayout(t)
		err := testManager(t, dest, WithVerify(true)).Import(context.Background(), archive, "", neverCancel().fn)
		require.ErrorIs(t, err, ErrDigestMismatch)

		// the rejected blob is not left behind
		path, pathErr := dest.BlobPath(goodDigest)
		require.NoError(t, pathErr)
		_, statErr := os.Stat(path)
		require.True(t, os.IsNotExist(statErr))
	})
}
