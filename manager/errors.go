package manager

import "errors"

var (
	// ErrModelNotFound is returned when no manifest exists for the
	// requested model:tag.
	ErrModelNotFound = errors.New("model not found")

	// ErrArchiveNotFound is returned when the archive given to Import does
	// not exist.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrManifestMissing is returned when an imported archive has no
	// manifest member.
	ErrManifestMissing = errors.New("no manifest found in archive")

	// ErrBlobMissing is returned when a manifest references a digest with
	// no backing file in the blob store.
	ErrBlobMissing = errors.New("blob not found")

	// ErrBlobMissingInArchive is returned when an imported manifest
	// references a digest with no backing file in the archive.
	ErrBlobMissingInArchive = errors.New("blob not found in archive")

	// ErrCancelled is returned when an operation is aborted at a progress
	// checkpoint, either by the context or by the callback.
	ErrCancelled = errors.New("operation cancelled")

	ErrInvalidDigest  = errors.New("invalid digest")
	ErrDigestMismatch = errors.New("digest mismatch")
)
