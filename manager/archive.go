package manager

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// writeArchive builds a gzip-compressed tar at path from the named files
// in dir, flat with no directory nesting. check runs once per file before
// it is added and may abort the archive.
func writeArchive(path, dir string, names []string, check func(name string) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, name := range names {
		if check != nil {
			if err := check(name); err != nil {
				return err
			}
		}
		if err := addTarFile(tw, filepath.Join(dir, name), name); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return out.Close()
}

func addTarFile(tw *tar.Writer, src, name string) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: info.Size(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, file)
	return err
}

// extractArchive unpacks a gzip-compressed tar into dir, member by member.
// check runs before each member and may abort the extraction. Members with
// path separators or non-regular types are rejected: the archive format is
// flat by construction.
func extractArchive(path, dir string, check func(member string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		name := hdr.Name
		if check != nil {
			if err := check(name); err != nil {
				return err
			}
		}

		if name != filepath.Base(name) || strings.Contains(name, "..") {
			return fmt.Errorf("refusing archive member with path: %q", name)
		}
		if hdr.Typeflag != tar.TypeReg {
			return fmt.Errorf("refusing non-file archive member: %q", name)
		}

		if err := writeFileFrom(tr, filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("extracting %s: %w", name, err)
		}
	}
}

func writeFileFrom(r io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return err
	}
	return out.Close()
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {
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

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
