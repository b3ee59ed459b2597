package hashutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v3"
)

// ExtractStripTop extracts a zip or tar.gz archive at src into dest,
// dropping the archive's single top-level directory component (the
// layout every JDK distribution and Forge installer ships as, e.g.
// "jdk-21.0.4+7/bin/java" -> "bin/java").
func ExtractStripTop(src, dest string) error {
	tmp, err := os.MkdirTemp(filepath.Dir(dest), ".extract-*")
	if err != nil {
		return fmt.Errorf("creating extraction scratch dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := unarchive(src, tmp); err != nil {
		return fmt.Errorf("extracting %s: %w", src, err)
	}

	top, err := singleTopLevelEntry(tmp)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(top)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Rename(filepath.Join(top, e.Name()), filepath.Join(dest, e.Name())); err != nil {
			return fmt.Errorf("moving %s into place: %w", e.Name(), err)
		}
	}
	return nil
}

func unarchive(src, dest string) error {
	switch {
	case strings.HasSuffix(strings.ToLower(src), ".zip"):
		return archiver.NewZip().Unarchive(src, dest)
	case strings.HasSuffix(strings.ToLower(src), ".tar.gz"), strings.HasSuffix(strings.ToLower(src), ".tgz"):
		return archiver.NewTarGz().Unarchive(src, dest)
	default:
		return fmt.Errorf("unsupported archive extension: %s", src)
	}
}

// singleTopLevelEntry returns the one directory entry found at the root
// of an extracted archive, the container a JDK tarball or Forge
// installer always uses.
func singleTopLevelEntry(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return "", fmt.Errorf("hashutil: expected a single top-level directory, found %d entries", len(entries))
	}
	return filepath.Join(root, entries[0].Name()), nil
}

// ExtractFile extracts exactly one named entry from a zip archive into
// memory and returns its bytes. Used to pull a Forge installer's
// "version.json" out without unpacking the whole jar.
func ExtractFile(archivePath, entryName string) ([]byte, error) {
	var out []byte
	found := false
	z := archiver.NewZip()
	err := z.Walk(archivePath, func(f archiver.File) error {
		if found {
			return nil
		}
		if f.Name() != entryName {
			return nil
		}
		data := make([]byte, f.Size())
		if _, err := io.ReadFull(f, data); err != nil {
			return fmt.Errorf("reading %s: %w", entryName, err)
		}
		out = data
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("hashutil: %s not found in %s", entryName, archivePath)
	}
	return out, nil
}
