// Package hashutil streams file hashes and extracts archives.
package hashutil

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Algorithm identifies one of the three hash functions this module's
// assets are validated against.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	MD5    Algorithm = "md5"
)

func newHasher(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case MD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("hashutil: unknown algorithm %q", algo)
	}
}

// HashFile streams path through algo and returns the lower-case hex
// digest. The file is read in full, chunk-wise, without loading it
// entirely into memory.
func HashFile(path string, algo Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := newHasher(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashReader streams r through algo, also writing every byte read to w
// (which may be nil). It's used by the download engine to hash a
// response body while writing it to disk in the same pass.
func HashReader(r io.Reader, w io.Writer, algo Algorithm) (string, int64, error) {
	h, err := newHasher(algo)
	if err != nil {
		return "", 0, err
	}
	var dest io.Writer = h
	if w != nil {
		dest = io.MultiWriter(h, w)
	}
	n, err := io.Copy(dest, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Matches reports whether the file at path already has the given hash
// under algo. A missing file or unreadable file is a non-match, not an
// error.
func Matches(path string, algo Algorithm, expectedHex string) bool {
	got, err := HashFile(path, algo)
	if err != nil {
		return false
	}
	return got == expectedHex
}

// WriteAtomic writes data to path by first writing to a sibling ".tmp"
// file and renaming it into place, so a crash mid-write never leaves a
// corrupt file at the final path.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
