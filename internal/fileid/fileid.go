// Package fileid derives stable source IDs for seed files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

const prefix = "seed:"

// SourceID returns a stable ID for the file at path, derived from its absolute
// cleaned form. Records seeded from the same file share the ID, so a re-seed
// can replace them.
func SourceID(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return FromAbsolute(abs), nil
}

// FromAbsolute returns the source ID of an already absolute path.
func FromAbsolute(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(hash[:16])
}
