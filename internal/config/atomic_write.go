package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/hugo-lorenzo-mato/shockcast/internal/fsutil"
)

// AtomicWrite writes data to a file atomically, keeping the permissions of an
// existing file and defaulting to 0600 otherwise.
func AtomicWrite(path string, data []byte) error {
	perm := os.FileMode(0o600)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return fsutil.WriteFileAtomic(path, data, perm)
}

// CalculateETag returns a quoted strong ETag for content.
func CalculateETag(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%q", hex.EncodeToString(sum[:]))
}
