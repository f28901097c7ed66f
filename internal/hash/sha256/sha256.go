// Package sha256 computes content digests for exported crawl artifacts.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Reader hashes everything r yields and returns the hex digest and byte count.
func Reader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// File returns the hex digest of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	digest, _, err := Reader(f)
	return digest, err
}
