package util

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
)

// fingerprintChunkSize is the read buffer used while hashing. Videos can be
// several gigabytes, so the file is streamed and never held in memory.
const fingerprintChunkSize = 64 * 1024

// Fingerprint computes the hex-encoded MD5 digest of a file's content.
// MD5 is used purely for change/identity detection, not for security;
// a 128-bit digest is plenty to tell two downloads apart.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, fingerprintChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
