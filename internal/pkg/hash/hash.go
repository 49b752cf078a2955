// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// RunFingerprint derives a short stable identifier from raw run text.
// The same run text always yields the same fingerprint, so resubmitted
// runs can be detected.
func RunFingerprint(runText []byte) string {
	return SHA256Short(runText, 16)
}
