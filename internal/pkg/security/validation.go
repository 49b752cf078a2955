// Package security provides input validation for names arriving over
// the HTTP API.
package security

import (
	"fmt"
	"regexp"
)

// Validation limits.
const (
	// MaxNameLength caps qrel set names and run IDs.
	MaxNameLength = 128

	// MaxRequestSize caps request bodies. Run and qrel files for large
	// test collections stay well under this.
	MaxRequestSize = 50 * 1024 * 1024 // 50MB
)

// namePattern allows letters, digits and common separator characters.
// Names become storage keys and file-like identifiers, so anything
// resembling path or wildcard syntax is rejected.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateName checks a user-supplied identifier such as a qrel set
// name or run ID.
func ValidateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s must not be empty", kind)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%s exceeds %d characters", kind, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%s contains invalid characters (allowed: letters, digits, '.', '_', '-')", kind)
	}
	return nil
}
