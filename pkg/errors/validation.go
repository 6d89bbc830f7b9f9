package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateDeviceID validates a device identifier for safety and correctness.
// It rejects identifiers that could be used for path traversal or injection
// when IDs end up in file names, cache keys, or database rows.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateDeviceID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "device ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "device ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "device ID contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "device ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// topologyNameRegex matches names safe for file names and database keys.
var topologyNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]*$`)

// ValidateTopologyName validates a topology name used as a store key.
func ValidateTopologyName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "topology name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidName, "topology name too long (max 128 characters)")
	}

	if !topologyNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid topology name: %q", name)
	}

	return nil
}

// ValidateOutputPath validates a file path supplied for exported output.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}

	return nil
}
