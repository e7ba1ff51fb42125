package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidName is the base of every filename validation failure.
var ErrInvalidName = errors.New("invalid name")

// ValidateFilename validates a single path segment used as a file or
// directory name.
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}

	if len(name) > 255 {
		return fmt.Errorf("%w: name is too long (max 255 characters)", ErrInvalidName)
	}

	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: name must not contain path separators", ErrInvalidName)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("%w: name is reserved", ErrInvalidName)
	}

	return nil
}
