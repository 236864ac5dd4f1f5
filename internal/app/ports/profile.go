package ports

import (
	"fmt"
	"strings"
)

// ValidateProfileID rejects ids that cannot safely name a file or key.
func ValidateProfileID(id string) error {
	if strings.TrimSpace(id) == "" || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidProfileID, id)
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidProfileID, id)
	}
	return nil
}
