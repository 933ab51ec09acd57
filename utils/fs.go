package utils

import (
	"fmt"
	"os"
)

// CreateFolder ensures a directory exists, creating parents as needed.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", path, err)
	}
	return nil
}
