package store

import (
	"fmt"
	"os"
)

// CheckExists verifies if an index file exists at the given path.
// Returns true if the file exists, false otherwise.
func CheckExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check index existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("index path is a directory, expected file: %s", path)
	}
	return true, nil
}

// MustExist returns an error unless an index file exists at path.
func MustExist(path string) error {
	exists, err := CheckExists(path)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("index file not found: %s: %w", path, os.ErrNotExist)
	}
	return nil
}
