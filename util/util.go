// Package util holds small filesystem and path helpers (ValidateFile is
// called by config loading) and the FixedString hash used for proximity
// checkpoint naming, adapted from activecm/rita's util package.
package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath = errors.New("path cannot be empty string")

	ErrFileDoesNotExist = errors.New("file does not exist")
	ErrFileIsEmpty      = errors.New("file is empty")
	ErrPathIsDir        = errors.New("given path is a directory, not a file")

	ErrDirDoesNotExist = errors.New("directory does not exist")
	ErrDirIsEmpty      = errors.New("directory is empty")
	ErrPathIsNotDir    = errors.New("given path is not a directory")
)

// ParseRelativePath resolves "~/"-prefixed and "."-prefixed paths to
// absolute paths.
func ParseRelativePath(dir string) (string, error) {
	if dir == "" {
		return "", ErrInvalidPath
	}

	switch {
	case strings.HasPrefix(dir, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, dir[2:]), nil
	case strings.HasPrefix(dir, "."):
		currentDir, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(currentDir, dir), nil
	default:
		return dir, nil
	}
}

// ValidateFile returns an error if the path does not exist, is a directory,
// or is empty.
func ValidateFile(afs Statter, path string) error {
	if path == "" {
		return ErrInvalidPath
	}

	info, err := afs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileDoesNotExist, path)
		}
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathIsDir, path)
	}

	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrFileIsEmpty, path)
	}

	return nil
}

// ValidateDirectory returns an error if the path does not exist or is not a
// directory. Emptiness is left to the caller, since afero's directory
// listing isn't available through the narrow Statter interface below.
func ValidateDirectory(afs Statter, dir string) error {
	if dir == "" {
		return ErrInvalidPath
	}

	info, err := afs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDirDoesNotExist, dir)
		}
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathIsNotDir, dir)
	}

	return nil
}

// Statter is satisfied by afero.Fs (and os itself); declared here instead of
// importing afero so util stays a leaf package.
type Statter interface {
	Stat(name string) (os.FileInfo, error)
}
