// Package fileutils holds the crash-safe file replacement used for the config file and installed mod archives.
package fileutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	siblingMarker        = ".vsmm"
	maxSiblingCandidates = 100
	defaultDirMode       = 0o755
	DefaultFileMode      = os.FileMode(0o644)
)

// FileExists reports whether path exists. Stat errors count as missing.
func FileExists(fs afero.Fs, path string) bool {
	exists, _ := afero.Exists(fs, path)
	return exists
}

// WriteFileAtomic writes data next to targetPath and swaps it into place, creating parent directories.
// A failed write leaves any previous content untouched.
func WriteFileAtomic(fs afero.Fs, targetPath string, data []byte, perm os.FileMode) error {
	if err := fs.MkdirAll(filepath.Dir(targetPath), defaultDirMode); err != nil {
		return err
	}

	tempPath, err := nextSiblingPath(fs, targetPath, ".tmp")
	if err != nil {
		return err
	}
	if err := removePathIfExists(fs, tempPath); err != nil {
		return removePathError("temp file", tempPath, err)
	}
	if err := afero.WriteFile(fs, tempPath, data, perm); err != nil {
		return err
	}

	return MoveIntoPlace(fs, tempPath, targetPath)
}

// MoveIntoPlace renames sourcePath onto targetPath. An existing target is kept as a backup
// until the swap succeeds and restored when it does not. sourcePath is gone afterwards either way.
func MoveIntoPlace(fs afero.Fs, sourcePath string, targetPath string) error {
	exists, err := afero.Exists(fs, targetPath)
	if err != nil {
		return cleanupSourceOnError(fs, sourcePath, err)
	}
	if !exists {
		return renameIntoMissingTarget(fs, sourcePath, targetPath)
	}

	backupPath, err := nextSiblingPath(fs, targetPath, ".bak")
	if err != nil {
		return cleanupSourceOnError(fs, sourcePath, err)
	}
	return replaceExistingFile(fs, sourcePath, targetPath, backupPath)
}

func nextSiblingPath(fs afero.Fs, targetPath string, suffix string) (string, error) {
	base := targetPath + siblingMarker + suffix

	candidate := base
	for i := 0; i < maxSiblingCandidates; i++ {
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s.%d", base, i+1)
	}

	return "", fmt.Errorf("cannot allocate a free %s path next to %s", suffix, targetPath)
}

func removePathIfExists(fs afero.Fs, path string) error {
	removeErr := fs.Remove(path)
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return removeErr
	}
	return nil
}

func removePathError(kind string, path string, err error) error {
	return fmt.Errorf("failed to remove %s %s: %w", kind, path, err)
}

func cleanupSourceOnError(fs afero.Fs, sourcePath string, originalErr error) error {
	if cleanupErr := removePathIfExists(fs, sourcePath); cleanupErr != nil {
		return errors.Join(originalErr, removePathError("temp file", sourcePath, cleanupErr))
	}
	return originalErr
}

func renameIntoMissingTarget(fs afero.Fs, sourcePath string, targetPath string) error {
	renameErr := fs.Rename(sourcePath, targetPath)
	if renameErr == nil {
		return nil
	}
	return cleanupSourceOnError(fs, sourcePath, renameErr)
}

func replaceExistingFile(fs afero.Fs, sourcePath string, targetPath string, backupPath string) error {
	// Overwrite-rename keeps the target present throughout where the filesystem allows it.
	if fs.Rename(sourcePath, targetPath) == nil {
		return nil
	}

	if renameErr := fs.Rename(targetPath, backupPath); renameErr != nil {
		return cleanupSourceOnError(fs, sourcePath, renameErr)
	}

	if renameErr := fs.Rename(sourcePath, targetPath); renameErr != nil {
		return restoreBackup(fs, sourcePath, targetPath, backupPath, renameErr)
	}

	if removeErr := removePathIfExists(fs, backupPath); removeErr != nil {
		return removePathError("backup file", backupPath, removeErr)
	}
	return nil
}

func restoreBackup(fs afero.Fs, sourcePath string, targetPath string, backupPath string, renameErr error) error {
	err := cleanupSourceOnError(fs, sourcePath, renameErr)
	if rollbackErr := fs.Rename(backupPath, targetPath); rollbackErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to restore backup %s: %w", backupPath, rollbackErr))
	}
	return err
}
