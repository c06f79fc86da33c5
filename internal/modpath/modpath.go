// Package modpath keeps every write and delete inside the Mods directory.
package modpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

type OutsideRootError struct {
	Path         string
	ResolvedPath string
	Root         string
}

func (err OutsideRootError) Error() string {
	return fmt.Sprintf("resolved path %s for %s is outside root %s", err.ResolvedPath, err.Path, err.Root)
}

// linkFs is a filesystem that can tell symlinks apart and read them, such as afero.OsFs.
type linkFs interface {
	afero.Lstater
	afero.LinkReader
}

type resolver struct {
	evalSymlinks func(string) (string, error)
	abs          func(string) (string, error)
}

var system = resolver{evalSymlinks: filepath.EvalSymlinks, abs: filepath.Abs}

// ResolveWritablePath returns the real location destination would be written to,
// or an OutsideRootError when that location escapes root. The check is lexical on
// every filesystem and also follows symlinks where the filesystem has them.
func ResolveWritablePath(fs afero.Fs, root string, destination string) (string, error) {
	if err := system.lexicallyInside(root, destination); err != nil {
		return "", err
	}
	return system.resolve(fs, root, destination)
}

// EnsureWithinRoot rejects paths that lie outside root, lexically or through a symlink.
func EnsureWithinRoot(fs afero.Fs, root string, path string) error {
	_, err := ResolveWritablePath(fs, root, path)
	return err
}

// SafeFileName reduces a remote supplied file name to a plain base name.
// It reports false when nothing usable is left.
func SafeFileName(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(name[strings.LastIndex(name, "/")+1:])
	switch {
	case name == "", name == ".", name == "..", filepath.VolumeName(name) != "":
		return "", false
	}
	return name, true
}

// lexicallyInside compares cleaned absolute paths. The root itself does not count as inside.
func (r resolver) lexicallyInside(root string, destination string) error {
	absRoot, err := r.abs(filepath.Clean(root))
	if err != nil {
		return err
	}
	absDestination, err := r.abs(filepath.Clean(destination))
	if err != nil {
		return err
	}
	if absDestination == absRoot || !contains(absRoot, absDestination) {
		return OutsideRootError{Path: destination, ResolvedPath: absDestination, Root: absRoot}
	}
	return nil
}

func (r resolver) resolve(fs afero.Fs, root string, destination string) (string, error) {
	links, ok := fs.(linkFs)
	if !ok {
		return destination, nil
	}

	realRoot, err := r.evalSymlinks(root)
	if err != nil {
		return "", err
	}
	if realRoot, err = r.abs(realRoot); err != nil {
		return "", err
	}

	target := destination
	info, _, err := links.LstatIfPossible(destination)
	switch {
	case err != nil && !os.IsNotExist(err):
		return "", err
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		if target, err = links.ReadlinkIfPossible(destination); err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(destination), target)
		}
	}

	resolved, err := r.inRealDir(target)
	if err != nil {
		return "", err
	}
	if !contains(realRoot, resolved) {
		return "", OutsideRootError{Path: destination, ResolvedPath: resolved, Root: realRoot}
	}
	return resolved, nil
}

// inRealDir follows symlinks in the directory part of path and keeps the final element as is.
func (r resolver) inRealDir(path string) (string, error) {
	dir, err := r.evalSymlinks(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	return r.abs(filepath.Join(dir, filepath.Base(path)))
}

func contains(root string, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
