// Package collector enumerates the mods installed in the mods directory.
package collector

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/constants"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/modignore"
	"github.com/meza/vintage-story-mod-manager/internal/modinfo"
	"github.com/meza/vintage-story-mod-manager/internal/modpath"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// Manifests larger than this are not mod manifests.
const maxManifestSize = 1 << 20

var ErrNoManifest = errors.New("archive has no " + constants.ManifestFileName)

type InstalledMod struct {
	Manifest modinfo.Manifest
	Path     string
}

// FileName is the archive's base name.
func (mod InstalledMod) FileName() string {
	return filepath.Base(mod.Path)
}

type ModsDirError struct {
	Dir string
	Err error
}

func (e *ModsDirError) Error() string {
	return fmt.Sprintf("cannot read mods directory %s: %v", e.Dir, e.Err)
}

func (e *ModsDirError) Unwrap() error {
	return e.Err
}

type Collector struct {
	fs      afero.Fs
	modsDir string
	log     *logger.Logger
}

func New(fs afero.Fs, modsDir string, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.Discard()
	}
	return &Collector{fs: fs, modsDir: modsDir, log: log}
}

func (c *Collector) ModsDir() string {
	return c.modsDir
}

// Collect reads the manifest of every archive in the mods directory, in file name order.
// Archives that cannot be read or match .vsmmignore are skipped. A missing directory yields no mods.
func (c *Collector) Collect(ctx context.Context, filters Filters) ([]InstalledMod, error) {
	_, span := perf.StartSpan(ctx, "mods.collect", perf.WithAttributes(attribute.String("mods_dir", c.modsDir)))
	defer span.End()

	entries, err := afero.ReadDir(c.fs, c.modsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []InstalledMod{}, nil
		}
		span.RecordError(err)
		return nil, &ModsDirError{Dir: c.modsDir, Err: err}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	ignored, err := modignore.Load(c.fs, c.modsDir)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	mods := make([]InstalledMod, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !IsPackageFile(entry.Name()) {
			continue
		}
		if ignored.Ignores(entry.Name()) {
			c.log.Debug(fmt.Sprintf("ignoring %s", entry.Name()))
			continue
		}

		path := filepath.Join(c.modsDir, entry.Name())
		manifest, err := ReadManifest(c.fs, path)
		if err != nil {
			c.log.Debug(fmt.Sprintf("skipping %s: %v", entry.Name(), err))
			continue
		}
		if !filters.Match(manifest) {
			continue
		}
		mods = append(mods, InstalledMod{Manifest: manifest, Path: path})
	}

	span.SetAttributes(attribute.Int("mods", len(mods)))
	return mods, nil
}

// Delete removes an installed archive. Paths outside the mods directory are refused untouched.
func (c *Collector) Delete(ctx context.Context, path string) error {
	_, span := perf.StartSpan(ctx, "mods.delete", perf.WithAttributes(attribute.String("path", path)))
	defer span.End()

	if err := modpath.EnsureWithinRoot(c.fs, c.modsDir, path); err != nil {
		span.RecordError(err)
		return err
	}
	if err := c.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		span.RecordError(err)
		return err
	}
	return nil
}

func IsPackageFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), constants.PackageExtension)
}

// ReadManifest opens the archive at path and parses its modinfo.json.
func ReadManifest(fs afero.Fs, path string) (modinfo.Manifest, error) {
	file, err := fs.Open(path)
	if err != nil {
		return modinfo.Manifest{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return modinfo.Manifest{}, err
	}

	archive, err := zip.NewReader(file, info.Size())
	if err != nil {
		return modinfo.Manifest{}, err
	}

	entry := findManifest(archive.File)
	if entry == nil {
		return modinfo.Manifest{}, ErrNoManifest
	}

	reader, err := entry.Open()
	if err != nil {
		return modinfo.Manifest{}, err
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, maxManifestSize))
	if err != nil {
		return modinfo.Manifest{}, err
	}
	return modinfo.Parse(data)
}

// findManifest prefers a manifest at the archive root over one nested in a folder.
func findManifest(files []*zip.File) *zip.File {
	var nested *zip.File
	for _, file := range files {
		name := strings.ReplaceAll(file.Name, "\\", "/")
		if !strings.EqualFold(pathBase(name), constants.ManifestFileName) {
			continue
		}
		if !strings.Contains(strings.TrimPrefix(name, "/"), "/") {
			return file
		}
		if nested == nil {
			nested = file
		}
	}
	return nested
}

func pathBase(name string) string {
	if index := strings.LastIndex(name, "/"); index >= 0 {
		return name[index+1:]
	}
	return name
}
