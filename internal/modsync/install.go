package modsync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/constants"
	"github.com/meza/vintage-story-mod-manager/internal/fileutils"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/lifecycle"
	"github.com/meza/vintage-story-mod-manager/internal/modpath"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// releaseFileName picks the archive name for release. The declared file name wins,
// then the last segment of the download link, then id_version.zip.
func releaseFileName(release vintagestory.Release, modID string) (string, bool) {
	if name, ok := modpath.SafeFileName(string(release.FileName)); ok {
		return name, true
	}
	if parsed, err := url.Parse(release.MainFile); err == nil {
		if name, ok := modpath.SafeFileName(path.Base(parsed.Path)); ok && collector.IsPackageFile(name) {
			return name, true
		}
	}
	id := release.ModIDStr
	if id == "" {
		id = modID
	}
	return modpath.SafeFileName(fmt.Sprintf("%s_%s%s", id, release.ModVersion, constants.PackageExtension))
}

// installRelease downloads release into the mods directory and returns the final path.
// The download lands in a temporary file first and only replaces anything once it reads as a mod archive.
// When replacing is set and lives at a different path, it is deleted after the new archive is in place.
func (s *Syncer) installRelease(ctx context.Context, modID string, release vintagestory.Release, replacing *collector.InstalledMod, downloads httpclient.Sender) (finalPath string, returnErr error) {
	ctx, span := perf.StartSpan(ctx, "mods.install",
		perf.WithAttributes(attribute.String("mod_id", modID), attribute.String("version", release.ModVersion)),
	)
	defer func() { span.EndWithError(returnErr) }()

	if strings.TrimSpace(release.MainFile) == "" {
		return "", &MissingDownloadError{ModID: modID, Version: release.ModVersion}
	}

	fileName, ok := releaseFileName(release, modID)
	if !ok {
		return "", &MissingDownloadError{ModID: modID, Version: release.ModVersion}
	}

	modsDir := s.modsDir()
	if err := s.fs.MkdirAll(modsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create mods directory: %w", err)
	}

	target, err := s.claimTarget(modsDir, fileName, modID, release, replacing)
	if err != nil {
		return "", err
	}

	tempPath, cleanupID, err := s.downloadToTemp(ctx, release.MainFile, modsDir, downloads)
	if err != nil {
		return "", err
	}
	defer lifecycle.Unregister(cleanupID)

	if _, err := collector.ReadManifest(s.fs, tempPath); err != nil {
		return "", removeTemp(s.fs, tempPath, &InvalidArchiveError{FileName: fileName, Err: err})
	}

	if err := fileutils.MoveIntoPlace(s.fs, tempPath, target); err != nil {
		return "", removeTemp(s.fs, tempPath, err)
	}

	if replacing == nil || samePath(replacing.Path, target) {
		return target, nil
	}

	if err := s.collector.Delete(ctx, replacing.Path); err != nil {
		s.log.Debug(fmt.Sprintf("could not remove %s: %v", replacing.Path, err))
		return target, fmt.Errorf("installed %s but failed to remove the previous archive %s: %w", filepath.Base(target), filepath.Base(replacing.Path), err)
	}
	return target, nil
}

// claimTarget resolves where release is stored. A file name already taken by another mod's
// archive falls back to id_version.zip, and fails with a *FileConflictError when that is taken too.
func (s *Syncer) claimTarget(modsDir string, fileName string, modID string, release vintagestory.Release, replacing *collector.InstalledMod) (string, error) {
	target, err := modpath.ResolveWritablePath(s.fs, modsDir, filepath.Join(modsDir, fileName))
	if err != nil {
		return "", err
	}
	owner, taken := s.ownerOf(target, modID, replacing)
	if !taken {
		return target, nil
	}

	fallbackName, ok := modpath.SafeFileName(fmt.Sprintf("%s_%s%s", modID, release.ModVersion, constants.PackageExtension))
	if !ok {
		return "", &FileConflictError{FileName: fileName, ModID: modID, OwnerID: owner}
	}
	fallback, err := modpath.ResolveWritablePath(s.fs, modsDir, filepath.Join(modsDir, fallbackName))
	if err != nil {
		return "", err
	}
	if _, takenToo := s.ownerOf(fallback, modID, replacing); takenToo {
		return "", &FileConflictError{FileName: fileName, ModID: modID, OwnerID: owner}
	}
	s.log.Debug(fmt.Sprintf("%s belongs to %s, storing %s as %s", fileName, owner, modID, fallbackName))
	return fallback, nil
}

// ownerOf reports the id of another mod whose archive sits at path.
func (s *Syncer) ownerOf(path string, modID string, replacing *collector.InstalledMod) (string, bool) {
	if replacing != nil && samePath(replacing.Path, path) {
		return "", false
	}
	if !fileutils.FileExists(s.fs, path) {
		return "", false
	}
	manifest, err := collector.ReadManifest(s.fs, path)
	if err != nil || manifest.ModID == "" || strings.EqualFold(manifest.ModID, modID) {
		return "", false
	}
	return manifest.ModID, true
}

// downloadToTemp fetches fileURL into a fresh temp file in dir. The temp file is
// removed if the process receives a shutdown signal before the returned handler is unregistered.
func (s *Syncer) downloadToTemp(ctx context.Context, fileURL string, dir string, downloads httpclient.Sender) (string, lifecycle.HandlerID, error) {
	tempFile, err := afero.TempFile(s.fs, dir, constants.TempFilePattern)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		return "", 0, removeTemp(s.fs, tempPath, err)
	}

	fs := s.fs
	cleanupID := lifecycle.Register(func(os.Signal) {
		_ = fs.Remove(tempPath)
	})

	if err := s.download(ctx, fileURL, tempPath, s.fs, downloads); err != nil {
		lifecycle.Unregister(cleanupID)
		return "", 0, removeTemp(s.fs, tempPath, err)
	}
	return tempPath, cleanupID, nil
}

func removeTemp(fs afero.Fs, tempPath string, cause error) error {
	removeErr := fs.Remove(tempPath)
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return errors.Join(cause, fmt.Errorf("failed to remove temp file %s: %w", tempPath, removeErr))
	}
	return cause
}

func samePath(a string, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
