package modsync

import (
	"errors"
	"fmt"
)

var ErrNoInput = errors.New("nothing to import")

type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s has no %s in its manifest", e.Path, e.Field)
}

type MissingDownloadError struct {
	ModID   string
	Version string
}

func (e *MissingDownloadError) Error() string {
	return fmt.Sprintf("release %s of %s has no download link", e.Version, e.ModID)
}

// InvalidArchiveError is returned when a downloaded file is not a readable mod archive.
type InvalidArchiveError struct {
	FileName string
	Err      error
}

func (e *InvalidArchiveError) Error() string {
	return fmt.Sprintf("downloaded file %s is not a valid mod archive: %v", e.FileName, e.Err)
}

func (e *InvalidArchiveError) Unwrap() error {
	return e.Err
}

type MissingModIDError struct {
	Path string
}

func (e *MissingModIDError) Error() string {
	return fmt.Sprintf("%s has no mod id in its manifest and cannot be looked up", e.Path)
}

// FileConflictError is returned when a release would overwrite the archive of a different mod.
type FileConflictError struct {
	FileName string
	ModID    string
	OwnerID  string
}

func (e *FileConflictError) Error() string {
	return fmt.Sprintf("%s for %s would replace the archive of %s", e.FileName, e.ModID, e.OwnerID)
}
