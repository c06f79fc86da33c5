package testutil

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/meza/vintage-story-mod-manager/internal/globalerrors"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// FakeRepository serves mods and search results from memory and records what was asked.
type FakeRepository struct {
	mu       sync.Mutex
	Mods     map[string]*vintagestory.ModData
	Errors   map[string]error
	Results  []vintagestory.SearchMod
	Requests []string
	Queries  []vintagestory.Query
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{Mods: map[string]*vintagestory.ModData{}, Errors: map[string]error{}}
}

func (repo *FakeRepository) GetMod(_ context.Context, id string) (*vintagestory.ModData, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.Requests = append(repo.Requests, id)
	if err, ok := repo.Errors[id]; ok {
		return nil, err
	}
	mod, ok := repo.Mods[id]
	if !ok {
		return nil, &globalerrors.ModNotFoundError{ModID: id}
	}
	return mod, nil
}

func (repo *FakeRepository) SearchMods(_ context.Context, query vintagestory.Query) ([]vintagestory.SearchMod, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.Queries = append(repo.Queries, query)
	return repo.Results, nil
}

// AddMod publishes releases, newest first. Each release links to a predictable file url.
func (repo *FakeRepository) AddMod(id string, name string, releases ...vintagestory.Release) {
	for index := range releases {
		releases[index].ModIDStr = id
		if releases[index].MainFile == "" {
			releases[index].MainFile = fmt.Sprintf("https://mods.example/files/%s-%s.zip", id, releases[index].ModVersion)
		}
	}
	repo.Mods[id] = &vintagestory.ModData{Name: name, Releases: releases}
}

func Release(version string, fileName string, tags ...string) vintagestory.Release {
	return vintagestory.Release{ModVersion: version, FileName: vintagestory.LenientString(fileName), Tags: tags}
}

// FakeDownloader writes a valid archive for every release of the repository it serves.
type FakeDownloader struct {
	mu    sync.Mutex
	files map[string][]byte
	URLs  []string
}

func NewFakeDownloader(t *testing.T, repo *FakeRepository) *FakeDownloader {
	t.Helper()
	downloader := &FakeDownloader{files: map[string][]byte{}}
	for id, mod := range repo.Mods {
		for _, release := range mod.Releases {
			downloader.files[release.MainFile] = ArchiveBytes(t, Manifest(id, release.ModVersion))
		}
	}
	return downloader
}

// Download writes the archive for url and reports it complete to program.
func (d *FakeDownloader) Download(_ context.Context, url string, destination string, fs afero.Fs, program httpclient.Sender) error {
	d.mu.Lock()
	d.URLs = append(d.URLs, url)
	data, ok := d.files[url]
	d.mu.Unlock()
	if !ok {
		err := fmt.Errorf("download request failed with status %d", 404)
		if program != nil {
			program.Send(httpclient.ProgressErrMsg{Err: err})
		}
		return err
	}
	if err := afero.WriteFile(fs, destination, data, 0o644); err != nil {
		return err
	}
	if program != nil {
		program.Send(httpclient.ProgressMsg(1))
	}
	return nil
}

// RecordingSender keeps every message sent to it.
type RecordingSender struct {
	mu       sync.Mutex
	Messages []tea.Msg
}

func (s *RecordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msg)
}

func Manifest(id string, version string) string {
	return fmt.Sprintf(`{"modid": %q, "name": %q, "version": %q}`, id, id, version)
}

// ArchiveBytes builds a package archive holding manifest as modinfo.json. An empty manifest leaves it out.
func ArchiveBytes(t *testing.T, manifest string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	if manifest != "" {
		file, err := writer.Create("modinfo.json")
		require.NoError(t, err)
		_, err = file.Write([]byte(manifest))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func WriteArchive(t *testing.T, fs afero.Fs, path string, manifest string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, ArchiveBytes(t, manifest), 0o644))
}
