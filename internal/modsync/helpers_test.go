package modsync

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/globalerrors"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const modsDir = "/data/Mods"

type fakeAPI struct {
	mu       sync.Mutex
	mods     map[string]*vintagestory.ModData
	errs     map[string]error
	search   []vintagestory.SearchMod
	queries  []vintagestory.Query
	requests []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{mods: map[string]*vintagestory.ModData{}, errs: map[string]error{}}
}

func (api *fakeAPI) GetMod(_ context.Context, id string) (*vintagestory.ModData, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.requests = append(api.requests, id)
	if err, ok := api.errs[id]; ok {
		return nil, err
	}
	mod, ok := api.mods[id]
	if !ok {
		return nil, &globalerrors.ModNotFoundError{ModID: id}
	}
	return mod, nil
}

func (api *fakeAPI) SearchMods(_ context.Context, query vintagestory.Query) ([]vintagestory.SearchMod, error) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.queries = append(api.queries, query)
	return api.search, nil
}

func (api *fakeAPI) add(id string, name string, releases ...vintagestory.Release) {
	for index := range releases {
		releases[index].ModIDStr = id
		if releases[index].MainFile == "" {
			releases[index].MainFile = fmt.Sprintf("https://mods.example/files/%s-%s.zip", id, releases[index].ModVersion)
		}
	}
	api.mods[id] = &vintagestory.ModData{Name: name, Releases: releases}
}

func release(version string, fileName string, tags ...string) vintagestory.Release {
	return vintagestory.Release{ModVersion: version, FileName: vintagestory.LenientString(fileName), Tags: tags}
}

func archiveBytes(t *testing.T, manifest string) []byte {
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

func manifestFor(id string, version string) string {
	return fmt.Sprintf(`{"modid": %q, "name": %q, "version": %q}`, id, id, version)
}

// fakeDownloader serves archives keyed by url.
type fakeDownloader struct {
	mu    sync.Mutex
	files map[string][]byte
	urls  []string
	err   error
}

func (d *fakeDownloader) download(_ context.Context, url string, destination string, fs afero.Fs, program httpclient.Sender) error {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	data, ok := d.files[url]
	if !ok {
		return fmt.Errorf("download request failed with status %d", 404)
	}
	if program != nil {
		program.Send(httpclient.ProgressMsg(1))
	}
	return afero.WriteFile(fs, destination, data, 0o644)
}

// recordingSender keeps the download messages it receives.
type recordingSender struct {
	mu       sync.Mutex
	messages []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (d *fakeDownloader) serve(t *testing.T, api *fakeAPI) {
	t.Helper()
	if d.files == nil {
		d.files = map[string][]byte{}
	}
	for id, mod := range api.mods {
		for _, rel := range mod.Releases {
			d.files[rel.MainFile] = archiveBytes(t, manifestFor(id, rel.ModVersion))
		}
	}
}

func installMod(t *testing.T, fs afero.Fs, fileName string, id string, version string) string {
	t.Helper()
	path := filepath.Join(modsDir, fileName)
	require.NoError(t, fs.MkdirAll(modsDir, 0o755))
	require.NoError(t, afero.WriteFile(fs, path, archiveBytes(t, manifestFor(id, version)), 0o644))
	return path
}

func newSyncer(fs afero.Fs, cfg config.Config, api API, downloader *fakeDownloader) *Syncer {
	return New(Deps{
		Fs:       fs,
		Config:   cfg,
		Meta:     config.NewMetadata("/config/vsmm.toml", modsDir),
		API:      api,
		Download: downloader.download,
	})
}

func configFor(version string) config.Config {
	cfg := config.Config{DetectedGameVersion: version}
	cfg.SetVersionMapping(-100, "1.19.8")
	cfg.SetVersionMapping(-200, "1.20.0")
	return cfg
}

func filesIn(t *testing.T, fs afero.Fs) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, modsDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

type recordingProgress struct {
	mu       sync.Mutex
	total    int
	labels   []string
	finished bool
}

func (p *recordingProgress) Start(total int) { p.total = total }

func (p *recordingProgress) Advance(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.labels = append(p.labels, label)
}

func (p *recordingProgress) Finish() { p.finished = true }
