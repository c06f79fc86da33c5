// Package modsync keeps the mods directory in step with the mod repository.
//
// It drives the import, export and update workflows. Per mod failures are
// recorded in the returned Report and never stop the remaining mods; only
// failures that make the whole request meaningless are returned as errors.
package modsync

import (
	"context"

	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/logger"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"github.com/spf13/afero"
)

// API is the part of the mod repository the workflows need.
type API interface {
	GetMod(ctx context.Context, id string) (*vintagestory.ModData, error)
	SearchMods(ctx context.Context, query vintagestory.Query) ([]vintagestory.SearchMod, error)
}

// Downloader stores the file at url as destination.
type Downloader func(ctx context.Context, url string, destination string, fs afero.Fs, program httpclient.Sender) error

// ProgressReporter follows a multi mod run. Advance is called once per finished mod.
type ProgressReporter interface {
	Start(total int)
	Advance(label string)
	Finish()
}

type Deps struct {
	Fs        afero.Fs
	Config    config.Config
	Meta      config.Metadata
	API       API
	Download  Downloader
	Logger    *logger.Logger
	Collector *collector.Collector
}

type Syncer struct {
	fs        afero.Fs
	cfg       config.Config
	meta      config.Metadata
	api       API
	download  Downloader
	log       *logger.Logger
	collector *collector.Collector
}

func New(deps Deps) *Syncer {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	mods := deps.Collector
	if mods == nil {
		mods = collector.New(deps.Fs, deps.Meta.ModsDir, log)
	}
	return &Syncer{
		fs:        deps.Fs,
		cfg:       deps.Config,
		meta:      deps.Meta,
		api:       deps.API,
		download:  deps.Download,
		log:       log,
		collector: mods,
	}
}

func (s *Syncer) modsDir() string {
	return s.collector.ModsDir()
}

func (s *Syncer) gameVersion() string {
	return s.cfg.EffectiveGameVersion()
}

type noopProgress struct{}

func (noopProgress) Start(int)      {}
func (noopProgress) Advance(string) {}
func (noopProgress) Finish()        {}

func progressOrNoop(progress ProgressReporter) ProgressReporter {
	if progress == nil {
		return noopProgress{}
	}
	return progress
}
