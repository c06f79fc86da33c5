// Package config persists the game path, detected game version and the tag to version mapping.
package config

import (
	"context"
	"errors"
	"os"

	"github.com/meza/vintage-story-mod-manager/internal/fileutils"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/pelletier/go-toml/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultVersionMappings seeds a config when the repository's tag list cannot be fetched.
func DefaultVersionMappings() []VersionMapping {
	return []VersionMapping{
		{TagID: -281539401465857, Version: "1.15.3-rc.1"},
		{TagID: -281539401285631, Version: "1.15.0"},
		{TagID: -281535106973695, Version: "1.14.10"},
	}
}

func ReadConfig(ctx context.Context, fs afero.Fs, meta Metadata) (Config, error) {
	_, span := perf.StartSpan(ctx, "io.config.read", perf.WithAttributes(attribute.String("config_path", meta.ConfigPath)))
	defer span.End()

	data, err := afero.ReadFile(fs, meta.ConfigPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, &ConfigFileNotFoundError{Path: meta.ConfigPath}
		}
		return Config{}, pkgerrors.Wrap(err, "failed to read configuration file")
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigFileInvalidError{Path: meta.ConfigPath, Err: err}
	}
	return cfg, nil
}

// ReadConfigOrDefault treats a missing file as an empty config, for commands that never write it back.
func ReadConfigOrDefault(ctx context.Context, fs afero.Fs, meta Metadata) (Config, error) {
	cfg, err := ReadConfig(ctx, fs, meta)
	var notFound *ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return Config{}, nil
	}
	return cfg, err
}

func WriteConfig(ctx context.Context, fs afero.Fs, meta Metadata, cfg Config) error {
	_, span := perf.StartSpan(ctx, "io.config.write", perf.WithAttributes(attribute.String("config_path", meta.ConfigPath)))
	defer span.End()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode configuration")
	}
	if err := fileutils.WriteFileAtomic(fs, meta.ConfigPath, data, fileutils.DefaultFileMode); err != nil {
		span.RecordError(err)
		return pkgerrors.Wrap(err, "failed to write configuration file")
	}
	return nil
}
