package config

import (
	"os"
	"path/filepath"

	"github.com/meza/vintage-story-mod-manager/internal/constants"
	"github.com/meza/vintage-story-mod-manager/internal/environment"
)

const (
	configFileName = "config.toml"
	gameDataDir    = "VintagestoryData"
	modsDirName    = "Mods"
)

// Metadata carries the two locations a command works against for its whole run.
type Metadata struct {
	ConfigPath string
	ModsDir    string
}

func NewMetadata(configPath string, modsDir string) Metadata {
	return Metadata{ConfigPath: configPath, ModsDir: modsDir}
}

func (m Metadata) Dir() string {
	return filepath.Dir(filepath.FromSlash(m.ConfigPath))
}

var userConfigDir = os.UserConfigDir

// DefaultConfigPath is <user config dir>/vintage-story-mod-manager/config.toml.
func DefaultConfigPath() (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, constants.AppName, configFileName), nil
}

// DefaultModsDir is the game's own Mods directory, under VSMM_DATA_PATH when that is set.
func DefaultModsDir() (string, error) {
	if dataPath, ok := environment.DataPath(); ok {
		return filepath.Join(dataPath, modsDirName), nil
	}
	base, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, gameDataDir, modsDirName), nil
}
