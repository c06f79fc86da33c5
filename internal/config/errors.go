package config

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileNotFoundError means the config file has not been created yet.
type ConfigFileNotFoundError struct {
	Path string
}

func (e *ConfigFileNotFoundError) Error() string {
	return fmt.Sprintf("configuration file %s does not exist", e.Path)
}

// ConfigFileInvalidError wraps the TOML decode failure of an existing config file.
type ConfigFileInvalidError struct {
	Path string
	Err  error
}

func (e *ConfigFileInvalidError) Error() string {
	if line, column, ok := e.Position(); ok {
		return fmt.Sprintf("configuration file %s is invalid at line %d, column %d: %s", e.Path, line, column, e.Err)
	}
	return fmt.Sprintf("configuration file %s is invalid: %s", e.Path, e.Err)
}

func (e *ConfigFileInvalidError) Unwrap() error {
	return e.Err
}

// Position reports where the TOML decoder gave up, when it said so.
func (e *ConfigFileInvalidError) Position() (line int, column int, ok bool) {
	var decodeErr *toml.DecodeError
	if !errors.As(e.Err, &decodeErr) {
		return 0, 0, false
	}
	line, column = decodeErr.Position()
	return line, column, true
}
