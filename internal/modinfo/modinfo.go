// Package modinfo reads the modinfo.json manifest every Vintage Story mod archive carries.
//
// Manifests are hand written by mod authors and are frequently not strict JSON: trailing
// commas, keys in any letter case and values of the wrong type are all common. Parse
// tolerates those and only fails on text that cannot be read as JSON at all.
package modinfo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Manifest struct {
	Type             string
	Name             string
	ModID            string
	Version          string
	NetworkVersion   string
	TextureSize      int
	Description      string
	Website          string
	Authors          []string
	Contributors     []string
	Side             string
	RequiredOnClient *bool
	RequiredOnServer *bool
	Dependencies     map[string]string
}

// Keys are matched case-insensitively by encoding/json, so "ModID", "modId" and "modid" all land here.
type rawManifest struct {
	Type             LenientString       `json:"type"`
	Name             LenientString       `json:"name"`
	ModID            LenientString       `json:"modid"`
	Version          LenientString       `json:"version"`
	NetworkVersion   LenientString       `json:"networkVersion"`
	TextureSize      LenientInt          `json:"textureSize"`
	Description      LenientString       `json:"description"`
	Website          LenientString       `json:"website"`
	Authors          LenientStrings      `json:"authors"`
	Contributors     LenientStrings      `json:"contributors"`
	Side             LenientString       `json:"side"`
	RequiredOnClient LenientBool         `json:"requiredOnClient"`
	RequiredOnServer LenientBool         `json:"requiredOnServer"`
	Dependencies     LenientDependencies `json:"dependencies"`
}

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mod manifest cannot be parsed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func Parse(data []byte) (Manifest, error) {
	text := RepairTrailingCommas(string(bytes.TrimPrefix(data, utf8BOM)))

	var raw rawManifest
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Manifest{}, &ParseError{Err: err}
	}

	return Manifest{
		Type:             string(raw.Type),
		Name:             string(raw.Name),
		ModID:            string(raw.ModID),
		Version:          string(raw.Version),
		NetworkVersion:   string(raw.NetworkVersion),
		TextureSize:      int(raw.TextureSize),
		Description:      string(raw.Description),
		Website:          string(raw.Website),
		Authors:          []string(raw.Authors),
		Contributors:     []string(raw.Contributors),
		Side:             string(raw.Side),
		RequiredOnClient: optionalBool(raw.RequiredOnClient),
		RequiredOnServer: optionalBool(raw.RequiredOnServer),
		Dependencies:     map[string]string(raw.Dependencies),
	}, nil
}

func optionalBool(value LenientBool) *bool {
	if !value.Valid {
		return nil
	}
	result := value.Value
	return &result
}

// DisplayName is the name when present, otherwise the id.
func (m Manifest) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ModID
}
