package vintagestory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LenientString decodes a JSON string. Numbers, booleans and null decode to "".
type LenientString string

func (s *LenientString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		*s = ""
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*s = LenientString(value)
	return nil
}

type Release struct {
	ReleaseID  int64         `json:"releaseid"`
	MainFile   string        `json:"mainfile"`
	FileName   LenientString `json:"filename"`
	FileID     int64         `json:"fileid"`
	Downloads  int64         `json:"downloads"`
	Tags       []string      `json:"tags"`
	ModIDStr   string        `json:"modidstr"`
	ModVersion string        `json:"modversion"`
	Created    string        `json:"created"`
}

type Screenshot struct {
	FileID            int64  `json:"fileid"`
	MainFile          string `json:"mainfile"`
	FileName          string `json:"filename"`
	ThumbnailFileName string `json:"thumbnailfilename"`
	Created           string `json:"created"`
}

type ModData struct {
	ModID           int64        `json:"modid"`
	AssetID         int64        `json:"assetid"`
	Name            string       `json:"name"`
	Text            string       `json:"text"`
	Author          string       `json:"author"`
	URLAlias        string       `json:"urlalias"`
	LogoFileName    string       `json:"logofilename"`
	LogoFile        string       `json:"logofile"`
	HomepageURL     string       `json:"homepageurl"`
	SourceCodeURL   string       `json:"sourcecodeurl"`
	TrailerVideoURL string       `json:"trailervideourl"`
	IssueTrackerURL string       `json:"issuetrackerurl"`
	WikiURL         string       `json:"wikiurl"`
	Downloads       int64        `json:"downloads"`
	Follows         int64        `json:"follows"`
	TrendingPoints  int64        `json:"trendingpoints"`
	Comments        int64        `json:"comments"`
	Side            string       `json:"side"`
	Type            string       `json:"type"`
	Created         string       `json:"created"`
	LastReleased    string       `json:"lastreleased"`
	LastModified    string       `json:"lastmodified"`
	Tags            []string     `json:"tags"`
	Releases        []Release    `json:"releases"`
	Screenshots     []Screenshot `json:"screenshots"`
}

// Identifier is the string id mods are installed under, taken from the newest release.
func (mod ModData) Identifier() string {
	for _, release := range mod.Releases {
		if release.ModIDStr != "" {
			return release.ModIDStr
		}
	}
	return ""
}

type modResponse struct {
	StatusCode LenientString `json:"statuscode"`
	Mod        *ModData      `json:"mod"`
}

type SearchMod struct {
	ModID          int64    `json:"modid"`
	AssetID        int64    `json:"assetid"`
	Downloads      int64    `json:"downloads"`
	Follows        int64    `json:"follows"`
	TrendingPoints int64    `json:"trendingpoints"`
	Comments       int64    `json:"comments"`
	Name           string   `json:"name"`
	Summary        string   `json:"summary"`
	ModIDStrs      []string `json:"modidstrs"`
	Author         string   `json:"author"`
	URLAlias       string   `json:"urlalias"`
	Side           string   `json:"side"`
	Type           string   `json:"type"`
	Logo           string   `json:"logo"`
	Tags           []string `json:"tags"`
	LastReleased   string   `json:"lastreleased"`
}

func (mod SearchMod) String() string {
	return fmt.Sprintf("%s by %s (%d downloads)", mod.Name, mod.Author, mod.Downloads)
}

// Identifier is the id to fetch the mod by: its first string id, else the numeric id.
func (mod SearchMod) Identifier() string {
	for _, id := range mod.ModIDStrs {
		if strings.TrimSpace(id) != "" {
			return id
		}
	}
	return fmt.Sprintf("%d", mod.ModID)
}

type searchResponse struct {
	StatusCode LenientString `json:"statuscode"`
	Mods       []SearchMod   `json:"mods"`
}

type GameVersion struct {
	TagID int64  `json:"tagid"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type gameVersionsResponse struct {
	StatusCode   LenientString `json:"statuscode"`
	GameVersions []GameVersion `json:"gameversions"`
}
