package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/modinfo"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
	"github.com/stretchr/testify/assert"
)

func TestModsTable(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	var out bytes.Buffer

	ModsTable(&out, []collector.InstalledMod{
		{Manifest: modinfo.Manifest{ModID: "carryon", Name: "Carry On", Version: "1.8.0"}, Path: "/mods/carryon-1.8.0.zip"},
		{Manifest: modinfo.Manifest{ModID: "nameless", Version: "0.1.0"}, Path: "/mods/nameless.zip"},
	})

	rendered := out.String()
	assert.Contains(t, rendered, "table.header.name")
	assert.Contains(t, rendered, "Carry On")
	assert.Contains(t, rendered, "carryon-1.8.0.zip")
	assert.Contains(t, rendered, "│ nameless")
	snaps.MatchSnapshot(t, rendered)
}

func TestSearchTable(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	var out bytes.Buffer

	SearchTable(&out, []vintagestory.SearchMod{
		{Name: "Prospect Together", ModIDStrs: []string{"prospecttogether"}, Author: "someone", Downloads: 123456, Side: "both"},
	})

	rendered := out.String()
	assert.Contains(t, rendered, "prospecttogether")
	assert.Contains(t, rendered, "123456")
	snaps.MatchSnapshot(t, rendered)
}

func TestVersionsTableMarksDetected(t *testing.T) {
	t.Setenv("VSMM_TEST", "true")
	var out bytes.Buffer

	VersionsTable(&out, []config.VersionMapping{
		{TagID: -1, Version: "1.19.7"},
		{TagID: -2, Version: "1.19.8"},
	}, "1.19.8")

	lines := strings.Split(out.String(), "\n")
	var detectedLine string
	for _, line := range lines {
		if strings.Contains(line, "1.19.8") {
			detectedLine = line
		}
	}
	assert.Contains(t, detectedLine, "table.detected")
	assert.Equal(t, 1, strings.Count(out.String(), "table.detected"))
	snaps.MatchSnapshot(t, out.String())
}

func TestHiddenProgressWritesNothing(t *testing.T) {
	var out bytes.Buffer
	progress := NewProgress(&out, "Importing", false)

	progress.Start(3)
	progress.Advance("a")
	progress.Finish()

	assert.Empty(t, out.String())
}

func TestProgressSkipsSingleItem(t *testing.T) {
	var out bytes.Buffer
	progress := NewProgress(&out, "Importing", true)

	progress.Start(1)
	progress.Advance("a")
	progress.Finish()

	assert.Empty(t, out.String())
}

func TestVisibleProgressRenders(t *testing.T) {
	var out bytes.Buffer
	progress := NewProgress(&out, "Importing", true)

	progress.Start(2)
	progress.Advance("first")
	progress.Advance("second")
	progress.Finish()

	assert.Contains(t, out.String(), "Importing")
}
