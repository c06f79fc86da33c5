package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/meza/vintage-story-mod-manager/internal/collector"
	"github.com/meza/vintage-story-mod-manager/internal/config"
	"github.com/meza/vintage-story-mod-manager/internal/i18n"
	"github.com/meza/vintage-story-mod-manager/internal/vintagestory"
)

func newTable(out io.Writer) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.SetStyle(table.StyleLight)
	writer.Style().Options.SeparateRows = false
	return writer
}

func ModsTable(out io.Writer, mods []collector.InstalledMod) {
	writer := newTable(out)
	writer.AppendHeader(table.Row{
		i18n.T("table.header.name"),
		i18n.T("table.header.id"),
		i18n.T("table.header.version"),
		i18n.T("table.header.file"),
	})
	for _, mod := range mods {
		writer.AppendRow(table.Row{mod.Manifest.DisplayName(), mod.Manifest.ModID, mod.Manifest.Version, mod.FileName()})
	}
	writer.Render()
}

func SearchTable(out io.Writer, mods []vintagestory.SearchMod) {
	writer := newTable(out)
	writer.AppendHeader(table.Row{
		i18n.T("table.header.name"),
		i18n.T("table.header.id"),
		i18n.T("table.header.author"),
		i18n.T("table.header.downloads"),
		i18n.T("table.header.side"),
	})
	for _, mod := range mods {
		writer.AppendRow(table.Row{mod.Name, mod.Identifier(), mod.Author, mod.Downloads, mod.Side})
	}
	writer.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 48},
		{Number: 4, Align: text.AlignRight},
	})
	writer.Render()
}

// VersionsTable lists tag mappings, marking the row for detected.
func VersionsTable(out io.Writer, mappings []config.VersionMapping, detected string) {
	writer := newTable(out)
	writer.AppendHeader(table.Row{
		i18n.T("table.header.version"),
		i18n.T("table.header.tag"),
		"",
	})
	for _, mapping := range mappings {
		marker := ""
		if detected != "" && mapping.Version == detected {
			marker = i18n.T("table.detected")
		}
		writer.AppendRow(table.Row{mapping.Version, fmt.Sprintf("%d", mapping.TagID), marker})
	}
	writer.Render()
}
