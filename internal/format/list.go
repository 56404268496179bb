// Package format renders file metadata and entity listings for the CLI.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"mcdkit/internal/recording"
)

const maxLabelWidth = 40

type entityPayload struct {
	ID        int    `json:"id"`
	Label     string `json:"label"`
	Type      int    `json:"type"`
	TypeName  string `json:"type_name"`
	ItemCount int    `json:"item_count"`
}

func payload(e recording.EntitySummary) entityPayload {
	return entityPayload{
		ID:        e.ID,
		Label:     e.Label,
		Type:      int(e.Type),
		TypeName:  e.TypeName(),
		ItemCount: e.ItemCount,
	}
}

// WriteEntities writes the entity listing to w in the requested format.
// maxRowLength clamps table rows to the given terminal width; 0 leaves
// the table unclamped.
func WriteEntities(w io.Writer, items []recording.EntitySummary, includeHeader bool, format string, maxRowLength int) error {
	switch strings.ToLower(format) {
	case "", "table":
		return writeEntitiesTable(w, items, includeHeader, maxRowLength)
	case "plain":
		return writeEntitiesPlain(w, items, includeHeader)
	case "json":
		return writeEntitiesJSON(w, items)
	case "jsonl":
		return writeEntitiesJSONL(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeEntitiesTable(w io.Writer, items []recording.EntitySummary, includeHeader bool, maxRowLength int) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	if maxRowLength > 0 {
		tw.SetAllowedRowLength(maxRowLength)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: maxLabelWidth},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"ID", "Type", "Label", "Items"})
	}

	for _, item := range items {
		tw.AppendRow(table.Row{item.ID, item.TypeName(), item.Label, item.ItemCount})
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "-", "(no entities)", 0})
	}

	_ = tw.Render()
	return nil
}

func writeEntitiesPlain(w io.Writer, items []recording.EntitySummary, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "id\ttype\tlabel\titem_count"); err != nil {
			return err
		}
	}
	for _, item := range items {
		label := runewidth.Truncate(item.Label, maxLabelWidth, "…")
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", item.ID, item.TypeName(), label, item.ItemCount); err != nil {
			return err
		}
	}
	return nil
}

func writeEntitiesJSON(w io.Writer, items []recording.EntitySummary) error {
	payloads := make([]entityPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, payload(item))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payloads)
}

func writeEntitiesJSONL(w io.Writer, items []recording.EntitySummary) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(payload(item)); err != nil {
			return err
		}
	}
	return nil
}

// WriteFileInfo writes the recording header as an aligned key/value
// block.
func WriteFileInfo(w io.Writer, path string, meta recording.FileMetadata) {
	const labelWidth = 12
	writeKV(w, labelWidth, "File", path)
	writeKV(w, labelWidth, "Type", meta.FileType)
	writeKV(w, labelWidth, "Application", meta.AppName)
	if meta.Comment != "" {
		writeKV(w, labelWidth, "Comment", meta.Comment)
	}
	writeKV(w, labelWidth, "Entities", fmt.Sprintf("%d", meta.EntityCount))
	writeKV(w, labelWidth, "Time span", fmt.Sprintf("%.2f s", meta.TimeSpan))
	writeKV(w, labelWidth, "Resolution", fmt.Sprintf("%.6f s", meta.TimeStampResolution))
	if meta.RecordedAt.Year > 0 {
		writeKV(w, labelWidth, "Recorded", meta.RecordedAt.Time().Format(time.RFC3339))
	}
}

func writeKV(w io.Writer, width int, label, value string) {
	fmt.Fprintf(w, "%-*s: %s\n", width, label, value)
}
