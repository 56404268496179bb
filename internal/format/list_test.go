package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mcdkit/internal/neuroshare"
	"mcdkit/internal/recording"
)

func sampleEntities() []recording.EntitySummary {
	return []recording.EntitySummary{
		{ID: 0, Label: "Ch1", Type: neuroshare.EntityAnalog, ItemCount: 1000},
		{ID: 1, Label: "Trigger", Type: neuroshare.EntityEvent, ItemCount: 5},
		{ID: 2, Label: "Spikes 1", Type: neuroshare.EntitySegment, ItemCount: 2},
	}
}

func TestWriteEntitiesPlain(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteEntities(&buf, sampleEntities(), true, "plain", 0); err != nil {
		t.Fatalf("WriteEntities plain returned error: %v", err)
	}

	expected := strings.Join([]string{
		"id\ttype\tlabel\titem_count",
		"0\tanalog\tCh1\t1000",
		"1\tevent\tTrigger\t5",
		"2\tsegment\tSpikes 1\t2",
	}, "\n") + "\n"

	if got := buf.String(); got != expected {
		t.Fatalf("plain output mismatch:\nexpected: %q\nactual:   %q", expected, got)
	}
}

func TestWriteEntitiesPlain_TruncatesLongLabels(t *testing.T) {
	var buf bytes.Buffer
	items := []recording.EntitySummary{
		{ID: 0, Label: strings.Repeat("x", 60), Type: neuroshare.EntityAnalog, ItemCount: 1},
	}

	if err := WriteEntities(&buf, items, false, "plain", 0); err != nil {
		t.Fatalf("WriteEntities plain returned error: %v", err)
	}

	if strings.Contains(buf.String(), strings.Repeat("x", 41)) {
		t.Fatalf("label not truncated: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "…") {
		t.Fatalf("missing truncation marker: %q", buf.String())
	}
}

func TestWriteEntitiesTable(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteEntities(&buf, sampleEntities(), true, "table", 0); err != nil {
		t.Fatalf("WriteEntities table returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "LABEL") || !strings.Contains(out, "ITEMS") {
		t.Fatalf("table header missing expected columns:\n%s", out)
	}
	if !strings.Contains(out, "Trigger") || !strings.Contains(out, "analog") {
		t.Fatalf("table rows missing expected cells:\n%s", out)
	}
}

func TestWriteEntitiesTable_Empty(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteEntities(&buf, nil, true, "table", 0); err != nil {
		t.Fatalf("WriteEntities table returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "(no entities)") {
		t.Fatalf("empty placeholder missing:\n%s", buf.String())
	}
}

func TestWriteEntitiesJSON(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteEntities(&buf, sampleEntities(), true, "json", 0); err != nil {
		t.Fatalf("WriteEntities json returned error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(decoded))
	}
	if decoded[0]["label"] != "Ch1" || decoded[0]["type_name"] != "analog" {
		t.Fatalf("unexpected first entry: %v", decoded[0])
	}
}

func TestWriteEntitiesJSONL(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteEntities(&buf, sampleEntities(), true, "jsonl", 0); err != nil {
		t.Fatalf("WriteEntities jsonl returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for _, line := range lines {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("invalid JSONL line %q: %v", line, err)
		}
	}
}

func TestWriteEntitiesInvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntities(&buf, sampleEntities(), true, "xml", 0); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWriteFileInfo(t *testing.T) {
	var buf bytes.Buffer
	meta := recording.FileMetadata{
		FileType:            "MCD",
		EntityCount:         4,
		TimeStampResolution: 0.001,
		TimeSpan:            10,
		AppName:             "MC_Rack",
		Comment:             "test recording",
		RecordedAt:          neuroshare.RecordedAt{Year: 2024, Month: 6, Day: 1, Hour: 12},
	}

	WriteFileInfo(&buf, "sample.mcd", meta)

	out := buf.String()
	for _, want := range []string{
		"File        : sample.mcd",
		"Type        : MCD",
		"Application : MC_Rack",
		"Entities    : 4",
		"Time span   : 10.00 s",
		"Resolution  : 0.001000 s",
		"Recorded    : 2024-06-01T12:00:00Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing line %q in:\n%s", want, out)
		}
	}
}

func TestWriteFileInfo_NoRecordingDate(t *testing.T) {
	var buf bytes.Buffer
	WriteFileInfo(&buf, "sample.mcd", recording.FileMetadata{FileType: "MCD"})

	if strings.Contains(buf.String(), "Recorded") {
		t.Fatalf("unexpected Recorded line:\n%s", buf.String())
	}
}
