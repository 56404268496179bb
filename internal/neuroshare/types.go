// Package neuroshare binds the vendor Neuroshare library that decodes
// MCS .mcd recordings. All byte-level interpretation of the file format
// happens inside the shared library; this package loads it, marshals
// calls into it, and converts the fixed-size C structures it fills into
// Go types.
package neuroshare

import (
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the kind of data stream an entity carries.
type EntityType uint32

const (
	EntityUnknown EntityType = 0
	EntityEvent   EntityType = 1
	EntityAnalog  EntityType = 2
	EntitySegment EntityType = 3
	EntityNeural  EntityType = 4
)

func (t EntityType) String() string {
	switch t {
	case EntityEvent:
		return "event"
	case EntityAnalog:
		return "analog"
	case EntitySegment:
		return "segment"
	case EntityNeural:
		return "neural"
	default:
		return "unknown"
	}
}

// ParseEntityType maps a symbolic type name to its EntityType. Names are
// matched case-insensitively.
func ParseEntityType(name string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "unknown":
		return EntityUnknown, nil
	case "event":
		return EntityEvent, nil
	case "analog":
		return EntityAnalog, nil
	case "segment":
		return EntitySegment, nil
	case "neural":
		return EntityNeural, nil
	default:
		return EntityUnknown, &InvalidTypeNameError{Name: name}
	}
}

// EventKind identifies the payload type of an event entity.
type EventKind uint32

const (
	EventText  EventKind = 0
	EventCSV   EventKind = 1
	EventByte  EventKind = 2
	EventWord  EventKind = 3
	EventDWord EventKind = 4
)

// Numeric reports whether values of this kind are representable as numbers.
func (k EventKind) Numeric() bool {
	switch k {
	case EventByte, EventWord, EventDWord:
		return true
	default:
		return false
	}
}

// EventValue is one event payload. Numeric kinds carry Number, text kinds
// carry Text; the other field is zero.
type EventValue struct {
	Kind   EventKind
	Number float64
	Text   string
}

// RecordedAt holds the recording start decomposed into calendar fields,
// exactly as the native library reports it.
type RecordedAt struct {
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Millisecond int
}

// Time assembles the calendar fields into a time.Time in UTC.
func (r RecordedAt) Time() time.Time {
	return time.Date(r.Year, time.Month(r.Month), r.Day,
		r.Hour, r.Minute, r.Second, r.Millisecond*int(time.Millisecond), time.UTC)
}

// FileInfo describes one open recording.
type FileInfo struct {
	FileType            string
	EntityCount         int
	TimeStampResolution float64
	TimeSpan            float64
	AppName             string
	Comment             string
	RecordedAt          RecordedAt
}

// EntityInfo is the base metadata shared by every entity.
type EntityInfo struct {
	Label     string
	Type      EntityType
	ItemCount int
}

// AnalogInfo is the metadata specific to analog entities.
type AnalogInfo struct {
	SampleRate float64
	MinValue   float64
	MaxValue   float64
	Units      string
	Resolution float64
}

// EventInfo is the metadata specific to event entities.
type EventInfo struct {
	Kind          EventKind
	MinDataLength int
	MaxDataLength int
	CSVDesc       string
}

// SegmentInfo is the metadata specific to segment entities.
type SegmentInfo struct {
	SourceCount    int
	MinSampleCount int
	MaxSampleCount int
	SampleRate     float64
	Units          string
}

// NeuralInfo is the metadata specific to neural entities.
type NeuralInfo struct {
	SourceEntityID int
	SourceUnitID   int
}

// Session is one open native file handle. Implementations are not safe
// for concurrent use; callers must serialize access.
type Session interface {
	FileInfo() (FileInfo, error)
	EntityInfo(id uint32) (EntityInfo, error)
	AnalogInfo(id uint32) (AnalogInfo, error)
	EventInfo(id uint32) (EventInfo, error)
	SegmentInfo(id uint32) (SegmentInfo, error)
	NeuralInfo(id uint32) (NeuralInfo, error)

	// AnalogData returns up to count samples starting at start, plus the
	// number of samples that were continuous (no gaps) from start.
	AnalogData(id, start, count uint32) (data []float64, contCount uint32, err error)
	// TimeByIndex converts a sample/item index to absolute seconds.
	TimeByIndex(id, index uint32) (float64, error)
	EventData(id, index uint32) (timestamp float64, value EventValue, err error)
	// SegmentData returns the waveform samples (source-major, flattened),
	// the segment timestamp, the per-source sample count and the sorting
	// unit id.
	SegmentData(id, index uint32) (data []float64, timestamp float64, sampleCount, unitID uint32, err error)
	NeuralData(id, start, count uint32) ([]float64, error)

	Close() error
}

// Opener opens a recording at path and returns a live session.
type Opener func(path string) (Session, error)

// InvalidTypeNameError reports an unrecognized symbolic entity type name.
type InvalidTypeNameError struct {
	Name string
}

func (e *InvalidTypeNameError) Error() string {
	return fmt.Sprintf("invalid entity type: %q", e.Name)
}
