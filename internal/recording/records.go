package recording

import "mcdkit/internal/neuroshare"

// FileMetadata mirrors the header of one open recording.
type FileMetadata struct {
	FileType            string
	EntityCount         int
	TimeStampResolution float64
	TimeSpan            float64
	AppName             string
	Comment             string
	RecordedAt          neuroshare.RecordedAt
}

// EntitySummary is the listing view of one entity.
type EntitySummary struct {
	ID        int
	Label     string
	Type      neuroshare.EntityType
	ItemCount int
}

// TypeName returns the symbolic name of the entity type.
func (e EntitySummary) TypeName() string { return e.Type.String() }

// EntityDetail extends the summary with type-specific metadata. Exactly
// the field matching the entity type is populated.
type EntityDetail struct {
	EntitySummary
	Analog  *neuroshare.AnalogInfo
	Event   *neuroshare.EventInfo
	Segment *neuroshare.SegmentInfo
	Neural  *neuroshare.NeuralInfo
}

// AnalogRecord is a read of a continuous signal entity. Data and
// Timestamps always have equal length; timestamps are absolute seconds
// and non-decreasing.
type AnalogRecord struct {
	Label           string
	Data            []float64
	Timestamps      []float64
	ContinuousCount int
	SampleRate      float64
	Units           string
	Meta            neuroshare.AnalogInfo
}

// EventRecord is a read of every item of an event entity. Numeric event
// kinds populate Values, text kinds populate Texts; exactly one of the
// two is non-nil (for an empty entity both stay nil and Numeric still
// reports the kind's representation).
type EventRecord struct {
	Label      string
	Kind       neuroshare.EventKind
	Timestamps []float64
	Values     []float64
	Texts      []string
}

// Numeric reports whether the record's values are numeric.
func (r EventRecord) Numeric() bool { return r.Kind.Numeric() }

// SegmentRecord is one spike waveform snapshot. Data is samples x
// sources; UnitID 0 conventionally means unclassified.
type SegmentRecord struct {
	Label       string
	Data        [][]float64
	Timestamp   float64
	SampleCount int
	UnitID      int
	SourceCount int
	SampleRate  float64
}

// NeuralRecord is a read of spike times from a neural entity.
type NeuralRecord struct {
	Label      string
	Timestamps []float64
}
