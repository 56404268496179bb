// Package nstest provides an in-memory neuroshare.Session for tests. It
// mimics the native binding's semantics (source-major segment buffers,
// result codes for bad ids and indexes) without a shared library.
package nstest

import (
	"mcdkit/internal/neuroshare"
)

// Analog is one analog entity definition.
type Analog struct {
	Label      string
	SampleRate float64
	MinValue   float64
	MaxValue   float64
	Resolution float64
	Units      string
	Start      float64 // absolute time of the first sample, seconds
	Data       []float64
}

// Event is one event entity definition. Numeric kinds read from Numbers,
// text kinds from Texts; lengths must match Timestamps.
type Event struct {
	Label      string
	Kind       neuroshare.EventKind
	Timestamps []float64
	Numbers    []float64
	Texts      []string
}

// SegmentItem is one spike waveform snapshot, samples x sources.
type SegmentItem struct {
	Timestamp float64
	UnitID    uint32
	Data      [][]float64
}

// Segment is one segment entity definition.
type Segment struct {
	Label       string
	SampleRate  float64
	SourceCount int
	Units       string
	Items       []SegmentItem
}

// Neural is one neural entity definition.
type Neural struct {
	Label      string
	Timestamps []float64
}

type entity struct {
	info    neuroshare.EntityInfo
	analog  *Analog
	event   *Event
	segment *Segment
	neural  *Neural
}

// File is an in-memory recording. Add entities, then use Open as the
// accessor's opener.
type File struct {
	Info     neuroshare.FileInfo
	entities []entity

	// Fail forces data reads of an entity id to return the given error,
	// for exercising per-entity failure handling.
	Fail map[int]error
}

// NewFile returns a File with plausible header metadata.
func NewFile() *File {
	return &File{
		Info: neuroshare.FileInfo{
			FileType:            "MCD",
			TimeStampResolution: 0.001,
			TimeSpan:            10,
			AppName:             "MC_Rack",
			Comment:             "test recording",
			RecordedAt:          neuroshare.RecordedAt{Year: 2024, Month: 6, Day: 1, Hour: 12},
		},
		Fail: make(map[int]error),
	}
}

func (f *File) add(e entity) int {
	f.entities = append(f.entities, e)
	f.Info.EntityCount = len(f.entities)
	return len(f.entities) - 1
}

// AddAnalog registers an analog entity and returns its id.
func (f *File) AddAnalog(a Analog) int {
	return f.add(entity{
		info:   neuroshare.EntityInfo{Label: a.Label, Type: neuroshare.EntityAnalog, ItemCount: len(a.Data)},
		analog: &a,
	})
}

// AddEvent registers an event entity and returns its id.
func (f *File) AddEvent(e Event) int {
	return f.add(entity{
		info:  neuroshare.EntityInfo{Label: e.Label, Type: neuroshare.EntityEvent, ItemCount: len(e.Timestamps)},
		event: &e,
	})
}

// AddSegment registers a segment entity and returns its id.
func (f *File) AddSegment(s Segment) int {
	return f.add(entity{
		info:    neuroshare.EntityInfo{Label: s.Label, Type: neuroshare.EntitySegment, ItemCount: len(s.Items)},
		segment: &s,
	})
}

// AddNeural registers a neural entity and returns its id.
func (f *File) AddNeural(n Neural) int {
	return f.add(entity{
		info:   neuroshare.EntityInfo{Label: n.Label, Type: neuroshare.EntityNeural, ItemCount: len(n.Timestamps)},
		neural: &n,
	})
}

// Open is a neuroshare.Opener over the in-memory file. The path argument
// is ignored.
func (f *File) Open(string) (neuroshare.Session, error) {
	return &session{file: f}, nil
}

type session struct {
	file   *File
	closed bool
}

func badEntity(call string) error {
	return &neuroshare.ResultError{Call: call, Code: neuroshare.ResultBadEntity}
}

func badIndex(call string) error {
	return &neuroshare.ResultError{Call: call, Code: neuroshare.ResultBadIndex}
}

func typeError(call string) error {
	return &neuroshare.ResultError{Call: call, Code: neuroshare.ResultTypeError}
}

func (s *session) entity(id uint32, call string) (*entity, error) {
	if int(id) >= len(s.file.entities) {
		return nil, badEntity(call)
	}
	return &s.file.entities[id], nil
}

func (s *session) FileInfo() (neuroshare.FileInfo, error) {
	return s.file.Info, nil
}

func (s *session) EntityInfo(id uint32) (neuroshare.EntityInfo, error) {
	e, err := s.entity(id, "ns_GetEntityInfo")
	if err != nil {
		return neuroshare.EntityInfo{}, err
	}
	return e.info, nil
}

func (s *session) AnalogInfo(id uint32) (neuroshare.AnalogInfo, error) {
	e, err := s.entity(id, "ns_GetAnalogInfo")
	if err != nil {
		return neuroshare.AnalogInfo{}, err
	}
	if e.analog == nil {
		return neuroshare.AnalogInfo{}, typeError("ns_GetAnalogInfo")
	}
	return neuroshare.AnalogInfo{
		SampleRate: e.analog.SampleRate,
		MinValue:   e.analog.MinValue,
		MaxValue:   e.analog.MaxValue,
		Units:      e.analog.Units,
		Resolution: e.analog.Resolution,
	}, nil
}

func (s *session) EventInfo(id uint32) (neuroshare.EventInfo, error) {
	e, err := s.entity(id, "ns_GetEventInfo")
	if err != nil {
		return neuroshare.EventInfo{}, err
	}
	if e.event == nil {
		return neuroshare.EventInfo{}, typeError("ns_GetEventInfo")
	}
	return neuroshare.EventInfo{Kind: e.event.Kind, MaxDataLength: 4}, nil
}

func (s *session) SegmentInfo(id uint32) (neuroshare.SegmentInfo, error) {
	e, err := s.entity(id, "ns_GetSegmentInfo")
	if err != nil {
		return neuroshare.SegmentInfo{}, err
	}
	if e.segment == nil {
		return neuroshare.SegmentInfo{}, typeError("ns_GetSegmentInfo")
	}
	maxSamples := 0
	for _, item := range e.segment.Items {
		if len(item.Data) > maxSamples {
			maxSamples = len(item.Data)
		}
	}
	return neuroshare.SegmentInfo{
		SourceCount:    e.segment.SourceCount,
		MaxSampleCount: maxSamples,
		SampleRate:     e.segment.SampleRate,
		Units:          e.segment.Units,
	}, nil
}

func (s *session) NeuralInfo(id uint32) (neuroshare.NeuralInfo, error) {
	e, err := s.entity(id, "ns_GetNeuralInfo")
	if err != nil {
		return neuroshare.NeuralInfo{}, err
	}
	if e.neural == nil {
		return neuroshare.NeuralInfo{}, typeError("ns_GetNeuralInfo")
	}
	return neuroshare.NeuralInfo{}, nil
}

func (s *session) AnalogData(id, start, count uint32) ([]float64, uint32, error) {
	e, err := s.entity(id, "ns_GetAnalogData")
	if err != nil {
		return nil, 0, err
	}
	if failErr := s.file.Fail[int(id)]; failErr != nil {
		return nil, 0, failErr
	}
	if e.analog == nil {
		return nil, 0, typeError("ns_GetAnalogData")
	}
	end := int(start) + int(count)
	if int(start) > len(e.analog.Data) {
		return nil, 0, badIndex("ns_GetAnalogData")
	}
	if end > len(e.analog.Data) {
		end = len(e.analog.Data)
	}
	data := append([]float64(nil), e.analog.Data[start:end]...)
	return data, uint32(len(data)), nil
}

func (s *session) TimeByIndex(id, index uint32) (float64, error) {
	e, err := s.entity(id, "ns_GetTimeByIndex")
	if err != nil {
		return 0, err
	}
	switch {
	case e.analog != nil:
		return e.analog.Start + float64(index)/e.analog.SampleRate, nil
	case e.event != nil:
		if int(index) >= len(e.event.Timestamps) {
			return 0, badIndex("ns_GetTimeByIndex")
		}
		return e.event.Timestamps[index], nil
	case e.neural != nil:
		if int(index) >= len(e.neural.Timestamps) {
			return 0, badIndex("ns_GetTimeByIndex")
		}
		return e.neural.Timestamps[index], nil
	case e.segment != nil:
		if int(index) >= len(e.segment.Items) {
			return 0, badIndex("ns_GetTimeByIndex")
		}
		return e.segment.Items[index].Timestamp, nil
	}
	return 0, typeError("ns_GetTimeByIndex")
}

func (s *session) EventData(id, index uint32) (float64, neuroshare.EventValue, error) {
	e, err := s.entity(id, "ns_GetEventData")
	if err != nil {
		return 0, neuroshare.EventValue{}, err
	}
	if failErr := s.file.Fail[int(id)]; failErr != nil {
		return 0, neuroshare.EventValue{}, failErr
	}
	if e.event == nil {
		return 0, neuroshare.EventValue{}, typeError("ns_GetEventData")
	}
	if int(index) >= len(e.event.Timestamps) {
		return 0, neuroshare.EventValue{}, badIndex("ns_GetEventData")
	}
	value := neuroshare.EventValue{Kind: e.event.Kind}
	if e.event.Kind.Numeric() {
		value.Number = e.event.Numbers[index]
	} else {
		value.Text = e.event.Texts[index]
	}
	return e.event.Timestamps[index], value, nil
}

func (s *session) SegmentData(id, index uint32) ([]float64, float64, uint32, uint32, error) {
	e, err := s.entity(id, "ns_GetSegmentData")
	if err != nil {
		return nil, 0, 0, 0, err
	}
	if failErr := s.file.Fail[int(id)]; failErr != nil {
		return nil, 0, 0, 0, failErr
	}
	if e.segment == nil {
		return nil, 0, 0, 0, typeError("ns_GetSegmentData")
	}
	if int(index) >= len(e.segment.Items) {
		return nil, 0, 0, 0, badIndex("ns_GetSegmentData")
	}

	item := e.segment.Items[index]
	samples := len(item.Data)

	// Flatten source-major, the way the native buffer is laid out.
	flat := make([]float64, 0, samples*e.segment.SourceCount)
	for src := 0; src < e.segment.SourceCount; src++ {
		for row := 0; row < samples; row++ {
			flat = append(flat, item.Data[row][src])
		}
	}
	return flat, item.Timestamp, uint32(samples), item.UnitID, nil
}

func (s *session) NeuralData(id, start, count uint32) ([]float64, error) {
	e, err := s.entity(id, "ns_GetNeuralData")
	if err != nil {
		return nil, err
	}
	if failErr := s.file.Fail[int(id)]; failErr != nil {
		return nil, failErr
	}
	if e.neural == nil {
		return nil, typeError("ns_GetNeuralData")
	}
	end := int(start) + int(count)
	if end > len(e.neural.Timestamps) {
		end = len(e.neural.Timestamps)
	}
	if int(start) > end {
		return nil, badIndex("ns_GetNeuralData")
	}
	return append([]float64(nil), e.neural.Timestamps[start:end]...), nil
}

func (s *session) Close() error {
	s.closed = true
	return nil
}
