// Package recording presents a uniform, validated, typed view over one
// opened MCS recording. All byte-level decoding is delegated to the
// native binding; this package validates arguments against metadata
// cached at open time and shapes the returned buffers into records.
//
// A File is not safe for concurrent use: at most one logical reader per
// handle at a time, or external synchronization.
package recording

import (
	"os"

	"mcdkit/internal/neuroshare"
)

// AllItems is the count sentinel that reads to the end of an entity.
const AllItems = -1

type openConfig struct {
	libraryPath string
	opener      neuroshare.Opener
}

// Option configures Open.
type Option func(*openConfig)

// WithLibraryPath sets an explicit path to the native library. Without
// it the conventional install locations are probed.
func WithLibraryPath(path string) Option {
	return func(c *openConfig) { c.libraryPath = path }
}

// WithOpener substitutes the session opener, bypassing native library
// loading entirely. Used by tests and alternate bindings.
func WithOpener(opener neuroshare.Opener) Option {
	return func(c *openConfig) { c.opener = opener }
}

// File is one open recording. Entity metadata for every id is fetched
// once at Open and cached behind the stable zero-based id; the source
// file is read-only for the life of the handle, so the cached item
// counts are authoritative for range checks.
type File struct {
	path    string
	session neuroshare.Session

	meta     FileMetadata
	entities []EntitySummary

	analogInfo  map[int]neuroshare.AnalogInfo
	segmentInfo map[int]neuroshare.SegmentInfo
}

// Open opens the recording at path. A missing path fails before any
// native call is attempted.
func Open(path string, opts ...Option) (*File, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &NotFoundError{Path: path, cause: err}
	}

	opener := cfg.opener
	if opener == nil {
		lib, err := neuroshare.LoadDefault(cfg.libraryPath)
		if err != nil {
			return nil, &OpenError{Path: path, cause: err}
		}
		opener = lib.Open
	}

	session, err := opener(path)
	if err != nil {
		return nil, &OpenError{Path: path, cause: err}
	}

	f := &File{
		path:        path,
		session:     session,
		analogInfo:  make(map[int]neuroshare.AnalogInfo),
		segmentInfo: make(map[int]neuroshare.SegmentInfo),
	}
	if err := f.loadMetadata(); err != nil {
		session.Close()
		return nil, &OpenError{Path: path, cause: err}
	}
	return f, nil
}

func (f *File) loadMetadata() error {
	info, err := f.session.FileInfo()
	if err != nil {
		return err
	}
	f.meta = FileMetadata{
		FileType:            info.FileType,
		EntityCount:         info.EntityCount,
		TimeStampResolution: info.TimeStampResolution,
		TimeSpan:            info.TimeSpan,
		AppName:             info.AppName,
		Comment:             info.Comment,
		RecordedAt:          info.RecordedAt,
	}

	f.entities = make([]EntitySummary, info.EntityCount)
	for id := 0; id < info.EntityCount; id++ {
		e, err := f.session.EntityInfo(uint32(id))
		if err != nil {
			return err
		}
		f.entities[id] = EntitySummary{
			ID:        id,
			Label:     e.Label,
			Type:      e.Type,
			ItemCount: e.ItemCount,
		}
	}
	return nil
}

// Path returns the path the recording was opened from.
func (f *File) Path() string { return f.path }

// Info returns the file header metadata.
func (f *File) Info() (FileMetadata, error) {
	if f.session == nil {
		return FileMetadata{}, ErrNotOpen
	}
	return f.meta, nil
}

// Entities lists every entity in id order.
func (f *File) Entities() ([]EntitySummary, error) {
	if f.session == nil {
		return nil, ErrNotOpen
	}
	out := make([]EntitySummary, len(f.entities))
	copy(out, f.entities)
	return out, nil
}

// EntitiesByType filters the listing to one entity type, preserving id
// order.
func (f *File) EntitiesByType(t neuroshare.EntityType) ([]EntitySummary, error) {
	if f.session == nil {
		return nil, ErrNotOpen
	}
	var out []EntitySummary
	for _, e := range f.entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out, nil
}

// EntitiesByTypeName is EntitiesByType keyed by symbolic name.
func (f *File) EntitiesByTypeName(name string) ([]EntitySummary, error) {
	if f.session == nil {
		return nil, ErrNotOpen
	}
	t, err := neuroshare.ParseEntityType(name)
	if err != nil {
		return nil, err
	}
	return f.EntitiesByType(t)
}

// Entity returns detailed metadata for one entity, including the
// type-specific block matching its type.
func (f *File) Entity(id int) (EntityDetail, error) {
	summary, err := f.entity(id)
	if err != nil {
		return EntityDetail{}, err
	}

	detail := EntityDetail{EntitySummary: summary}
	switch summary.Type {
	case neuroshare.EntityAnalog:
		info, err := f.analogDetail(id)
		if err != nil {
			return EntityDetail{}, err
		}
		detail.Analog = &info
	case neuroshare.EntityEvent:
		info, err := f.session.EventInfo(uint32(id))
		if err != nil {
			return EntityDetail{}, translateResult(err, id)
		}
		detail.Event = &info
	case neuroshare.EntitySegment:
		info, err := f.segmentDetail(id)
		if err != nil {
			return EntityDetail{}, err
		}
		detail.Segment = &info
	case neuroshare.EntityNeural:
		info, err := f.session.NeuralInfo(uint32(id))
		if err != nil {
			return EntityDetail{}, translateResult(err, id)
		}
		detail.Neural = &info
	}
	return detail, nil
}

// AnalogData reads count samples of an analog entity starting at start.
// AllItems reads to the end.
func (f *File) AnalogData(id, start, count int) (AnalogRecord, error) {
	summary, err := f.requireType(id, neuroshare.EntityAnalog)
	if err != nil {
		return AnalogRecord{}, err
	}

	start, count, err = f.normalizeRange(summary, start, count)
	if err != nil {
		return AnalogRecord{}, err
	}

	info, err := f.analogDetail(id)
	if err != nil {
		return AnalogRecord{}, err
	}

	record := AnalogRecord{
		Label:      summary.Label,
		SampleRate: info.SampleRate,
		Units:      info.Units,
		Meta:       info,
	}
	if count == 0 {
		record.Data = []float64{}
		record.Timestamps = []float64{}
		return record, nil
	}

	data, contCount, err := f.session.AnalogData(uint32(id), uint32(start), uint32(count))
	if err != nil {
		return AnalogRecord{}, translateResult(err, id)
	}

	t0, err := f.session.TimeByIndex(uint32(id), uint32(start))
	if err != nil {
		return AnalogRecord{}, translateResult(err, id)
	}

	timestamps := make([]float64, len(data))
	for i := range timestamps {
		if info.SampleRate > 0 {
			timestamps[i] = t0 + float64(i)/info.SampleRate
		} else {
			timestamps[i] = t0
		}
	}

	record.Data = data
	record.Timestamps = timestamps
	record.ContinuousCount = int(contCount)
	return record, nil
}

// EventData reads every item of an event entity. Timestamps come back
// ascending; numeric kinds populate Values, text kinds Texts.
func (f *File) EventData(id int) (EventRecord, error) {
	summary, err := f.requireType(id, neuroshare.EntityEvent)
	if err != nil {
		return EventRecord{}, err
	}

	info, err := f.session.EventInfo(uint32(id))
	if err != nil {
		return EventRecord{}, translateResult(err, id)
	}

	record := EventRecord{
		Label:      summary.Label,
		Kind:       info.Kind,
		Timestamps: make([]float64, 0, summary.ItemCount),
	}
	for i := 0; i < summary.ItemCount; i++ {
		ts, value, err := f.session.EventData(uint32(id), uint32(i))
		if err != nil {
			return EventRecord{}, translateResult(err, id)
		}
		record.Timestamps = append(record.Timestamps, ts)
		if info.Kind.Numeric() {
			record.Values = append(record.Values, value.Number)
		} else {
			record.Texts = append(record.Texts, value.Text)
		}
	}
	return record, nil
}

// SegmentData reads one waveform snapshot of a segment entity.
func (f *File) SegmentData(id, index int) (SegmentRecord, error) {
	summary, err := f.requireType(id, neuroshare.EntitySegment)
	if err != nil {
		return SegmentRecord{}, err
	}
	if index < 0 || index >= summary.ItemCount {
		return SegmentRecord{}, &OutOfRangeError{ID: id, Index: index, Count: summary.ItemCount}
	}

	info, err := f.segmentDetail(id)
	if err != nil {
		return SegmentRecord{}, err
	}

	flat, timestamp, sampleCount, unitID, err := f.session.SegmentData(uint32(id), uint32(index))
	if err != nil {
		return SegmentRecord{}, translateResult(err, id)
	}

	sources := info.SourceCount
	if sources < 1 {
		sources = 1
	}

	// The native buffer is source-major; reshape to samples x sources.
	samples := int(sampleCount)
	data := make([][]float64, samples)
	for row := 0; row < samples; row++ {
		data[row] = make([]float64, sources)
		for src := 0; src < sources; src++ {
			idx := src*samples + row
			if idx < len(flat) {
				data[row][src] = flat[idx]
			}
		}
	}

	return SegmentRecord{
		Label:       summary.Label,
		Data:        data,
		Timestamp:   timestamp,
		SampleCount: samples,
		UnitID:      int(unitID),
		SourceCount: sources,
		SampleRate:  info.SampleRate,
	}, nil
}

// AllSegments reads every snapshot of a segment entity in index order.
// The result length equals the entity's item count.
func (f *File) AllSegments(id int) ([]SegmentRecord, error) {
	summary, err := f.requireType(id, neuroshare.EntitySegment)
	if err != nil {
		return nil, err
	}

	segments := make([]SegmentRecord, 0, summary.ItemCount)
	for i := 0; i < summary.ItemCount; i++ {
		seg, err := f.SegmentData(id, i)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// NeuralData reads count spike times of a neural entity starting at
// start. AllItems reads to the end.
func (f *File) NeuralData(id, start, count int) (NeuralRecord, error) {
	summary, err := f.requireType(id, neuroshare.EntityNeural)
	if err != nil {
		return NeuralRecord{}, err
	}

	start, count, err = f.normalizeRange(summary, start, count)
	if err != nil {
		return NeuralRecord{}, err
	}

	record := NeuralRecord{Label: summary.Label}
	if count == 0 {
		record.Timestamps = []float64{}
		return record, nil
	}

	timestamps, err := f.session.NeuralData(uint32(id), uint32(start), uint32(count))
	if err != nil {
		return NeuralRecord{}, translateResult(err, id)
	}
	record.Timestamps = timestamps
	return record, nil
}

// Close releases the native session. It is idempotent; every operation
// after Close fails with ErrNotOpen.
func (f *File) Close() error {
	if f.session == nil {
		return nil
	}
	err := f.session.Close()
	f.session = nil
	return err
}

func (f *File) entity(id int) (EntitySummary, error) {
	if f.session == nil {
		return EntitySummary{}, ErrNotOpen
	}
	if id < 0 || id >= len(f.entities) {
		return EntitySummary{}, &NotFoundError{ID: id}
	}
	return f.entities[id], nil
}

func (f *File) requireType(id int, want neuroshare.EntityType) (EntitySummary, error) {
	summary, err := f.entity(id)
	if err != nil {
		return EntitySummary{}, err
	}
	if summary.Type != want {
		return EntitySummary{}, &TypeMismatchError{ID: id, Want: want, Got: summary.Type}
	}
	return summary, nil
}

// normalizeRange resolves the AllItems sentinel and clamps count to the
// entity's end. A start outside [0, item_count] is out of range.
func (f *File) normalizeRange(e EntitySummary, start, count int) (int, int, error) {
	if start < 0 || start > e.ItemCount {
		return 0, 0, &OutOfRangeError{ID: e.ID, Index: start, Count: e.ItemCount}
	}
	if count == AllItems || start+count > e.ItemCount {
		count = e.ItemCount - start
	}
	if count < 0 {
		count = 0
	}
	return start, count, nil
}

func (f *File) analogDetail(id int) (neuroshare.AnalogInfo, error) {
	if info, ok := f.analogInfo[id]; ok {
		return info, nil
	}
	info, err := f.session.AnalogInfo(uint32(id))
	if err != nil {
		return neuroshare.AnalogInfo{}, translateResult(err, id)
	}
	f.analogInfo[id] = info
	return info, nil
}

func (f *File) segmentDetail(id int) (neuroshare.SegmentInfo, error) {
	if info, ok := f.segmentInfo[id]; ok {
		return info, nil
	}
	info, err := f.session.SegmentInfo(uint32(id))
	if err != nil {
		return neuroshare.SegmentInfo{}, translateResult(err, id)
	}
	f.segmentInfo[id] = info
	return info, nil
}
