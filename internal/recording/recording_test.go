package recording

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcdkit/internal/neuroshare"
	"mcdkit/internal/neuroshare/nstest"
)

// touch creates an empty stand-in file so Open's existence check passes
// before the injected opener takes over.
func touch(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.mcd")
	require.NoError(t, os.WriteFile(path, []byte("mcd"), 0o644))
	return path
}

func sampleFile() *nstest.File {
	fake := nstest.NewFile()

	data := make([]float64, 1000)
	for i := range data {
		data[i] = float64(i) * 0.001
	}
	fake.AddAnalog(nstest.Analog{
		Label:      "Ch1",
		SampleRate: 1000,
		MinValue:   -1,
		MaxValue:   1,
		Units:      "V",
		Data:       data,
	})

	fake.AddEvent(nstest.Event{
		Label:      "Trigger",
		Kind:       neuroshare.EventDWord,
		Timestamps: []float64{0.1, 0.5, 1.0, 2.5, 7.25},
		Numbers:    []float64{1, 2, 3, 4, 5},
	})

	fake.AddSegment(nstest.Segment{
		Label:       "Spikes 1",
		SampleRate:  25000,
		SourceCount: 2,
		Units:       "V",
		Items: []nstest.SegmentItem{
			{Timestamp: 0.25, UnitID: 1, Data: [][]float64{{1, 10}, {2, 20}, {3, 30}}},
			{Timestamp: 0.75, UnitID: 0, Data: [][]float64{{4, 40}, {5, 50}, {6, 60}}},
		},
	})

	fake.AddNeural(nstest.Neural{
		Label:      "Unit 1",
		Timestamps: []float64{0.2, 0.4, 0.9, 3.1},
	})

	return fake
}

func openSample(t *testing.T, fake *nstest.File) *File {
	t.Helper()
	f, err := Open(touch(t), WithOpener(fake.Open))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.mcd"), WithOpener(sampleFile().Open))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.NotEmpty(t, nf.Path)
}

func TestInfo(t *testing.T) {
	f := openSample(t, sampleFile())

	meta, err := f.Info()
	require.NoError(t, err)

	assert.Equal(t, "MCD", meta.FileType)
	assert.Equal(t, 4, meta.EntityCount)
	assert.Equal(t, "MC_Rack", meta.AppName)
	assert.InDelta(t, 0.001, meta.TimeStampResolution, 1e-12)
	assert.Equal(t, 2024, meta.RecordedAt.Year)
}

func TestEntities_Listing(t *testing.T) {
	f := openSample(t, sampleFile())

	entities, err := f.Entities()
	require.NoError(t, err)
	require.Len(t, entities, 4)

	for i, e := range entities {
		assert.Equal(t, i, e.ID)
	}
	assert.Equal(t, "Ch1", entities[0].Label)
	assert.Equal(t, neuroshare.EntityAnalog, entities[0].Type)
	assert.Equal(t, 1000, entities[0].ItemCount)
	assert.Equal(t, neuroshare.EntityEvent, entities[1].Type)
	assert.Equal(t, neuroshare.EntitySegment, entities[2].Type)
	assert.Equal(t, neuroshare.EntityNeural, entities[3].Type)
}

func TestEntitiesByType(t *testing.T) {
	f := openSample(t, sampleFile())

	analogs, err := f.EntitiesByType(neuroshare.EntityAnalog)
	require.NoError(t, err)
	require.Len(t, analogs, 1)
	assert.Equal(t, "Ch1", analogs[0].Label)

	unknown, err := f.EntitiesByType(neuroshare.EntityUnknown)
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestEntitiesByTypeName(t *testing.T) {
	f := openSample(t, sampleFile())

	segments, err := f.EntitiesByTypeName("segment")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "Spikes 1", segments[0].Label)

	_, err = f.EntitiesByTypeName("wave")
	var bad *neuroshare.InvalidTypeNameError
	assert.ErrorAs(t, err, &bad)
}

func TestEntity_TypeSpecificDetail(t *testing.T) {
	f := openSample(t, sampleFile())

	analog, err := f.Entity(0)
	require.NoError(t, err)
	require.NotNil(t, analog.Analog)
	assert.Nil(t, analog.Event)
	assert.InDelta(t, 1000.0, analog.Analog.SampleRate, 1e-9)
	assert.Equal(t, "V", analog.Analog.Units)

	event, err := f.Entity(1)
	require.NoError(t, err)
	require.NotNil(t, event.Event)
	assert.Equal(t, neuroshare.EventDWord, event.Event.Kind)

	segment, err := f.Entity(2)
	require.NoError(t, err)
	require.NotNil(t, segment.Segment)
	assert.Equal(t, 2, segment.Segment.SourceCount)

	neural, err := f.Entity(3)
	require.NoError(t, err)
	require.NotNil(t, neural.Neural)
}

func TestEntity_UnknownID(t *testing.T) {
	f := openSample(t, sampleFile())

	_, err := f.Entity(42)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 42, nf.ID)

	_, err = f.Entity(-1)
	assert.ErrorAs(t, err, &nf)
}

func TestAnalogData_FullRead(t *testing.T) {
	f := openSample(t, sampleFile())

	record, err := f.AnalogData(0, 0, AllItems)
	require.NoError(t, err)

	assert.Equal(t, "Ch1", record.Label)
	require.Len(t, record.Data, 1000)
	require.Len(t, record.Timestamps, 1000)
	assert.Equal(t, 1000, record.ContinuousCount)
	assert.InDelta(t, 1000.0, record.SampleRate, 1e-9)

	for i := 1; i < len(record.Timestamps); i++ {
		assert.GreaterOrEqual(t, record.Timestamps[i], record.Timestamps[i-1])
	}
	assert.InDelta(t, 0.0, record.Timestamps[0], 1e-12)
	assert.InDelta(t, 0.999, record.Timestamps[999], 1e-9)
}

func TestAnalogData_Window(t *testing.T) {
	f := openSample(t, sampleFile())

	record, err := f.AnalogData(0, 100, 50)
	require.NoError(t, err)
	require.Len(t, record.Data, 50)
	assert.InDelta(t, 0.100, record.Data[0], 1e-12)
	assert.InDelta(t, 0.100, record.Timestamps[0], 1e-9)
}

func TestAnalogData_CountClampedToEnd(t *testing.T) {
	f := openSample(t, sampleFile())

	record, err := f.AnalogData(0, 990, 100)
	require.NoError(t, err)
	assert.Len(t, record.Data, 10)
}

func TestAnalogData_StartOutOfRange(t *testing.T) {
	f := openSample(t, sampleFile())

	_, err := f.AnalogData(0, 1001, 1)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 1001, oor.Index)
}

func TestAnalogData_StartAtEnd(t *testing.T) {
	f := openSample(t, sampleFile())

	record, err := f.AnalogData(0, 1000, AllItems)
	require.NoError(t, err)
	assert.Empty(t, record.Data)
	assert.Empty(t, record.Timestamps)
}

func TestAnalogData_TypeMismatch(t *testing.T) {
	f := openSample(t, sampleFile())

	_, err := f.AnalogData(1, 0, AllItems)
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, neuroshare.EntityAnalog, tm.Want)
	assert.Equal(t, neuroshare.EntityEvent, tm.Got)
}

func TestEventData_NumericKind(t *testing.T) {
	f := openSample(t, sampleFile())

	record, err := f.EventData(1)
	require.NoError(t, err)

	assert.Equal(t, "Trigger", record.Label)
	assert.True(t, record.Numeric())
	assert.Equal(t, []float64{0.1, 0.5, 1.0, 2.5, 7.25}, record.Timestamps)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, record.Values)
	assert.Nil(t, record.Texts)
}

func TestEventData_TextKind(t *testing.T) {
	fake := sampleFile()
	id := fake.AddEvent(nstest.Event{
		Label:      "Marker",
		Kind:       neuroshare.EventText,
		Timestamps: []float64{1.5, 2.5},
		Texts:      []string{"start", "stop"},
	})
	f := openSample(t, fake)

	record, err := f.EventData(id)
	require.NoError(t, err)
	assert.False(t, record.Numeric())
	assert.Nil(t, record.Values)
	assert.Equal(t, []string{"start", "stop"}, record.Texts)
}

func TestSegmentData(t *testing.T) {
	f := openSample(t, sampleFile())

	seg, err := f.SegmentData(2, 0)
	require.NoError(t, err)

	assert.Equal(t, "Spikes 1", seg.Label)
	assert.InDelta(t, 0.25, seg.Timestamp, 1e-12)
	assert.Equal(t, 1, seg.UnitID)
	assert.Equal(t, 3, seg.SampleCount)
	assert.Equal(t, 2, seg.SourceCount)
	assert.Equal(t, [][]float64{{1, 10}, {2, 20}, {3, 30}}, seg.Data)
}

func TestSegmentData_IndexOutOfRange(t *testing.T) {
	f := openSample(t, sampleFile())

	_, err := f.SegmentData(2, 2)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 2, oor.Index)
	assert.Equal(t, 2, oor.Count)
}

func TestAllSegments(t *testing.T) {
	f := openSample(t, sampleFile())

	segments, err := f.AllSegments(2)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, [][]float64{{4, 40}, {5, 50}, {6, 60}}, segments[1].Data)
	assert.Equal(t, 0, segments[1].UnitID)
}

func TestNeuralData(t *testing.T) {
	f := openSample(t, sampleFile())

	record, err := f.NeuralData(3, 0, AllItems)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.4, 0.9, 3.1}, record.Timestamps)

	window, err := f.NeuralData(3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, 0.9}, window.Timestamps)
}

func TestClose_Idempotent(t *testing.T) {
	f := openSample(t, sampleFile())

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	_, err := f.Info()
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = f.Entities()
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = f.AnalogData(0, 0, AllItems)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestTwoEntityRecording(t *testing.T) {
	fake := nstest.NewFile()
	data := make([]float64, 1000)
	analogID := fake.AddAnalog(nstest.Analog{Label: "Ch1", SampleRate: 1000, Data: data})
	eventID := fake.AddEvent(nstest.Event{
		Label:      "Trigger",
		Kind:       neuroshare.EventByte,
		Timestamps: []float64{0.1, 0.2, 0.3, 0.4, 0.5},
		Numbers:    []float64{1, 1, 1, 1, 1},
	})
	f := openSample(t, fake)

	meta, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, 2, meta.EntityCount)

	analog, err := f.AnalogData(analogID, 0, AllItems)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, analog.SampleRate, 1e-9)

	events, err := f.EventData(eventID)
	require.NoError(t, err)
	require.Len(t, events.Timestamps, 5)
	for i := 1; i < len(events.Timestamps); i++ {
		assert.Greater(t, events.Timestamps[i], events.Timestamps[i-1])
	}
}

func TestFilteredListingMatchesType(t *testing.T) {
	f := openSample(t, sampleFile())

	all, err := f.Entities()
	require.NoError(t, err)

	for _, e := range all {
		filtered, err := f.EntitiesByTypeName(e.TypeName())
		require.NoError(t, err)

		seen := 0
		for _, m := range filtered {
			assert.Equal(t, e.Type, m.Type)
			if m.ID == e.ID {
				seen++
			}
		}
		assert.Equal(t, 1, seen, "entity %d appears once in its type filter", e.ID)
	}
}

func TestTranslateResult_BadEntityBecomesNotFound(t *testing.T) {
	cause := &neuroshare.ResultError{Call: "ns_GetAnalogData", Code: neuroshare.ResultBadEntity}
	err := translateResult(cause, 7)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 7, nf.ID)
	assert.True(t, errors.Is(err, cause))
}

func TestNormalizeRange(t *testing.T) {
	f := &File{}
	e := EntitySummary{ID: 0, ItemCount: 10}

	start, count, err := f.normalizeRange(e, 0, AllItems)
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Equal(t, 10, count)

	_, count, err = f.normalizeRange(e, 4, 100)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	_, _, err = f.normalizeRange(e, 11, 1)
	var oor *OutOfRangeError
	assert.ErrorAs(t, err, &oor)
}
