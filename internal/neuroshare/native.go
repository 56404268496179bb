package neuroshare

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"unsafe"
)

// Fixed-size mirrors of the native API structures. Field order, widths
// and padding must match the C declarations exactly; the library writes
// straight into this memory.

type nsFileInfo struct {
	FileType            [32]byte
	EntityCount         uint32
	_                   uint32 // pad to 8-byte alignment
	TimeStampResolution float64
	TimeSpan            float64
	AppName             [64]byte
	TimeYear            uint32
	TimeMonth           uint32
	TimeDayOfWeek       uint32
	TimeDay             uint32
	TimeHour            uint32
	TimeMin             uint32
	TimeSec             uint32
	TimeMilliSec        uint32
	FileComment         [256]byte
}

type nsEntityInfo struct {
	Label     [32]byte
	Type      uint32
	ItemCount uint32
}

type nsEventInfo struct {
	EventType     uint32
	MinDataLength uint32
	MaxDataLength uint32
	CSVDesc       [128]byte
}

type nsAnalogInfo struct {
	SampleRate     float64
	MinVal         float64
	MaxVal         float64
	Units          [16]byte
	Resolution     float64
	LocationX      float64
	LocationY      float64
	LocationZ      float64
	HighFreqCorner float64
	HighFreqOrder  uint32
	HighFilterType [16]byte
	_              uint32 // pad to 8-byte alignment
	LowFreqCorner  float64
	LowFreqOrder   uint32
	LowFilterType  [16]byte
	ProbeInfo      [128]byte
}

type nsSegmentInfo struct {
	SourceCount    uint32
	MinSampleCount uint32
	MaxSampleCount uint32
	_              uint32 // pad to 8-byte alignment
	SampleRate     float64
	Units          [32]byte
}

type nsNeuralInfo struct {
	SourceEntityID uint32
	SourceUnitID   uint32
	ProbeInfo      [128]byte
}

// nativeFuncs holds the registered entry points of one loaded library.
type nativeFuncs struct {
	openFile        func(path string, handle *uint32) int32
	closeFile       func(handle uint32) int32
	getFileInfo     func(handle uint32, info *nsFileInfo, size uint32) int32
	getEntityInfo   func(handle, id uint32, info *nsEntityInfo, size uint32) int32
	getEventInfo    func(handle, id uint32, info *nsEventInfo, size uint32) int32
	getAnalogInfo   func(handle, id uint32, info *nsAnalogInfo, size uint32) int32
	getSegmentInfo  func(handle, id uint32, info *nsSegmentInfo, size uint32) int32
	getNeuralInfo   func(handle, id uint32, info *nsNeuralInfo, size uint32) int32
	getEventData    func(handle, id, index uint32, timestamp *float64, data *byte, size uint32, retSize *uint32) int32
	getAnalogData   func(handle, id, start, count uint32, contCount *uint32, data *float64) int32
	getSegmentData  func(handle, id, index uint32, timestamp *float64, data *float64, size uint32, sampleCount, unitID *uint32) int32
	getNeuralData   func(handle, id, start, count uint32, data *float64) int32
	getTimeByIndex  func(handle, id, index uint32, t *float64) int32
	getLastErrorMsg func(buf *byte, size uint32) int32
}

// Library is one loaded native Neuroshare library. A Library may open any
// number of sessions; each session wraps one native file handle.
type Library struct {
	path string
	fns  nativeFuncs
}

// Load loads the shared library at path and resolves the required entry
// points.
func Load(path string) (lib *Library, err error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, &LoadError{Path: path, cause: err}
	}

	// registerFunc panics on a missing symbol.
	defer func() {
		if r := recover(); r != nil {
			err = &LoadError{Path: path, cause: fmt.Errorf("%v", r)}
		}
	}()

	lib = &Library{path: path}
	registerFunc(&lib.fns.openFile, handle, "ns_OpenFile")
	registerFunc(&lib.fns.closeFile, handle, "ns_CloseFile")
	registerFunc(&lib.fns.getFileInfo, handle, "ns_GetFileInfo")
	registerFunc(&lib.fns.getEntityInfo, handle, "ns_GetEntityInfo")
	registerFunc(&lib.fns.getEventInfo, handle, "ns_GetEventInfo")
	registerFunc(&lib.fns.getAnalogInfo, handle, "ns_GetAnalogInfo")
	registerFunc(&lib.fns.getSegmentInfo, handle, "ns_GetSegmentInfo")
	registerFunc(&lib.fns.getNeuralInfo, handle, "ns_GetNeuralInfo")
	registerFunc(&lib.fns.getEventData, handle, "ns_GetEventData")
	registerFunc(&lib.fns.getAnalogData, handle, "ns_GetAnalogData")
	registerFunc(&lib.fns.getSegmentData, handle, "ns_GetSegmentData")
	registerFunc(&lib.fns.getNeuralData, handle, "ns_GetNeuralData")
	registerFunc(&lib.fns.getTimeByIndex, handle, "ns_GetTimeByIndex")
	registerFunc(&lib.fns.getLastErrorMsg, handle, "ns_GetLastErrorMsg")

	return lib, nil
}

// LoadDefault resolves and loads the library. An explicit existing path
// wins; otherwise the conventional install locations are probed, and as a
// last resort the bare platform filename is handed to the system linker.
func LoadDefault(explicit string) (*Library, error) {
	path, err := LocateLibrary(explicit, runtime.GOOS, DefaultSearchDirs())
	if err != nil {
		path = libraryNames(runtime.GOOS)[0]
	}
	return Load(path)
}

// Path returns the path the library was loaded from.
func (l *Library) Path() string { return l.path }

// Open opens the recording at path and returns a live session.
func (l *Library) Open(path string) (Session, error) {
	var handle uint32
	if rc := l.fns.openFile(path, &handle); rc != 0 {
		return nil, l.resultError("ns_OpenFile", rc)
	}
	return &nativeSession{
		lib:      l,
		handle:   handle,
		events:   make(map[uint32]EventInfo),
		segments: make(map[uint32]SegmentInfo),
	}, nil
}

func (l *Library) resultError(call string, rc int32) error {
	var buf [256]byte
	msg := ""
	if l.fns.getLastErrorMsg != nil && l.fns.getLastErrorMsg(&buf[0], uint32(len(buf))) == 0 {
		msg = cstring(buf[:])
	}
	return &ResultError{Call: call, Code: Result(rc), Msg: msg}
}

// nativeSession implements Session over one native file handle.
type nativeSession struct {
	lib    *Library
	handle uint32
	closed bool

	// Per-entity metadata needed to size read buffers, fetched once.
	events   map[uint32]EventInfo
	segments map[uint32]SegmentInfo
}

func (s *nativeSession) FileInfo() (FileInfo, error) {
	var raw nsFileInfo
	if rc := s.lib.fns.getFileInfo(s.handle, &raw, uint32(sizeOf(raw))); rc != 0 {
		return FileInfo{}, s.lib.resultError("ns_GetFileInfo", rc)
	}
	return FileInfo{
		FileType:            cstring(raw.FileType[:]),
		EntityCount:         int(raw.EntityCount),
		TimeStampResolution: raw.TimeStampResolution,
		TimeSpan:            raw.TimeSpan,
		AppName:             cstring(raw.AppName[:]),
		Comment:             cstring(raw.FileComment[:]),
		RecordedAt: RecordedAt{
			Year:        int(raw.TimeYear),
			Month:       int(raw.TimeMonth),
			Day:         int(raw.TimeDay),
			Hour:        int(raw.TimeHour),
			Minute:      int(raw.TimeMin),
			Second:      int(raw.TimeSec),
			Millisecond: int(raw.TimeMilliSec),
		},
	}, nil
}

func (s *nativeSession) EntityInfo(id uint32) (EntityInfo, error) {
	var raw nsEntityInfo
	if rc := s.lib.fns.getEntityInfo(s.handle, id, &raw, uint32(sizeOf(raw))); rc != 0 {
		return EntityInfo{}, s.lib.resultError("ns_GetEntityInfo", rc)
	}
	return EntityInfo{
		Label:     cstring(raw.Label[:]),
		Type:      EntityType(raw.Type),
		ItemCount: int(raw.ItemCount),
	}, nil
}

func (s *nativeSession) AnalogInfo(id uint32) (AnalogInfo, error) {
	var raw nsAnalogInfo
	if rc := s.lib.fns.getAnalogInfo(s.handle, id, &raw, uint32(sizeOf(raw))); rc != 0 {
		return AnalogInfo{}, s.lib.resultError("ns_GetAnalogInfo", rc)
	}
	return AnalogInfo{
		SampleRate: raw.SampleRate,
		MinValue:   raw.MinVal,
		MaxValue:   raw.MaxVal,
		Units:      cstring(raw.Units[:]),
		Resolution: raw.Resolution,
	}, nil
}

func (s *nativeSession) EventInfo(id uint32) (EventInfo, error) {
	if info, ok := s.events[id]; ok {
		return info, nil
	}
	var raw nsEventInfo
	if rc := s.lib.fns.getEventInfo(s.handle, id, &raw, uint32(sizeOf(raw))); rc != 0 {
		return EventInfo{}, s.lib.resultError("ns_GetEventInfo", rc)
	}
	info := EventInfo{
		Kind:          EventKind(raw.EventType),
		MinDataLength: int(raw.MinDataLength),
		MaxDataLength: int(raw.MaxDataLength),
		CSVDesc:       cstring(raw.CSVDesc[:]),
	}
	s.events[id] = info
	return info, nil
}

func (s *nativeSession) SegmentInfo(id uint32) (SegmentInfo, error) {
	if info, ok := s.segments[id]; ok {
		return info, nil
	}
	var raw nsSegmentInfo
	if rc := s.lib.fns.getSegmentInfo(s.handle, id, &raw, uint32(sizeOf(raw))); rc != 0 {
		return SegmentInfo{}, s.lib.resultError("ns_GetSegmentInfo", rc)
	}
	info := SegmentInfo{
		SourceCount:    int(raw.SourceCount),
		MinSampleCount: int(raw.MinSampleCount),
		MaxSampleCount: int(raw.MaxSampleCount),
		SampleRate:     raw.SampleRate,
		Units:          cstring(raw.Units[:]),
	}
	s.segments[id] = info
	return info, nil
}

func (s *nativeSession) NeuralInfo(id uint32) (NeuralInfo, error) {
	var raw nsNeuralInfo
	if rc := s.lib.fns.getNeuralInfo(s.handle, id, &raw, uint32(sizeOf(raw))); rc != 0 {
		return NeuralInfo{}, s.lib.resultError("ns_GetNeuralInfo", rc)
	}
	return NeuralInfo{
		SourceEntityID: int(raw.SourceEntityID),
		SourceUnitID:   int(raw.SourceUnitID),
	}, nil
}

func (s *nativeSession) AnalogData(id, start, count uint32) ([]float64, uint32, error) {
	if count == 0 {
		return nil, 0, nil
	}
	buf := make([]float64, count)
	var contCount uint32
	if rc := s.lib.fns.getAnalogData(s.handle, id, start, count, &contCount, &buf[0]); rc != 0 {
		return nil, 0, s.lib.resultError("ns_GetAnalogData", rc)
	}
	return buf, contCount, nil
}

func (s *nativeSession) TimeByIndex(id, index uint32) (float64, error) {
	var t float64
	if rc := s.lib.fns.getTimeByIndex(s.handle, id, index, &t); rc != 0 {
		return 0, s.lib.resultError("ns_GetTimeByIndex", rc)
	}
	return t, nil
}

func (s *nativeSession) EventData(id, index uint32) (float64, EventValue, error) {
	info, err := s.EventInfo(id)
	if err != nil {
		return 0, EventValue{}, err
	}

	size := info.MaxDataLength
	if size < 4 {
		size = 4
	}
	buf := make([]byte, size)

	var timestamp float64
	var retSize uint32
	rc := s.lib.fns.getEventData(s.handle, id, index, &timestamp, &buf[0], uint32(size), &retSize)
	if rc != 0 {
		return 0, EventValue{}, s.lib.resultError("ns_GetEventData", rc)
	}

	value := EventValue{Kind: info.Kind}
	switch info.Kind {
	case EventByte:
		value.Number = float64(buf[0])
	case EventWord:
		value.Number = float64(binary.LittleEndian.Uint16(buf))
	case EventDWord:
		value.Number = float64(binary.LittleEndian.Uint32(buf))
	default:
		if int(retSize) < len(buf) {
			buf = buf[:retSize]
		}
		value.Text = cstring(buf)
	}
	return timestamp, value, nil
}

func (s *nativeSession) SegmentData(id, index uint32) ([]float64, float64, uint32, uint32, error) {
	info, err := s.SegmentInfo(id)
	if err != nil {
		return nil, 0, 0, 0, err
	}

	n := info.MaxSampleCount * info.SourceCount
	if n == 0 {
		n = 1
	}
	buf := make([]float64, n)

	var timestamp float64
	var sampleCount, unitID uint32
	rc := s.lib.fns.getSegmentData(s.handle, id, index, &timestamp, &buf[0], uint32(len(buf)*8), &sampleCount, &unitID)
	if rc != 0 {
		return nil, 0, 0, 0, s.lib.resultError("ns_GetSegmentData", rc)
	}

	valid := int(sampleCount) * info.SourceCount
	if valid > len(buf) {
		valid = len(buf)
	}
	return buf[:valid], timestamp, sampleCount, unitID, nil
}

func (s *nativeSession) NeuralData(id, start, count uint32) ([]float64, error) {
	if count == 0 {
		return nil, nil
	}
	buf := make([]float64, count)
	if rc := s.lib.fns.getNeuralData(s.handle, id, start, count, &buf[0]); rc != 0 {
		return nil, s.lib.resultError("ns_GetNeuralData", rc)
	}
	return buf, nil
}

func (s *nativeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if rc := s.lib.fns.closeFile(s.handle); rc != 0 {
		return s.lib.resultError("ns_CloseFile", rc)
	}
	return nil
}

func sizeOf[T any](v T) uintptr { return unsafe.Sizeof(v) }

// cstring returns the bytes up to the first NUL as a string.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
