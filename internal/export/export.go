// Package export snapshots an entire recording into an HDF5 container
// for downstream tooling that cannot speak the native format.
//
// Layout contract (consumers depend on it):
//
//	/meta                          int32 scalar, attrs: file_type, entity_count,
//	                               time_stamp_resolution, time_span, app_name, comment
//	/analog/<label>/data           attrs: sample_rate, units
//	/analog/<label>/timestamps
//	/events/<label>/timestamps
//	/events/<label>/values         only when the event values are numeric
//	/segments/<label>/segment_NNNN/data
//	                               flattened samples x sources, attrs: timestamp,
//	                               unit_id, sample_count, source_count
//	/neural/<label>/timestamps
//
// Labels are made path-safe by replacing "/" with "_". The container
// library attaches attributes at dataset creation time, so per-group
// metadata rides on each group's data dataset and the file header on
// the /meta dataset.
package export

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-hdf5/hdf5"

	"mcdkit/internal/neuroshare"
	"mcdkit/internal/recording"
)

// formatVersion is the value of the /meta dataset.
const formatVersion = int32(1)

// ProgressFunc receives (current, total, message) once per entity before
// it is converted, and once more at completion with message "done".
type ProgressFunc func(current, total int, message string)

type config struct {
	progress    ProgressFunc
	libraryPath string
	opener      neuroshare.Opener
}

// Option configures Convert.
type Option func(*config)

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) { c.progress = fn }
}

// WithLibraryPath sets an explicit native library path for the source.
func WithLibraryPath(path string) Option {
	return func(c *config) { c.libraryPath = path }
}

// WithOpener substitutes the source session opener (tests, alternate
// bindings).
func WithOpener(opener neuroshare.Opener) Option {
	return func(c *config) { c.opener = opener }
}

// Result reports what a conversion did. Warnings carry per-entity
// failures that did not abort the export.
type Result struct {
	Converted int
	Skipped   int
	Warnings  []error
}

// Convert exports the recording at src into a new HDF5 container at dst.
// A failure to open either side is fatal; a failure converting one
// entity is recorded as a warning and the loop continues.
func Convert(src, dst string, opts ...Option) (Result, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	var openOpts []recording.Option
	if cfg.libraryPath != "" {
		openOpts = append(openOpts, recording.WithLibraryPath(cfg.libraryPath))
	}
	if cfg.opener != nil {
		openOpts = append(openOpts, recording.WithOpener(cfg.opener))
	}

	rec, err := recording.Open(src, openOpts...)
	if err != nil {
		return Result{}, err
	}
	defer rec.Close()

	out, err := hdf5.Create(dst)
	if err != nil {
		return Result{}, fmt.Errorf("export: create %s: %w", dst, err)
	}

	result, err := convert(rec, out, cfg.progress)

	// Close flushes the superblock; a failed flush is a failed export.
	if cerr := out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("export: close %s: %w", dst, cerr)
	}
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func convert(rec *recording.File, out *hdf5.File, progress ProgressFunc) (Result, error) {
	meta, err := rec.Info()
	if err != nil {
		return Result{}, err
	}

	root := out.Root()
	if _, err := root.CreateDataset("meta", formatVersion,
		hdf5.WithAttribute("file_type", meta.FileType),
		hdf5.WithAttribute("entity_count", int32(meta.EntityCount)),
		hdf5.WithAttribute("time_stamp_resolution", meta.TimeStampResolution),
		hdf5.WithAttribute("time_span", meta.TimeSpan),
		hdf5.WithAttribute("app_name", meta.AppName),
		hdf5.WithAttribute("comment", meta.Comment),
	); err != nil {
		return Result{}, fmt.Errorf("export: write meta: %w", err)
	}

	groups := make(map[neuroshare.EntityType]*hdf5.Group, 4)
	for _, kind := range []struct {
		t    neuroshare.EntityType
		name string
	}{
		{neuroshare.EntityEvent, "events"},
		{neuroshare.EntityAnalog, "analog"},
		{neuroshare.EntitySegment, "segments"},
		{neuroshare.EntityNeural, "neural"},
	} {
		g, err := root.CreateGroup(kind.name)
		if err != nil {
			return Result{}, fmt.Errorf("export: create group %s: %w", kind.name, err)
		}
		groups[kind.t] = g
	}

	entities, err := rec.Entities()
	if err != nil {
		return Result{}, err
	}
	total := len(entities)

	var result Result
	for i, entity := range entities {
		if progress != nil {
			progress(i, total, "converting "+entity.Label)
		}

		parent, ok := groups[entity.Type]
		if !ok {
			result.Skipped++
			continue
		}

		if err := convertEntity(rec, parent, entity); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Errorf("convert entity %d (%s): %w", entity.ID, entity.Label, err))
			result.Skipped++
			continue
		}
		result.Converted++
	}

	if progress != nil {
		progress(total, total, "done")
	}
	return result, nil
}

func convertEntity(rec *recording.File, parent *hdf5.Group, entity recording.EntitySummary) error {
	group, err := parent.CreateGroup(safeLabel(entity.Label))
	if err != nil {
		return err
	}

	switch entity.Type {
	case neuroshare.EntityAnalog:
		return writeAnalog(rec, group, entity.ID)
	case neuroshare.EntityEvent:
		return writeEvents(rec, group, entity.ID)
	case neuroshare.EntitySegment:
		return writeSegments(rec, group, entity.ID)
	case neuroshare.EntityNeural:
		return writeNeural(rec, group, entity.ID)
	default:
		return nil
	}
}

func writeAnalog(rec *recording.File, group *hdf5.Group, id int) error {
	record, err := rec.AnalogData(id, 0, recording.AllItems)
	if err != nil {
		return err
	}
	if _, err := group.CreateDataset("data", record.Data,
		hdf5.WithAttribute("sample_rate", record.SampleRate),
		hdf5.WithAttribute("units", record.Units),
	); err != nil {
		return err
	}
	_, err = group.CreateDataset("timestamps", record.Timestamps)
	return err
}

func writeEvents(rec *recording.File, group *hdf5.Group, id int) error {
	record, err := rec.EventData(id)
	if err != nil {
		return err
	}
	if _, err := group.CreateDataset("timestamps", record.Timestamps); err != nil {
		return err
	}
	if record.Values != nil {
		if _, err := group.CreateDataset("values", record.Values); err != nil {
			return err
		}
	}
	return nil
}

func writeSegments(rec *recording.File, group *hdf5.Group, id int) error {
	segments, err := rec.AllSegments(id)
	if err != nil {
		return err
	}
	for idx, seg := range segments {
		segGroup, err := group.CreateGroup(fmt.Sprintf("segment_%04d", idx))
		if err != nil {
			return err
		}

		flat := make([]float64, 0, seg.SampleCount*seg.SourceCount)
		for _, row := range seg.Data {
			flat = append(flat, row...)
		}
		if _, err := segGroup.CreateDataset("data", flat,
			hdf5.WithAttribute("timestamp", seg.Timestamp),
			hdf5.WithAttribute("unit_id", int32(seg.UnitID)),
			hdf5.WithAttribute("sample_count", int32(seg.SampleCount)),
			hdf5.WithAttribute("source_count", int32(seg.SourceCount)),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeNeural(rec *recording.File, group *hdf5.Group, id int) error {
	record, err := rec.NeuralData(id, 0, recording.AllItems)
	if err != nil {
		return err
	}
	_, err = group.CreateDataset("timestamps", record.Timestamps)
	return err
}

// safeLabel makes an entity label usable as an HDF5 path component.
func safeLabel(label string) string {
	return strings.ReplaceAll(label, "/", "_")
}
