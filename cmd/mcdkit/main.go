// Package main provides the mcdkit CLI for inspecting and exporting MCS
// .mcd recordings.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mcdkit/internal/export"
	"mcdkit/internal/format"
	"mcdkit/internal/recording"
)

var version = "dev"

var libraryPath string

var rootCmd = &cobra.Command{
	Use:   "mcdkit <file> [output.h5]",
	Short: "Inspect and export MCS .mcd recordings",
	Long: "Inspect and export MCS .mcd recordings.\n\n" +
		"With one argument the file header and entity table are printed.\n" +
		"With a second argument the recording is converted to an HDF5 container.",
	Version: version,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return runConvert(cmd, args[0], args[1], false)
		}
		return runInfo(cmd, args[0], "text", true)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&libraryPath, "library", "",
		"path to the native Neuroshare library (env: MCDKIT_LIBRARY, default: probe install locations)")

	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newConvertCmd())
}

// getLibraryPath returns the native library path from flag or environment.
func getLibraryPath() string {
	if libraryPath != "" {
		return libraryPath
	}
	return os.Getenv("MCDKIT_LIBRARY")
}

func openRecording(path string) (*recording.File, error) {
	var opts []recording.Option
	if lib := getLibraryPath(); lib != "" {
		opts = append(opts, recording.WithLibraryPath(lib))
	}
	return recording.Open(path, opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mcdkit: %v\n", err)
		os.Exit(1)
	}
}

type infoPayload struct {
	File                string  `json:"file"`
	FileType            string  `json:"file_type"`
	AppName             string  `json:"app_name"`
	Comment             string  `json:"comment"`
	EntityCount         int     `json:"entity_count"`
	TimeSpan            float64 `json:"time_span"`
	TimeStampResolution float64 `json:"time_stamp_resolution"`
	RecordedAt          string  `json:"recorded_at,omitempty"`
}

func newInfoCmd() *cobra.Command {
	var (
		formatFlag   string
		withEntities bool
	)

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show recording header metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0], strings.ToLower(formatFlag), withEntities)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")
	flags.BoolVar(&withEntities, "entities", false, "append the entity table")

	return cmd
}

func runInfo(cmd *cobra.Command, path, formatFlag string, withEntities bool) error {
	rec, err := openRecording(path)
	if err != nil {
		return err
	}
	defer rec.Close() //nolint:errcheck

	meta, err := rec.Info()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch formatFlag {
	case "json":
		payload := infoPayload{
			File:                path,
			FileType:            meta.FileType,
			AppName:             meta.AppName,
			Comment:             meta.Comment,
			EntityCount:         meta.EntityCount,
			TimeSpan:            meta.TimeSpan,
			TimeStampResolution: meta.TimeStampResolution,
		}
		if meta.RecordedAt.Year > 0 {
			payload.RecordedAt = meta.RecordedAt.Time().Format(time.RFC3339)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "text":
		format.WriteFileInfo(out, path, meta)
	default:
		return fmt.Errorf("unsupported format: %s", formatFlag)
	}

	if !withEntities {
		return nil
	}

	entities, err := rec.Entities()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	return format.WriteEntities(out, entities, true, "table", determineWidth(out))
}

func newListCmd() *cobra.Command {
	var (
		typeName   string
		formatFlag string
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List entities in id order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := openRecording(args[0])
			if err != nil {
				return err
			}
			defer rec.Close() //nolint:errcheck

			var entities []recording.EntitySummary
			if typeName != "" {
				entities, err = rec.EntitiesByTypeName(typeName)
			} else {
				entities, err = rec.Entities()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			includeHeader := !noHeader
			return format.WriteEntities(out, entities, includeHeader, strings.ToLower(formatFlag), determineWidth(out))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&typeName, "type", "", "filter by entity type: event, analog, segment, or neural")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row")

	return cmd
}

func newConvertCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "convert <file> <output.h5>",
		Short: "Export a recording to an HDF5 container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], args[1], quiet)
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress progress output")

	return cmd
}

func runConvert(cmd *cobra.Command, src, dst string, quiet bool) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	opts := []export.Option{}
	if lib := getLibraryPath(); lib != "" {
		opts = append(opts, export.WithLibraryPath(lib))
	}

	var finish func()
	if !quiet {
		var fn export.ProgressFunc
		fn, finish = progressReporter(out)
		opts = append(opts, export.WithProgress(fn))
	}

	result, err := export.Convert(src, dst, opts...)
	if finish != nil {
		finish()
	}
	if err != nil {
		return err
	}

	for _, warn := range result.Warnings {
		fmt.Fprintf(errOut, "warning: %v\n", warn) //nolint:errcheck
	}

	fmt.Fprintf(out, "converted %d of %d entities to %s\n",
		result.Converted, result.Converted+result.Skipped, dst)
	return nil
}

// progressReporter returns a progress callback and a finish func that
// must be called once conversion ends. A terminal gets an animated bar,
// anything else plain percentage lines.
func progressReporter(out io.Writer) (export.ProgressFunc, func()) {
	file, ok := out.(*os.File)
	if !ok || !isTerminal(file.Fd()) {
		return plainProgress(out), func() {}
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetTrackerLength(25)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Time = false
	go pw.Render()

	tracker := &progress.Tracker{Message: "converting", Units: progress.UnitsDefault}
	started := false

	fn := func(current, total int, message string) {
		if !started {
			tracker.Total = int64(total)
			pw.AppendTracker(tracker)
			started = true
		}
		tracker.SetValue(int64(current))
		tracker.UpdateMessage(message)
	}
	finish := func() {
		if started {
			tracker.MarkAsDone()
		}
		pw.Stop()
		for pw.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return fn, finish
}

func plainProgress(out io.Writer) export.ProgressFunc {
	return func(current, total int, message string) {
		if total == 0 {
			return
		}
		pct := float64(current) / float64(total) * 100
		fmt.Fprintf(out, "[%5.1f%%] %s\n", pct, message) //nolint:errcheck
	}
}

func determineWidth(out io.Writer) int {
	if file, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
