// Package inventory audits an output directory after the fact. The fetcher
// never inspects file contents; this package does, for operators who want to
// know whether every year on disk looks like a real data file.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/era5-fetch/internal/domain"
)

// Status classifies one year's output file.
type Status string

const (
	StatusPresent      Status = "present"
	StatusMissing      Status = "missing"
	StatusEmpty        Status = "empty"
	StatusUnrecognized Status = "unrecognized"
)

// Entry is the audit result for one year.
type Entry struct {
	Year   int
	Path   string
	Status Status
	Format string
	Size   int64
}

// Report is the audit of a year range.
type Report struct {
	Entries []Entry
	// Partial lists leftover "*.part" files from interrupted transfers.
	Partial []string
}

// Complete reports whether every year is present with a recognized format.
func (r Report) Complete() bool {
	return len(r.Problems()) == 0
}

// Problems returns the entries that are not StatusPresent.
func (r Report) Problems() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Status != StatusPresent {
			out = append(out, e)
		}
	}
	return out
}

// Missing returns the years with no output file.
func (r Report) Missing() []int {
	var out []int
	for _, e := range r.Entries {
		if e.Status == StatusMissing {
			out = append(out, e.Year)
		}
	}
	return out
}

var signatures = []struct {
	magic  []byte
	format string
}{
	{[]byte("CDF\x01"), "netcdf3-classic"},
	{[]byte("CDF\x02"), "netcdf3-64bit-offset"},
	{[]byte("CDF\x05"), "netcdf3-64bit-data"},
	{[]byte("\x89HDF\r\n\x1a\n"), "netcdf4"},
	{[]byte("GRIB"), "grib"},
}

// DetectFormat identifies a data file from its leading bytes. It returns ""
// for unknown content.
func DetectFormat(header []byte) string {
	for _, s := range signatures {
		if bytes.HasPrefix(header, s.magic) {
			return s.format
		}
	}
	return ""
}

// Scan audits every year in [start, end] of plan.
func Scan(plan domain.Plan, start, end int) (Report, error) {
	var report Report
	for _, task := range plan.Tasks(start, end) {
		entry, err := inspect(task)
		if err != nil {
			return Report{}, err
		}
		report.Entries = append(report.Entries, entry)
	}

	parts, err := filepath.Glob(filepath.Join(plan.OutputDir, "*.part"))
	if err != nil {
		return Report{}, fmt.Errorf("list partial files: %w", err)
	}
	slices.Sort(parts)
	report.Partial = parts
	return report, nil
}

func inspect(task domain.YearTask) (Entry, error) {
	entry := Entry{Year: task.Year, Path: task.Path}

	f, err := os.Open(task.Path)
	if errors.Is(err, fs.ErrNotExist) {
		entry.Status = StatusMissing
		return entry, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("open %s: %w", task.Path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", task.Path, err)
	}
	entry.Size = st.Size()
	if entry.Size == 0 {
		entry.Status = StatusEmpty
		return entry, nil
	}

	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Entry{}, fmt.Errorf("read %s: %w", task.Path, err)
	}
	entry.Format = DetectFormat(header[:n])
	if entry.Format == "" {
		entry.Status = StatusUnrecognized
		return entry, nil
	}
	entry.Status = StatusPresent
	return entry, nil
}
