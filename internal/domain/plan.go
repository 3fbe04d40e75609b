package domain

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
)

// YearPlaceholder is substituted with the decimal year when rendering a PathTemplate.
const YearPlaceholder = "{year}"

// ErrMissingYearPlaceholder is returned for templates that would map every
// year to the same file.
var ErrMissingYearPlaceholder = errors.New("output template must contain " + YearPlaceholder)

// PathTemplate names the output file of a year, e.g. "era5_abuja_{year}.nc".
type PathTemplate string

// ParsePathTemplate validates a file-name template.
func ParsePathTemplate(s string) (PathTemplate, error) {
	if !strings.Contains(s, YearPlaceholder) {
		return "", ErrMissingYearPlaceholder
	}
	if strings.ContainsRune(s, filepath.Separator) || strings.ContainsRune(s, '/') {
		return "", errors.New("output template must be a file name, not a path")
	}
	return PathTemplate(s), nil
}

// Render returns the file name for year.
func (t PathTemplate) Render(year int) string {
	return strings.ReplaceAll(string(t), YearPlaceholder, strconv.Itoa(year))
}

// Plan is the immutable fetch configuration: where files go, how they are
// named, and what is requested for each year.
type Plan struct {
	OutputDir string
	Template  PathTemplate
	Spec      RequestSpec
}

// YearTask pairs a year with its output path.
type YearTask struct {
	Year int
	Path string
}

// Task derives the task for a single year.
func (p Plan) Task(year int) YearTask {
	return YearTask{
		Year: year,
		Path: filepath.Join(p.OutputDir, p.Template.Render(year)),
	}
}

// Tasks returns one task per year in [start, end], ascending. An inverted
// range yields no tasks.
func (p Plan) Tasks(start, end int) []YearTask {
	if start > end {
		return nil
	}
	tasks := make([]YearTask, 0, end-start+1)
	for year := start; year <= end; year++ {
		tasks = append(tasks, p.Task(year))
	}
	return tasks
}
