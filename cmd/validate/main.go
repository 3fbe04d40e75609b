// Command validate audits an era5-fetch output directory: every year in the
// range must have a non-empty file whose header is NetCDF or GRIB, and no
// "*.part" leftovers should remain from interrupted transfers.
//
// Defaults come from the output settings of the era5-fetch environment;
// flags override them.
//
// Usage:
//
//	go run ./cmd/validate -dir era5_data -start 2000 -end 2024
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/era5-fetch/internal/config"
	"github.com/couchcryptid/era5-fetch/internal/domain"
	"github.com/couchcryptid/era5-fetch/internal/inventory"
)

func main() {
	out, err := config.LoadOutput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	dir := flag.String("dir", out.OutputDir, "output directory to audit")
	tmpl := flag.String("template", out.OutputTemplate, "output file name template containing {year}")
	start := flag.Int("start", out.StartYear, "first year to audit")
	end := flag.Int("end", out.EndYear, "last year to audit")
	flag.Parse()

	os.Exit(run(os.Stdout, *dir, *tmpl, *start, *end))
}

func run(w io.Writer, dir, tmpl string, start, end int) int {
	template, err := domain.ParsePathTemplate(tmpl)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}
	plan := domain.Plan{OutputDir: dir, Template: template}

	report, err := inventory.Scan(plan, start, end)
	if err != nil {
		fmt.Fprintf(w, "FATAL: scan %s: %v\n", dir, err)
		return 1
	}

	fmt.Fprintf(w, "=== ERA5 Output Audit: %s (%d-%d) ===\n\n", dir, start, end)
	for _, e := range report.Entries {
		switch e.Status {
		case inventory.StatusPresent:
			fmt.Fprintf(w, "  ok    %d  %-22s %10d bytes\n", e.Year, e.Format, e.Size)
		default:
			fmt.Fprintf(w, "  FAIL  %d  %s (%s)\n", e.Year, e.Status, e.Path)
		}
	}
	for _, p := range report.Partial {
		fmt.Fprintf(w, "  WARN  leftover partial transfer: %s\n", p)
	}

	fmt.Fprintln(w)
	if !report.Complete() {
		fmt.Fprintf(w, "FAILED: %d of %d years need attention (missing: %v)\n", len(report.Problems()), len(report.Entries), report.Missing())
		return 1
	}
	fmt.Fprintf(w, "PASSED: %d years present\n", len(report.Entries))
	return 0
}
