package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/era5-fetch/internal/domain"
	"github.com/couchcryptid/era5-fetch/internal/observability"
)

// Connect opens a client session with the data provider. It fails when
// credentials are missing or malformed.
type Connect func() (domain.Retriever, error)

// Summary reports what a run did.
type Summary struct {
	Downloaded []int
	Skipped    []int
}

// Fetcher retrieves one file per year, skipping years already on disk.
type Fetcher struct {
	plan     domain.Plan
	connect  Connect
	notifier domain.Notifier
	runID    string
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu       sync.Mutex
	progress domain.Progress
}

// New creates a Fetcher for plan. notifier may be nil.
func New(plan domain.Plan, connect Connect, notifier domain.Notifier, runID string, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		plan:     plan,
		connect:  connect,
		notifier: notifier,
		runID:    runID,
		logger:   logger.With("run_id", runID),
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the provider session is established.
func (f *Fetcher) CheckReadiness(_ context.Context) error {
	if !f.ready.Load() {
		return errors.New("provider session not established")
	}
	return nil
}

// Progress returns a snapshot of the current run.
func (f *Fetcher) Progress() domain.Progress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress
}

func (f *Fetcher) track(update func(p *domain.Progress)) {
	f.mu.Lock()
	update(&f.progress)
	f.mu.Unlock()
}

// Run fetches every year in [startYear, endYear] in ascending order. The first
// retrieval error aborts the run and is returned; years finished before it
// stay on disk.
func (f *Fetcher) Run(ctx context.Context, startYear, endYear int) (Summary, error) {
	var summary Summary

	if err := os.MkdirAll(f.plan.OutputDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	retriever, err := f.connect()
	if err != nil {
		return summary, fmt.Errorf("connect to provider: %w", err)
	}
	f.ready.Store(true)

	f.metrics.FetchRunning.Set(1)
	defer f.metrics.FetchRunning.Set(0)
	f.track(func(p *domain.Progress) {
		*p = domain.Progress{StartYear: startYear, EndYear: endYear}
	})
	defer f.track(func(p *domain.Progress) { p.CurrentYear = 0 })

	f.logger.Info("fetch started",
		"dataset", f.plan.Spec.Dataset(),
		"start_year", startYear,
		"end_year", endYear,
		"output_dir", f.plan.OutputDir,
	)

	for _, task := range f.plan.Tasks(startYear, endYear) {
		done, err := exists(task.Path)
		if err != nil {
			return summary, fmt.Errorf("check %s: %w", task.Path, err)
		}
		if done {
			f.logger.Info("output exists, skipping", "year", task.Year, "path", task.Path)
			f.metrics.YearsSkipped.Inc()
			summary.Skipped = append(summary.Skipped, task.Year)
			f.track(func(p *domain.Progress) { p.Skipped++ })
			continue
		}

		f.track(func(p *domain.Progress) { p.CurrentYear = task.Year })
		if err := f.fetchYear(ctx, retriever, task); err != nil {
			return summary, err
		}
		summary.Downloaded = append(summary.Downloaded, task.Year)
		f.track(func(p *domain.Progress) { p.Downloaded++ })
	}

	f.metrics.LastSuccess.Set(float64(domain.Now().Unix()))
	f.logger.Info("all downloads complete",
		"downloaded", len(summary.Downloaded),
		"skipped", len(summary.Skipped),
	)
	return summary, nil
}

func (f *Fetcher) fetchYear(ctx context.Context, r domain.Retriever, task domain.YearTask) error {
	f.logger.Info("requesting year", "year", task.Year)
	start := domain.Now()

	if err := r.Retrieve(ctx, f.plan.Spec.Dataset(), f.plan.Spec.ForYear(task.Year), task.Path); err != nil {
		f.metrics.RetrieveErrors.Inc()
		return fmt.Errorf("fetch year %d: %w", task.Year, err)
	}

	elapsed := domain.Since(start)
	f.metrics.RetrieveDuration.Observe(elapsed.Seconds())
	f.metrics.YearsDownloaded.Inc()

	var size int64
	if st, err := os.Stat(task.Path); err == nil {
		size = st.Size()
		f.metrics.BytesDownloaded.Add(float64(size))
	}
	f.logger.Info("saved", "year", task.Year, "path", task.Path, "bytes", size, "elapsed", elapsed)

	f.notify(ctx, domain.DownloadCompleted{
		RunID:       f.runID,
		Dataset:     f.plan.Spec.Dataset(),
		Year:        task.Year,
		Path:        task.Path,
		Bytes:       size,
		CompletedAt: domain.Now(),
	})
	return nil
}

// notify publishes a completion event. Failures are logged only: the file is
// already on disk and will be skipped next run.
func (f *Fetcher) notify(ctx context.Context, event domain.DownloadCompleted) {
	if f.notifier == nil {
		return
	}
	if err := f.notifier.Notify(ctx, event); err != nil {
		f.metrics.NotifyErrors.Inc()
		f.logger.Warn("publish completion event failed", "year", event.Year, "error", err)
	}
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
