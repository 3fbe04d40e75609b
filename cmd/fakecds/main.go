// Command fakecds serves an in-memory imitation of the CDS API for local
// end-to-end runs of era5-fetch without network access or a CDS account.
//
// Usage:
//
//	go run ./cmd/fakecds -addr :8081 -queued 2 -fail 2003
//	CDSAPI_URL=http://localhost:8081 CDSAPI_KEY=1:local go run ./cmd/era5-fetch
package main

import (
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/era5-fetch/internal/adapter/cds/cdsfake"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	queued := flag.Int("queued", 1, "polls each task stays queued before completing")
	fail := flag.String("fail", "", "comma-separated years whose requests fail")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	failYears := make(map[string]string)
	for _, y := range strings.Split(*fail, ",") {
		if y = strings.TrimSpace(y); y != "" {
			failYears[y] = "injected failure"
		}
	}

	fake := cdsfake.NewServer(cdsfake.Options{QueuedPolls: *queued, FailYears: failYears})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(fake, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("fake cds listening", "addr", *addr, "queued_polls", *queued, "fail_years", *fail)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("fake cds stopped", "error", err)
		os.Exit(1)
	}
}

func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
