//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/era5-fetch/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ResolvePlace(t *testing.T) {
	c := smokeClient(t)

	p, err := c.ResolvePlace(context.Background(), "Abuja, Nigeria")
	require.NoError(t, err)

	assert.InDelta(t, 9.06, p.Lat, 0.2, "lat should be near Abuja")
	assert.InDelta(t, 7.49, p.Lon, 0.2, "lon should be near Abuja")
	assert.Contains(t, p.Name, "Abuja")
}
