package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/era5-fetch/internal/config"
	"github.com/couchcryptid/era5-fetch/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := domain.DownloadCompleted{
		RunID:       "run-1",
		Dataset:     "reanalysis-era5-single-levels",
		Year:        2005,
		Path:        "era5_data/era5_abuja_2005.nc",
		Bytes:       1024,
		CompletedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("2005"), msg.Key)
	assert.JSONEq(t, `{
		"run_id": "run-1",
		"dataset": "reanalysis-era5-single-levels",
		"year": 2005,
		"path": "era5_data/era5_abuja_2005.nc",
		"bytes": 1024,
		"completed_at": "2024-04-26T15:10:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "dataset", msg.Headers[0].Key)
	assert.Equal(t, []byte("reanalysis-era5-single-levels"), msg.Headers[0].Value)
	assert.Equal(t, "completed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestNewWriter_UsesConfig(t *testing.T) {
	w := NewWriter(&config.Config{
		KafkaBrokers: []string{"broker1:9092", "broker2:9092"},
		KafkaTopic:   "era5-downloads",
	}, nil)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "era5-downloads", w.writer.Topic)
	assert.Equal(t, "tcp,tcp", w.writer.Addr.Network())
	assert.Equal(t, "broker1:9092,broker2:9092", w.writer.Addr.String())
}
