//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/era5-fetch/internal/adapter/cds"
	"github.com/couchcryptid/era5-fetch/internal/adapter/cds/cdsfake"
	"github.com/couchcryptid/era5-fetch/internal/adapter/kafka"
	"github.com/couchcryptid/era5-fetch/internal/config"
	"github.com/couchcryptid/era5-fetch/internal/domain"
	"github.com/couchcryptid/era5-fetch/internal/fetcher"
	"github.com/couchcryptid/era5-fetch/internal/observability"
)

const testTopic = "era5-downloads-test"

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readEvent(ctx context.Context, t *testing.T, r *kafkago.Reader) (kafkago.Message, domain.DownloadCompleted) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := r.ReadMessage(readCtx)
	require.NoError(t, err, "read completion event")

	var event domain.DownloadCompleted
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	return msg, event
}

// TestFetchPublishesCompletionEvents runs the fetcher with the real CDS client
// against the in-process fake CDS and publishes to a real Kafka broker.
func TestFetchPublishesCompletionEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	fake := cdsfake.NewServer(cdsfake.Options{UID: "42", Secret: "key", QueuedPolls: 1})
	cdsSrv := httptest.NewServer(fake)
	defer cdsSrv.Close()

	outDir := filepath.Join(t.TempDir(), "era5_data")
	cfg := &config.Config{
		Dataset:         "reanalysis-era5-single-levels",
		ProductType:     "reanalysis",
		Format:          "netcdf",
		Latitude:        9.06,
		Longitude:       7.49,
		AreaBuffer:      0.5,
		Variables:       config.DefaultVariables,
		Times:           []string{"00:00", "12:00"},
		OutputDir:       outDir,
		OutputTemplate:  "era5_abuja_{year}.nc",
		CDSTimeout:      10 * time.Second,
		CDSPollInterval: 10 * time.Millisecond,
		KafkaBrokers:    []string{broker},
		KafkaTopic:      testTopic,
	}
	plan, err := cfg.Plan(cfg.Point())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer := kafka.NewWriter(cfg, logger)
	defer writer.Close()

	connect := func() (domain.Retriever, error) {
		creds := config.Credentials{URL: cdsSrv.URL, Key: "42:key"}
		return cds.NewClient(creds, cfg.CDSTimeout, cfg.CDSPollInterval, logger), nil
	}
	f := fetcher.New(plan, connect, writer, "run-integration", logger, observability.NewMetricsForTesting())

	summary, err := f.Run(ctx, 2001, 2002)
	require.NoError(t, err)
	assert.Equal(t, []int{2001, 2002}, summary.Downloaded)

	data, err := os.ReadFile(filepath.Join(outDir, "era5_abuja_2002.nc"))
	require.NoError(t, err)
	assert.Equal(t, "CDF\x01era5 2002", string(data))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MaxWait:   500 * time.Millisecond,
	})
	defer reader.Close()

	for _, year := range []int{2001, 2002} {
		msg, event := readEvent(ctx, t, reader)
		assert.Equal(t, strconv.Itoa(year), string(msg.Key))
		assert.Equal(t, year, event.Year)
		assert.Equal(t, "run-integration", event.RunID)
		assert.Equal(t, "reanalysis-era5-single-levels", event.Dataset)
		assert.Equal(t, int64(len("CDF\x01era5 2002")), event.Bytes)
	}

	// A second run finds both files and publishes nothing new.
	summary, err = f.Run(ctx, 2001, 2002)
	require.NoError(t, err)
	assert.Empty(t, summary.Downloaded)
	assert.Equal(t, []int{2001, 2002}, summary.Skipped)
	assert.Len(t, fake.Submissions(), 2)
}
