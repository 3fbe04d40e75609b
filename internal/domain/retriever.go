package domain

import (
	"context"
	"time"
)

// Retriever submits one retrieval request to the data provider and writes the
// result to dest. It blocks until the transfer completes or fails.
type Retriever interface {
	Retrieve(ctx context.Context, dataset string, req Request, dest string) error
}

// DownloadCompleted describes a year that was fetched and written to disk.
type DownloadCompleted struct {
	RunID       string    `json:"run_id"`
	Dataset     string    `json:"dataset"`
	Year        int       `json:"year"`
	Path        string    `json:"path"`
	Bytes       int64     `json:"bytes"`
	CompletedAt time.Time `json:"completed_at"`
}

// Notifier announces completed downloads to downstream consumers.
type Notifier interface {
	Notify(ctx context.Context, event DownloadCompleted) error
}

// Point is a WGS-84 latitude/longitude pair.
type Point struct {
	Lat  float64
	Lon  float64
	Name string // provider display name, empty when given as coordinates
}

// PointResolver turns a free-text place name into coordinates.
type PointResolver interface {
	ResolvePlace(ctx context.Context, query string) (Point, error)
}
