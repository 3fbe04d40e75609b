package cds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/era5-fetch/internal/config"
	"github.com/couchcryptid/era5-fetch/internal/domain"
)

// ErrRequestFailed is returned when the CDS reports a request as failed.
var ErrRequestFailed = errors.New("cds request failed")

const userAgent = "era5-fetch"

// Client implements domain.Retriever against the CDS /api/v2 REST API.
type Client struct {
	baseURL      string
	uid          string
	secret       string
	httpClient   *http.Client
	timeout      time.Duration
	pollInterval time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
}

// NewClient creates a CDS client from resolved credentials. timeout bounds
// each API call and the wait for download response headers. A download body
// may take longer overall but fails once no bytes arrive for timeout.
func NewClient(creds config.Credentials, timeout, pollInterval time.Duration, logger *slog.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	return &Client{
		baseURL:      creds.URL,
		uid:          creds.UserID(),
		secret:       creds.Secret(),
		httpClient:   &http.Client{Transport: transport},
		timeout:      timeout,
		pollInterval: pollInterval,
		clock:        clockwork.NewRealClock(),
		logger:       logger,
	}
}

// Retrieve submits req for dataset, waits for the CDS to finish the job, and
// downloads the result to dest. The file appears at dest only once the whole
// body has been written.
func (c *Client) Retrieve(ctx context.Context, dataset string, req domain.Request, dest string) error {
	reply, err := c.submit(ctx, dataset, req)
	if err != nil {
		return err
	}
	if reply.RequestID != "" {
		defer c.deleteTask(ctx, reply.RequestID)
	}

	reply, err = c.wait(ctx, reply)
	if err != nil {
		return err
	}

	return c.download(ctx, reply, dest)
}

func (c *Client) submit(ctx context.Context, dataset string, req domain.Request) (taskReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return taskReply{}, fmt.Errorf("encode request: %w", err)
	}

	var reply taskReply
	u := fmt.Sprintf("%s/resources/%s", c.baseURL, url.PathEscape(dataset))
	if err := c.doJSON(ctx, http.MethodPost, u, body, &reply); err != nil {
		return taskReply{}, fmt.Errorf("submit request: %w", err)
	}
	c.logger.Debug("cds request submitted", "request_id", reply.RequestID, "state", reply.State, "year", req.Year)
	return reply, nil
}

// wait polls the task until it leaves the queued/running states.
func (c *Client) wait(ctx context.Context, reply taskReply) (taskReply, error) {
	last := reply.State
	for {
		switch reply.State {
		case stateCompleted:
			return reply, nil
		case stateFailed:
			return reply, reply.failure()
		case stateQueued, stateRunning:
		default:
			return reply, fmt.Errorf("unexpected task state %q", reply.State)
		}
		if reply.RequestID == "" {
			return reply, fmt.Errorf("task in state %q has no request_id", reply.State)
		}

		select {
		case <-ctx.Done():
			return reply, ctx.Err()
		case <-c.clock.After(c.pollInterval):
		}

		var next taskReply
		u := fmt.Sprintf("%s/tasks/%s", c.baseURL, url.PathEscape(reply.RequestID))
		if err := c.doJSON(ctx, http.MethodGet, u, nil, &next); err != nil {
			return reply, fmt.Errorf("poll task %s: %w", reply.RequestID, err)
		}
		if next.RequestID == "" {
			next.RequestID = reply.RequestID
		}
		if next.State != last {
			c.logger.Info("cds task state changed", "request_id", next.RequestID, "state", next.State)
			last = next.State
		}
		reply = next
	}
}

func (c *Client) download(ctx context.Context, reply taskReply, dest string) (err error) {
	if reply.Location == "" {
		return errors.New("completed task has no download location")
	}
	loc, err := c.resolve(reply.Location)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var stalled atomic.Bool
	idle := c.clock.AfterFunc(c.timeout, func() {
		stalled.Store(true)
		cancel()
	})
	defer idle.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cds download error: status %d: %s", resp.StatusCode, body)
	}

	part := dest + ".part"
	f, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create %s: %w", part, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(part)
		}
	}()

	n, err := io.Copy(f, &idleReader{r: resp.Body, timer: idle, timeout: c.timeout})
	if err != nil {
		if stalled.Load() {
			return fmt.Errorf("download stalled: no data for %s after %d bytes", c.timeout, n)
		}
		return fmt.Errorf("write %s: %w", part, err)
	}
	if reply.ContentLength > 0 && n != reply.ContentLength {
		return fmt.Errorf("short download: got %d of %d bytes", n, reply.ContentLength)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", part, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", part, err)
	}
	if err = os.Rename(part, dest); err != nil {
		return fmt.Errorf("finalize %s: %w", dest, err)
	}
	return nil
}

// deleteTask frees the job on the CDS side. Best-effort.
func (c *Client) deleteTask(ctx context.Context, requestID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	u := fmt.Sprintf("%s/tasks/%s", c.baseURL, url.PathEscape(requestID))
	if err := c.doJSON(ctx, http.MethodDelete, u, nil, nil); err != nil {
		c.logger.Warn("cds task cleanup failed", "request_id", requestID, "error", err)
	}
}

func (c *Client) resolve(location string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse location %q: %w", location, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.uid, c.secret)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cds API error: status %d: %s", resp.StatusCode, b)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// idleReader pushes timer back by timeout on every successful read.
type idleReader struct {
	r       io.Reader
	timer   clockwork.Timer
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}
