// Package cdsfake serves an in-memory imitation of the CDS /api/v2 endpoints
// used by the era5-fetch client: submit, poll, download, and delete.
package cdsfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/couchcryptid/era5-fetch/internal/domain"
)

// Options configures a Server.
type Options struct {
	// UID and Secret, when set, are required as HTTP basic auth on API calls.
	UID    string
	Secret string

	// QueuedPolls is how many polls a task answers "queued" before it completes.
	QueuedPolls int

	// FailYears lists request years whose tasks end in the "failed" state.
	FailYears map[string]string

	// Payload returns the file body served for a request. Defaults to a
	// NetCDF classic header followed by the year.
	Payload func(dataset string, req domain.Request) []byte
}

// Submission is one request received by the server.
type Submission struct {
	Dataset string
	Request domain.Request
}

type task struct {
	id        string
	remaining int
	failure   string
	payload   []byte
}

// Server is an http.Handler implementing the fake CDS.
type Server struct {
	opts Options
	mux  *http.ServeMux

	mu          sync.Mutex
	nextID      int
	tasks       map[string]*task
	submissions []Submission
	deleted     []string
}

// NewServer creates a fake CDS with the given options.
func NewServer(opts Options) *Server {
	if opts.Payload == nil {
		opts.Payload = DefaultPayload
	}
	s := &Server{
		opts:  opts,
		mux:   http.NewServeMux(),
		tasks: make(map[string]*task),
	}
	s.mux.HandleFunc("POST /resources/{dataset}", s.authorized(s.handleSubmit))
	s.mux.HandleFunc("GET /tasks/{id}", s.authorized(s.handlePoll))
	s.mux.HandleFunc("DELETE /tasks/{id}", s.authorized(s.handleDelete))
	s.mux.HandleFunc("GET /download/{id}", s.handleDownload)
	return s
}

// DefaultPayload is a NetCDF classic magic number followed by the request year.
func DefaultPayload(_ string, req domain.Request) []byte {
	return []byte("CDF\x01era5 " + req.Year)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Submissions returns every request received so far, in arrival order.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// Deleted returns the IDs of tasks removed through DELETE /tasks/{id}.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.UID != "" {
			uid, secret, ok := r.BasicAuth()
			if !ok || uid != s.opts.UID || secret != s.opts.Secret {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication failed"})
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	dataset := r.PathValue("dataset")

	s.mu.Lock()
	s.nextID++
	t := &task{
		id:        "req-" + strconv.Itoa(s.nextID),
		remaining: s.opts.QueuedPolls,
		failure:   s.opts.FailYears[req.Year],
		payload:   s.opts.Payload(dataset, req),
	}
	s.tasks[t.id] = t
	s.submissions = append(s.submissions, Submission{Dataset: dataset, Request: req})
	reply := s.replyLocked(t)
	s.mu.Unlock()

	writeJSON(w, http.StatusAccepted, reply)
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.tasks[r.PathValue("id")]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "task not found"})
		return
	}
	if t.remaining > 0 {
		t.remaining--
	}
	reply := s.replyLocked(t)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	delete(s.tasks, id)
	s.deleted = append(s.deleted, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, ok := s.tasks[r.PathValue("id")]
	s.mu.Unlock()
	if !ok || t.remaining > 0 || t.failure != "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/x-netcdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(t.payload)))
	_, _ = w.Write(t.payload)
}

// replyLocked renders the task as a CDS task reply. s.mu must be held.
func (s *Server) replyLocked(t *task) map[string]any {
	reply := map[string]any{"request_id": t.id}
	switch {
	case t.remaining > 0:
		reply["state"] = "queued"
	case t.failure != "":
		reply["state"] = "failed"
		reply["error"] = map[string]string{
			"message": "the request you have submitted is not valid",
			"reason":  t.failure,
		}
	default:
		reply["state"] = "completed"
		reply["location"] = fmt.Sprintf("/download/%s", t.id)
		reply["content_length"] = len(t.payload)
		reply["content_type"] = "application/x-netcdf"
	}
	return reply
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort fake response
}
