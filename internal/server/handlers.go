package server

import (
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parlab/sumforge/internal/format"
	"github.com/parlab/sumforge/internal/jobs"
	"github.com/parlab/sumforge/internal/logging"
	"github.com/parlab/sumforge/internal/sysmon"
)

type computeResponse struct {
	SizeUsed  uint64 `json:"size_used"`
	Result    uint64 `json:"result"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Elapsed   string `json:"elapsed"`
}

type jobsResponse struct {
	Jobs []jobs.JobView `json:"jobs"`
}

type healthResponse struct {
	Status         string  `json:"status"`
	Version        string  `json:"version,omitempty"`
	Workers        int     `json:"workers"`
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heap_alloc_bytes"`
	SystemCPUPct   float64 `json:"system_cpu_percent"`
	SystemMemPct   float64 `json:"system_memory_percent"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON marshals v before touching the ResponseWriter so a failed
// encode can never leave a partially written body behind.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexHTML)
}

// requestedSize resolves the size parameter. Missing, non-numeric,
// non-positive, or above the configured maximum all substitute the default
// size: the endpoint favors availability over strict validation for this
// parameter. The second return reports whether a fallback happened.
func (s *Server) requestedSize(r *http.Request) (uint64, bool) {
	raw := r.URL.Query().Get("size")
	if raw == "" {
		return s.cfg.DefaultSize, true
	}
	size, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || size == 0 || size > s.cfg.MaxSize {
		return s.cfg.DefaultSize, true
	}
	return size, false
}

// handleCompute runs one job synchronously from the caller's point of view:
// submit, suspend until the handle resolves, render. The wait happens on
// this request's goroutine only; other requests keep flowing.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	size, fellBack := s.requestedSize(r)
	if fellBack {
		s.logger.Debug("size parameter fell back to default",
			logging.String("raw", r.URL.Query().Get("size")),
			logging.Uint64("size_used", size))
	}

	handle, err := s.orchestrator.Submit(size)
	if err != nil {
		s.logger.Error("job submission rejected", logging.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
		return
	}
	// The job record exists exactly as long as its originating request.
	defer s.orchestrator.Release(handle.ID())

	start := time.Now()
	result, err := handle.Wait(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; the job runs to completion and its result is
			// discarded.
			return
		}
		s.logger.Error("job failed", logging.String("job_id", handle.ID()), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "computation failed"})
		return
	}
	elapsed := time.Since(start)

	writeJSON(w, http.StatusOK, computeResponse{
		SizeUsed:  size,
		Result:    result,
		ElapsedMS: elapsed.Milliseconds(),
		Elapsed:   format.FormatExecutionDuration(elapsed),
	})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: s.orchestrator.Running()})
}

func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	handle, ok := s.orchestrator.Lookup(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown job"})
		return
	}
	writeJSON(w, http.StatusOK, handle.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	sys := sysmon.Sample()

	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		Version:        s.version,
		Workers:        s.cfg.EffectiveWorkers(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: ms.HeapAlloc,
		SystemCPUPct:   sys.CPUPercent,
		SystemMemPct:   sys.MemPercent,
	})
}
