package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parlab/sumforge/internal/jobs"
	"github.com/parlab/sumforge/internal/sysmon"
)

// TestNewMetrics tests the Metrics constructor.
func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
	if m.handler == nil {
		t.Error("Metrics.handler should be initialized")
	}
}

// TestMetrics_IncrementDecrementActiveRequests tests the active requests gauge.
func TestMetrics_IncrementDecrementActiveRequests(t *testing.T) {
	m := NewMetrics()

	// Note: Prometheus collectors are global singletons. This test verifies
	// the methods work without panicking rather than asserting exact values.

	t.Run("IncrementActiveRequests does not panic", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("IncrementActiveRequests panicked: %v", r)
			}
		}()
		m.IncrementActiveRequests()
	})

	t.Run("DecrementActiveRequests does not panic", func(t *testing.T) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("DecrementActiveRequests panicked: %v", r)
			}
		}()
		m.DecrementActiveRequests()
	})
}

// TestMetrics_WritePrometheus tests the Prometheus metrics endpoint.
func TestMetrics_WritePrometheus(t *testing.T) {
	m := NewMetrics()

	m.IncrementActiveRequests()
	defer m.DecrementActiveRequests()
	m.ObserveRequestDuration(5 * time.Millisecond)
	m.JobFinished(jobs.StatusCompleted, 10*time.Millisecond, 1000)
	m.SetSystemStats(sysmon.Stats{CPUPercent: 12.5, MemPercent: 42})

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rec := httptest.NewRecorder()

	m.WritePrometheus(rec, req)

	body := rec.Body.String()

	t.Run("Contains active requests metric", func(t *testing.T) {
		if !strings.Contains(body, "sumforge_active_requests") {
			t.Error("metrics output should contain sumforge_active_requests")
		}
	})

	t.Run("Contains total requests metric", func(t *testing.T) {
		if !strings.Contains(body, "sumforge_requests_total") {
			t.Error("metrics output should contain sumforge_requests_total")
		}
	})

	t.Run("Contains job metrics", func(t *testing.T) {
		if !strings.Contains(body, "sumforge_jobs_total") {
			t.Error("metrics output should contain sumforge_jobs_total")
		}
		if !strings.Contains(body, "sumforge_job_elements_total") {
			t.Error("metrics output should contain sumforge_job_elements_total")
		}
	})

	t.Run("Contains system gauges", func(t *testing.T) {
		if !strings.Contains(body, "sumforge_system_cpu_percent") {
			t.Error("metrics output should contain sumforge_system_cpu_percent")
		}
	})

	t.Run("Contains Go runtime metrics", func(t *testing.T) {
		if !strings.Contains(body, "go_") {
			t.Error("metrics output should contain Go runtime metrics")
		}
	})
}

// TestServer_metricsMiddleware tests the metrics tracking middleware.
func TestServer_metricsMiddleware(t *testing.T) {
	t.Run("Next handler is called", func(t *testing.T) {
		s := &Server{metrics: NewMetrics()}

		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		handler := s.metricsMiddleware(next)
		req := httptest.NewRequest("GET", "/test", http.NoBody)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if !nextCalled {
			t.Error("next handler was not called")
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("Decrement runs even when the handler panics", func(t *testing.T) {
		s := &Server{metrics: NewMetrics()}

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		handler := s.metricsMiddleware(next)
		req := httptest.NewRequest("GET", "/test", http.NoBody)
		rec := httptest.NewRecorder()

		func() {
			defer func() { _ = recover() }()
			handler.ServeHTTP(rec, req)
		}()
		// Reaching here without a hung gauge is the assertion; the deferred
		// decrement must have run before the panic propagated.
	})
}
