package jobs

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestQueueStatsRoute(t *testing.T) {
	handler := NewHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/jobs/stats", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var stats queueStatsResponse
	if err := json.Unmarshal(res.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	// Without an inspector the endpoint reports an empty default queue.
	if stats.Queue != QueueDefault {
		t.Fatalf("expected queue %q, got %q", QueueDefault, stats.Queue)
	}
	if stats.Pending != 0 || stats.Active != 0 || stats.Retry != 0 {
		t.Fatalf("expected zeroed counters, got %+v", stats)
	}
}
