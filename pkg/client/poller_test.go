package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

func newTestServer(t *testing.T, statuses []statusResponse, paperFetches *int64) *httptest.Server {
	t.Helper()

	var call int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/papers/p1/status", func(w http.ResponseWriter, r *http.Request) {
		idx := atomic.AddInt64(&call, 1) - 1
		if idx >= int64(len(statuses)) {
			idx = int64(len(statuses)) - 1
		}
		_ = json.NewEncoder(w).Encode(statuses[idx])
	})
	mux.HandleFunc("/api/papers/p1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(paperFetches, 1)
		_ = json.NewEncoder(w).Encode(workflow.Paper{
			ID:     "p1",
			Title:  "AG-CropNet",
			Status: workflow.StatusCompleted,
			Components: []workflow.Component{
				{ID: "c1", Type: workflow.ComponentTypeModel, Name: "AG-CropNet"},
			},
		})
	})

	mux.HandleFunc("/api/papers/p1/projections/flow", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"paper_id": "p1",
			"kind":     "flow",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func collectUpdates(t *testing.T, updates <-chan Update) []Update {
	t.Helper()

	var got []Update
	timeout := time.After(5 * time.Second)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return got
			}
			got = append(got, update)
		case <-timeout:
			t.Fatal("poller did not finish in time")
		}
	}
}

func TestPoller_EmitsProgressAndTerminalOnce(t *testing.T) {
	var paperFetches int64
	server := newTestServer(t, []statusResponse{
		{ID: "p1", Status: "processing", Progress: 10},
		{ID: "p1", Status: "processing", Progress: 35},
		{ID: "p1", Status: "completed", Progress: 100},
	}, &paperFetches)

	poller := NewPoller(NewPollerParams{
		BaseURL:     server.URL,
		PaperID:     "p1",
		Interval:    10 * time.Millisecond,
		Projections: []string{"flow"},
	})
	got := collectUpdates(t, poller.Run(context.Background()))

	if len(got) != 3 {
		t.Fatalf("got %d updates, want 3: %+v", len(got), got)
	}
	if got[0].Progress != 10 || got[1].Progress != 35 {
		t.Fatalf("unexpected progress sequence: %+v", got)
	}

	final := got[len(got)-1]
	if final.Status != "completed" || final.Progress != 100 {
		t.Fatalf("unexpected final update: %+v", final)
	}
	if final.Paper == nil || final.Paper.Title != "AG-CropNet" {
		t.Fatalf("final update should carry the full paper, got %+v", final.Paper)
	}
	if _, ok := final.Projections["flow"]; !ok {
		t.Fatalf("final update should carry the flow projection, got %+v", final.Projections)
	}
	if n := atomic.LoadInt64(&paperFetches); n != 1 {
		t.Fatalf("paper fetched %d times, want exactly once", n)
	}
}

func TestPoller_SuppressesDuplicatesAndRegressions(t *testing.T) {
	var paperFetches int64
	server := newTestServer(t, []statusResponse{
		{ID: "p1", Status: "processing", Progress: 35},
		{ID: "p1", Status: "processing", Progress: 35},
		{ID: "p1", Status: "processing", Progress: 15}, // stale response
		{ID: "p1", Status: "completed", Progress: 100},
	}, &paperFetches)

	poller := NewPoller(NewPollerParams{
		BaseURL:  server.URL,
		PaperID:  "p1",
		Interval: 10 * time.Millisecond,
	})
	got := collectUpdates(t, poller.Run(context.Background()))

	if len(got) != 2 {
		t.Fatalf("got %d updates, want 2: %+v", len(got), got)
	}
	if got[0].Progress != 35 {
		t.Fatalf("first update progress = %d, want 35", got[0].Progress)
	}
	if got[1].Status != "completed" {
		t.Fatalf("final update status = %s, want completed", got[1].Status)
	}
}

func TestPoller_FailedRunCarriesErrorDetails(t *testing.T) {
	var paperFetches int64
	server := newTestServer(t, []statusResponse{
		{
			ID:           "p1",
			Status:       "failed",
			Progress:     100,
			ErrorMessage: "extracted text has 120 characters, minimum is 500",
			ErrorDetails: workflow.NewStageError(workflow.ErrTypeContentTooShort, "extracted text has 120 characters, minimum is 500"),
		},
	}, &paperFetches)

	poller := NewPoller(NewPollerParams{
		BaseURL:  server.URL,
		PaperID:  "p1",
		Interval: 10 * time.Millisecond,
	})
	got := collectUpdates(t, poller.Run(context.Background()))

	if len(got) != 1 {
		t.Fatalf("got %d updates, want 1: %+v", len(got), got)
	}
	if got[0].ErrorDetails == nil || got[0].ErrorDetails.Type != workflow.ErrTypeContentTooShort {
		t.Fatalf("unexpected error details: %+v", got[0].ErrorDetails)
	}
}

func TestPoller_StopClosesChannel(t *testing.T) {
	var paperFetches int64
	server := newTestServer(t, []statusResponse{
		{ID: "p1", Status: "processing", Progress: 10},
	}, &paperFetches)

	poller := NewPoller(NewPollerParams{
		BaseURL:  server.URL,
		PaperID:  "p1",
		Interval: 10 * time.Millisecond,
	})
	updates := poller.Run(context.Background())

	// Drain the first update, then stop.
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}
	poller.Stop()

	select {
	case _, ok := <-updates:
		if ok {
			// A second update may have been in flight; the channel must still
			// close right after.
			select {
			case _, ok := <-updates:
				if ok {
					t.Fatal("channel did not close after Stop")
				}
			case <-time.After(2 * time.Second):
				t.Fatal("channel did not close after Stop")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after Stop")
	}
}
