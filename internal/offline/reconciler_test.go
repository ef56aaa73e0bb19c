package offline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/offline"
)

// TestSync_EmptyQueueSkipsNetwork verifies the short-circuit: no captures, no
// HTTP call, all-zero report.
func TestSync_EmptyQueueSkipsNetwork(t *testing.T) {
	q, _ := newQueue(t)

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	rec := &offline.Reconciler{Queue: q, Endpoint: server.URL + "/attendance/sync"}
	report, err := rec.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no network call for an empty queue, got %d", calls)
	}
	if report.Synced != 0 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("expected zero report, got %+v", report)
	}
}

// TestSync_SendsBatchAndClears verifies the happy path: the whole queue goes
// out in one batch with RFC3339 capture times and the session cookie, and a
// 200 response clears the queue.
func TestSync_SendsBatchAndClears(t *testing.T) {
	q, _ := newQueue(t)

	captured := time.Date(2026, time.May, 12, 16, 30, 0, 0, time.UTC)
	if _, err := q.Enqueue(offline.Entry{EnrollmentID: "e1", Latitude: 9.40, Longitude: -0.84, Status: "present", CapturedAt: captured}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Enqueue(offline.Entry{EnrollmentID: "e1", CapturedAt: captured.Add(24 * time.Hour)}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	var gotBatch struct {
		Records []map[string]any `json:"records"`
	}
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session_id"); err == nil {
			gotCookie = c.Value
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBatch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		json.NewEncoder(w).Encode(offline.Report{Synced: 2, Errors: []string{}})
	}))
	defer server.Close()

	rec := &offline.Reconciler{
		Queue:     q,
		Endpoint:  server.URL + "/attendance/sync",
		SessionID: "test-session",
	}
	report, err := rec.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if report.Synced != 2 {
		t.Errorf("expected synced=2 passed through, got %+v", report)
	}
	if gotCookie != "test-session" {
		t.Errorf("expected session cookie on the request, got %q", gotCookie)
	}
	if len(gotBatch.Records) != 2 {
		t.Fatalf("expected 2 records in batch, got %d", len(gotBatch.Records))
	}
	if gotBatch.Records[0]["captured_at"] != captured.Format(time.RFC3339) {
		t.Errorf("expected captured_at %q on the wire, got %v",
			captured.Format(time.RFC3339), gotBatch.Records[0]["captured_at"])
	}
	if gotBatch.Records[0]["entry_id"] == "" {
		t.Error("expected entry_id on the wire")
	}

	if q.Len() != 0 {
		t.Errorf("expected queue cleared after acknowledged batch, got %d entries", q.Len())
	}
}

// TestSync_TransportFailureKeepsQueue verifies that a dead server leaves the
// queue intact for the next retry trigger.
func TestSync_TransportFailureKeepsQueue(t *testing.T) {
	q, _ := newQueue(t)
	if _, err := q.Enqueue(offline.Entry{EnrollmentID: "e1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // dead endpoint

	rec := &offline.Reconciler{Queue: q, Endpoint: server.URL + "/attendance/sync"}
	if _, err := rec.Sync(context.Background()); err == nil {
		t.Fatal("expected error for dead endpoint")
	}

	if q.Len() != 1 {
		t.Errorf("expected queue kept after transport failure, got %d entries", q.Len())
	}
}

// TestSync_ServerErrorKeepsQueue verifies that a non-200 response is treated
// like a transport failure: error out, queue intact.
func TestSync_ServerErrorKeepsQueue(t *testing.T) {
	q, _ := newQueue(t)
	if _, err := q.Enqueue(offline.Entry{EnrollmentID: "e1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Session expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	rec := &offline.Reconciler{Queue: q, Endpoint: server.URL + "/attendance/sync"}
	if _, err := rec.Sync(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 401")
	}

	if q.Len() != 1 {
		t.Errorf("expected queue kept after server error, got %d entries", q.Len())
	}
}

// TestSync_PerEntryFailuresStillClear verifies the accepted policy: once the
// batch round-trip succeeds, individual entry failures are reported but the
// queue is still cleared.
func TestSync_PerEntryFailuresStillClear(t *testing.T) {
	q, _ := newQueue(t)
	if _, err := q.Enqueue(offline.Entry{EnrollmentID: "e1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(offline.Report{
			Failed: 1,
			Errors: []string{"record 0: attendance write failed: connection reset"},
		})
	}))
	defer server.Close()

	rec := &offline.Reconciler{Queue: q, Endpoint: server.URL + "/attendance/sync"}
	report, err := rec.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if report.Failed != 1 || len(report.Errors) != 1 {
		t.Errorf("expected failure reported, got %+v", report)
	}
	if q.Len() != 0 {
		t.Errorf("expected queue cleared after acknowledged round-trip, got %d", q.Len())
	}
}
