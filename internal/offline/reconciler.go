package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Report is the server's per-batch accounting. Inserted and updated entries
// both count as synced; only storage failures land in failed.
type Report struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Reconciler drains the offline queue through the server's batch endpoint.
// The queue is cleared only after a fully successful HTTP round-trip; a
// transport failure leaves it intact for the next trigger.
type Reconciler struct {
	Queue     *Queue
	Endpoint  string // absolute URL of the sync endpoint
	SessionID string // session cookie value
	Client    *http.Client
}

type wireEntry struct {
	EntryID      string  `json:"entry_id"`
	EnrollmentID string  `json:"enrollment_id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Status       string  `json:"status"`
	WeekNumber   int     `json:"week_number"`
	DayNumber    int     `json:"day_number"`
	CapturedAt   string  `json:"captured_at"`
}

// Sync sends the queued captures in one batch. An empty queue returns a zero
// report without touching the network.
func (r *Reconciler) Sync(ctx context.Context) (Report, error) {
	entries := r.Queue.DrainAll()
	if len(entries) == 0 {
		return Report{Errors: []string{}}, nil
	}

	batch := struct {
		Records []wireEntry `json:"records"`
	}{Records: make([]wireEntry, 0, len(entries))}
	for _, e := range entries {
		batch.Records = append(batch.Records, wireEntry{
			EntryID:      e.ID,
			EnrollmentID: e.EnrollmentID,
			Latitude:     e.Latitude,
			Longitude:    e.Longitude,
			Status:       e.Status,
			WeekNumber:   e.WeekNumber,
			DayNumber:    e.DayNumber,
			CapturedAt:   e.CapturedAt.Format(time.RFC3339),
		})
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return Report{}, fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Report{}, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.SessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: r.SessionID})
	}

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		// Transport failure: keep the queue for the next retry trigger.
		return Report{}, fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("sync rejected: HTTP %d", resp.StatusCode)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("decode sync report: %w", err)
	}

	// Full round-trip succeeded: per-entry failures are recorded in the
	// report, but the batch itself is acknowledged — safe to clear.
	if err := r.Queue.Clear(); err != nil {
		return report, fmt.Errorf("clear queue after sync: %w", err)
	}

	return report, nil
}
