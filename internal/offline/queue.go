// Package offline holds the client-side pieces of the attendance protocol:
// a durable queue for captures made without connectivity and the reconciler
// that drains it against the server.
package offline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/utils"
)

// Entry is one not-yet-confirmed attendance capture. CapturedAt is fixed at
// enqueue time — it, not the eventual sync time, decides which calendar date
// and week/day the record belongs to.
type Entry struct {
	ID           string    `json:"entry_id"`
	EnrollmentID string    `json:"enrollment_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Status       string    `json:"status"`
	WeekNumber   int       `json:"week_number"`
	DayNumber    int       `json:"day_number"`
	CapturedAt   time.Time `json:"-"`
}

// Queue is a file-backed append-only list that survives process restarts.
// Access is assumed single-process (one client); there is no internal locking.
type Queue struct {
	path    string
	entries []Entry
}

// queueFile is the on-disk shape.
type queueFile struct {
	Entries []persistedEntry `json:"entries"`
}

type persistedEntry struct {
	Entry
	CapturedAt string `json:"captured_at"` // RFC3339
}

// Open loads the queue at path, treating a missing file as an empty queue.
func Open(path string) (*Queue, error) {
	q := &Queue{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return q, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}

	var f queueFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse queue %s: %w", path, err)
	}
	for _, pe := range f.Entries {
		e := pe.Entry
		t, err := time.Parse(time.RFC3339, pe.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("parse queue entry %s: %w", pe.ID, err)
		}
		e.CapturedAt = t
		q.entries = append(q.entries, e)
	}

	return q, nil
}

// Enqueue appends a capture and persists the queue. A missing ID gets a local
// UUID and a zero CapturedAt is stamped now.
func (q *Queue) Enqueue(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = utils.GenerateUUID()
	}
	if e.CapturedAt.IsZero() {
		e.CapturedAt = time.Now()
	}

	q.entries = append(q.entries, e)
	if err := q.persist(); err != nil {
		q.entries = q.entries[:len(q.entries)-1]
		return Entry{}, err
	}
	return e, nil
}

// DrainAll returns the full current queue without removing anything. Removal
// is the caller's responsibility via Clear after a confirmed sync.
func (q *Queue) DrainAll() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len reports how many captures are waiting.
func (q *Queue) Len() int { return len(q.entries) }

// Clear empties the queue. Called only after the server acknowledged the
// whole batch.
func (q *Queue) Clear() error {
	q.entries = nil
	return q.persist()
}

// persist writes atomically via a temp file rename so a crash mid-write can't
// corrupt the queue.
func (q *Queue) persist() error {
	f := queueFile{Entries: make([]persistedEntry, 0, len(q.entries))}
	for _, e := range q.entries {
		f.Entries = append(f.Entries, persistedEntry{
			Entry:      e,
			CapturedAt: e.CapturedAt.Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}

	tmp := q.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("create queue dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write queue: %w", err)
	}
	if err := os.Rename(tmp, q.path); err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}
	return nil
}
