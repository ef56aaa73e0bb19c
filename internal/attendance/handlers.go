package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/db"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/utils"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SubmitRequest is the online submission payload. Week/day are accepted for
// legacy clients but ignored; the server recomputes them from the placement.
type SubmitRequest struct {
	EnrollmentID string   `json:"enrollment_id"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Status       string   `json:"status"`
	WeekNumber   int      `json:"week_number"`
	DayNumber    int      `json:"day_number"`
	CapturedAt   string   `json:"captured_at"` // RFC3339, optional; defaults to now
}

type submitResponse struct {
	Record   AttendanceRecord `json:"record"`
	Distance float64          `json:"distance"`
}

type errorResponse struct {
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Distance  *float64 `json:"distance,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

func (req *SubmitRequest) toSubmission(userID string) (Submission, error) {
	if req.EnrollmentID == "" {
		return Submission{}, errors.New("enrollment_id is required")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return Submission{}, errors.New("latitude and longitude are required")
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		return Submission{}, errors.New("coordinates out of range")
	}
	if req.Status != "" && req.Status != StatusPresent && req.Status != StatusAbsent {
		return Submission{}, fmt.Errorf("invalid status %q", req.Status)
	}

	capturedAt := time.Now()
	if req.CapturedAt != "" {
		t, err := time.Parse(time.RFC3339, req.CapturedAt)
		if err != nil {
			return Submission{}, errors.New("captured_at must be RFC3339")
		}
		capturedAt = t
	}

	return Submission{
		UserID:       userID,
		EnrollmentID: req.EnrollmentID,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		CapturedAt:   capturedAt,
		Status:       req.Status,
	}, nil
}

// writeRecorderError maps the recorder's failure taxonomy onto HTTP. Each case
// carries its own user-facing message; none of them surface as a bare 500
// except genuine storage failures.
func writeRecorderError(w http.ResponseWriter, err error) {
	var oor *OutOfRangeError
	switch {
	case errors.Is(err, ErrPlacementNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "placement_not_found",
			Message: "No verified community placement found. Please contact your coordinator.",
		})
	case errors.As(err, &oor):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:     "out_of_range",
			Message:   fmt.Sprintf("You are %.0fm from your community. Move within %.0fm to sign in.", oor.Distance, oor.Threshold),
			Distance:  &oor.Distance,
			Threshold: &oor.Threshold,
		})
	case errors.Is(err, ErrAlreadyRecorded):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "already_recorded",
			Message: "You already signed in today.",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "persistence_error",
			Message: "Could not save your attendance. Please try again.",
		})
	}
}

// SubmitHandler is the online check-in path: geofence re-validated server-side,
// duplicate daily submissions refused.
func SubmitHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := req.toSubmission(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := recorder.Submit(r.Context(), sub, ModeOnline)
	if err != nil {
		writeRecorderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Record:   result.Record,
		Distance: result.Distance,
	})
}

// SyncEntry is one queued offline capture inside a sync batch.
type SyncEntry struct {
	EntryID      string   `json:"entry_id"`
	EnrollmentID string   `json:"enrollment_id"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Status       string   `json:"status"`
	WeekNumber   int      `json:"week_number"`
	DayNumber    int      `json:"day_number"`
	CapturedAt   string   `json:"captured_at"` // RFC3339, required: fixes the calendar date
}

type SyncRequest struct {
	Records []SyncEntry `json:"records"`
}

// SyncReport mirrors the reconciler's counters.
type SyncReport struct {
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// SyncHandler drains an offline batch. Entries are processed independently —
// one bad record never blocks the rest — and each goes through the recorder's
// upsert path so replayed batches converge.
func SyncHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report := SyncReport{Errors: []string{}}
	for i, entry := range req.Records {
		sub, err := entryToSubmission(userID, entry)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}

		result, err := recorder.Submit(r.Context(), sub, ModeSync)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}

		switch result.Outcome {
		case OutcomeSkipped:
			report.Skipped++
		default:
			// Inserted and updated both count as forward progress.
			report.Synced++
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func entryToSubmission(userID string, entry SyncEntry) (Submission, error) {
	if entry.EnrollmentID == "" {
		return Submission{}, errors.New("enrollment_id is required")
	}
	if entry.Latitude == nil || entry.Longitude == nil {
		return Submission{}, errors.New("latitude and longitude are required")
	}
	if entry.CapturedAt == "" {
		return Submission{}, errors.New("captured_at is required")
	}
	capturedAt, err := time.Parse(time.RFC3339, entry.CapturedAt)
	if err != nil {
		return Submission{}, errors.New("captured_at must be RFC3339")
	}
	if entry.Status != "" && entry.Status != StatusPresent && entry.Status != StatusAbsent {
		return Submission{}, fmt.Errorf("invalid status %q", entry.Status)
	}

	return Submission{
		UserID:        userID,
		EnrollmentID:  entry.EnrollmentID,
		Latitude:      *entry.Latitude,
		Longitude:     *entry.Longitude,
		CapturedAt:    capturedAt,
		Status:        entry.Status,
		ClientEntryID: entry.EntryID,
	}, nil
}

// StatusHandler reports whether the student has signed in today, plus the
// server's date so clients can detect clock skew.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}

	today := dateOnly(time.Now())

	query := db.DB.Model(&AttendanceRecord{}).Where("user_id = ? AND date = ?", userID, today)
	if enrollmentID := r.URL.Query().Get("enrollment_id"); enrollmentID != "" {
		query = query.Where("enrollment_id = ?", enrollmentID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		http.Error(w, "Failed to check status: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"signed":      count > 0,
		"server_date": today.Format("2006-01-02"),
	})
}
