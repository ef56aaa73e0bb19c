package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/geo"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/placement"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/progress"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mode selects the duplicate policy. A live submission asserts "this is my
// one check-in for today" and is refused on conflict; a sync replays
// potentially-stale offline data and is allowed to overwrite.
type Mode int

const (
	ModeOnline Mode = iota
	ModeSync
)

// Outcome reports what the write did, for the reconciler's counters.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeUpdated
	OutcomeSkipped
)

// Submission is the single strict payload shape every caller goes through.
type Submission struct {
	UserID        string
	EnrollmentID  string
	Latitude      float64
	Longitude     float64
	CapturedAt    time.Time
	Status        string // defaults to present
	ClientEntryID string // offline queue entry ID, sync path only
}

// Result is a successful write: the persisted record plus the computed
// distance to the community anchor.
type Result struct {
	Record   AttendanceRecord
	Outcome  Outcome
	Distance float64
}

// Recorder is the single authority over the attendance table. Every writer —
// direct submission or batch sync — goes through Submit so no caller can
// bypass the distance check or the uniqueness invariant.
type Recorder struct {
	DB              *gorm.DB
	Directory       placement.Directory
	ThresholdMeters float64
	Audit           *AuditSink
}

// Submit validates a submission against the student's placement and writes
// the attendance record. All failures come back as typed errors; callers map
// each to a distinct user-facing message.
func (rec *Recorder) Submit(ctx context.Context, sub Submission, mode Mode) (Result, error) {
	status := sub.Status
	if status == "" {
		status = StatusPresent
	}

	info, err := rec.Directory.GetPlacement(ctx, sub.EnrollmentID)
	if errors.Is(err, placement.ErrNotFound) {
		rec.Audit.Record(sub.UserID, sub.EnrollmentID, ActionRejected, "reason=placement_not_found")
		return Result{}, ErrPlacementNotFound
	}
	if err != nil {
		return Result{}, &PersistenceError{Err: err}
	}
	// The enrollment must belong to the submitting student, or anyone could
	// write records against another student's community anchor.
	if info.UserID != sub.UserID {
		rec.Audit.Record(sub.UserID, sub.EnrollmentID, ActionRejected, "reason=enrollment_owner_mismatch")
		return Result{}, ErrPlacementNotFound
	}
	if info.AnchorLat == nil || info.AnchorLng == nil {
		rec.Audit.Record(sub.UserID, sub.EnrollmentID, ActionRejected, "reason=community_not_verified")
		return Result{}, ErrPlacementNotFound
	}

	distance := geo.DistanceMeters(sub.Latitude, sub.Longitude, *info.AnchorLat, *info.AnchorLng)
	if distance > rec.ThresholdMeters {
		rec.Audit.Record(sub.UserID, sub.EnrollmentID, ActionRejected,
			"reason=out_of_range", formatDistance(distance))
		return Result{}, &OutOfRangeError{Distance: distance, Threshold: rec.ThresholdMeters}
	}

	// Week/day always derive from the capture time, never from the sync
	// wall-clock or client-sent values.
	pos := progress.Compute(info.StartDate, sub.CapturedAt)

	record := AttendanceRecord{
		ID:            utils.GenerateUUID(),
		UserID:        sub.UserID,
		EnrollmentID:  sub.EnrollmentID,
		Date:          dateOnly(sub.CapturedAt),
		Status:        status,
		Latitude:      sub.Latitude,
		Longitude:     sub.Longitude,
		WeekNumber:    pos.Week,
		DayNumber:     pos.Day,
		Synced:        mode == ModeSync,
		ClientEntryID: sub.ClientEntryID,
	}

	switch mode {
	case ModeSync:
		return rec.upsert(ctx, record, distance)
	default:
		return rec.insertOrReject(ctx, record, distance)
	}
}

// insertOrReject is the online path: a unique-key conflict is a benign
// duplicate, never a 500.
func (rec *Recorder) insertOrReject(ctx context.Context, record AttendanceRecord, distance float64) (Result, error) {
	err := rec.DB.WithContext(ctx).Create(&record).Error
	if isUniqueViolation(err) {
		return Result{}, ErrAlreadyRecorded
	}
	if err != nil {
		return Result{}, &PersistenceError{Err: err}
	}

	rec.Audit.Record(record.UserID, record.EnrollmentID, ActionSubmitted,
		"mode=online", formatDistance(distance))
	return Result{Record: record, Outcome: OutcomeInserted, Distance: distance}, nil
}

// upsert is the sync path: a later sync may fill a missing day or correct one
// written from stale offline data, so conflicts overwrite.
func (rec *Recorder) upsert(ctx context.Context, record AttendanceRecord, distance float64) (Result, error) {
	newID := record.ID

	res := rec.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "enrollment_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "latitude", "longitude", "week_number", "day_number",
				"synced", "client_entry_id", "updated_at",
			}),
		},
		clause.Returning{},
	).Create(&record)
	if res.Error != nil {
		return Result{}, &PersistenceError{Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return Result{Record: record, Outcome: OutcomeSkipped, Distance: distance}, nil
	}

	outcome := OutcomeInserted
	if record.ID != newID {
		// RETURNING gave us the pre-existing row's ID: the conflict branch ran.
		outcome = OutcomeUpdated
	}

	rec.Audit.Record(record.UserID, record.EnrollmentID, ActionSubmitted,
		"mode=sync", formatDistance(distance))
	return Result{Record: record, Outcome: outcome, Distance: distance}, nil
}

// isUniqueViolation recognizes the composite-key conflict both through gorm's
// translated error and the raw Postgres error code.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// dateOnly truncates a capture time to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
