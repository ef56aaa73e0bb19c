package attendance

import (
	"time"

	"github.com/lib/pq"
)

// Status values for an attendance record.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// AttendanceRecord is one student's attendance event for one calendar date.
// The composite unique index is the sole guard against duplicate daily
// submissions; writers never pre-check then insert.
type AttendanceRecord struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"not null;index:idx_attendance_user_enrollment_date,unique" json:"user_id"`
	EnrollmentID string    `gorm:"not null;index:idx_attendance_user_enrollment_date,unique" json:"enrollment_id"`
	Date         time.Time `gorm:"type:date;not null;index:idx_attendance_user_enrollment_date,unique" json:"date"`
	Status       string    `gorm:"not null;default:'present'" json:"status"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	WeekNumber   int       `gorm:"not null" json:"week_number"`
	DayNumber    int       `gorm:"not null" json:"day_number"` // 1-7
	Synced       bool      `gorm:"default:false" json:"synced"`

	// ClientEntryID is the offline queue entry's local ID, kept for tracing
	// replayed syncs. Empty for direct online submissions.
	ClientEntryID string `json:"client_entry_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditEvent is a fire-and-forget trail row. Writing one must never block or
// roll back the attendance write it describes.
type AuditEvent struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"index" json:"user_id"`
	EnrollmentID string         `gorm:"index" json:"enrollment_id"`
	Action       string         `gorm:"not null" json:"action"` // attendance_submitted | attendance_rejected
	Details      pq.StringArray `gorm:"type:text[]" json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (AttendanceRecord) TableName() string { return "ttfpp.attendance_records" }
func (AuditEvent) TableName() string       { return "ttfpp.audit_events" }
