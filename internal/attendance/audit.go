package attendance

import (
	"fmt"
	"log"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/utils"
	"gorm.io/gorm"
)

const (
	ActionSubmitted = "attendance_submitted"
	ActionRejected  = "attendance_rejected"
)

// AuditSink appends attendance events for the admin trail. Append failures
// are logged and swallowed; they must never block the attendance write.
type AuditSink struct {
	DB *gorm.DB
}

func (a *AuditSink) Record(userID, enrollmentID, action string, details ...string) {
	if a == nil || a.DB == nil {
		return
	}

	event := AuditEvent{
		ID:           utils.GenerateUUID(),
		UserID:       userID,
		EnrollmentID: enrollmentID,
		Action:       action,
		Details:      details,
	}
	if err := a.DB.Create(&event).Error; err != nil {
		log.Printf("[attendance] audit append failed: %v", err)
	}
}

func formatDistance(meters float64) string {
	return fmt.Sprintf("distance=%.1fm", meters)
}
