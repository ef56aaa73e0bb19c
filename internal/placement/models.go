package placement

import "time"

// AcademicSession is one TTFPP run (e.g. "2025/2026 Third Trimester").
type AcademicSession struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Active    bool      `gorm:"default:false" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Community is a host community with a fixed geographic anchor. The anchor is
// nil until a coordinator GPS-verifies the community on site.
type Community struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null;index:idx_community_name_district,unique" json:"name"`
	District      string     `gorm:"not null;index:idx_community_name_district,unique" json:"district"`
	Region        string     `json:"region"`
	AnchorLat     *float64   `json:"anchor_lat"`
	AnchorLng     *float64   `json:"anchor_lng"`
	GPSVerifiedAt *time.Time `json:"gps_verified_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Placement assigns a student to a community for a session. Its ID is the
// enrollment identifier attendance submissions are keyed on. Placements are
// never deleted; session rollover archives them.
type Placement struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	UserID        string     `gorm:"not null;index:idx_placement_user_session,unique" json:"user_id"`
	SessionID     string     `gorm:"not null;index:idx_placement_user_session,unique" json:"session_id"`
	CommunityID   string     `gorm:"not null;index" json:"community_id"`
	StartDate     *time.Time `json:"start_date"`
	DurationWeeks int        `gorm:"default:8" json:"duration_weeks"`
	Archived      bool       `gorm:"default:false" json:"archived"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Community Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
}

func (AcademicSession) TableName() string { return "ttfpp.academic_sessions" }
func (Community) TableName() string       { return "ttfpp.communities" }
func (Placement) TableName() string       { return "ttfpp.placements" }
