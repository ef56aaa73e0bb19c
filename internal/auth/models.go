package auth

import "time"

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

// User rows are pre-provisioned by the admin import; students claim theirs by
// verifying an OTP sent to the phone number on file.
type User struct {
	UserID      string    `gorm:"primaryKey" json:"user_id"`
	IndexNumber string    `gorm:"uniqueIndex;not null" json:"index_number"`
	FullName    string    `json:"full_name"`
	Phone       string    `gorm:"uniqueIndex;not null" json:"-"`
	Role        string    `gorm:"default:'student'" json:"role"` // student | coordinator | admin
	Claimed     bool      `gorm:"default:false" json:"claimed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Session Session `gorm:"foreignKey:UserID" json:"-"`
}

// OTPCode stores only the bcrypt hash of an issued code. A code is single-use
// and expires a few minutes after issuance.
type OTPCode struct {
	ID         string    `gorm:"primaryKey" json:"-"`
	Phone      string    `gorm:"index;not null" json:"-"`
	HashedCode string    `gorm:"not null" json:"-"`
	ExpiresAt  time.Time `gorm:"not null" json:"-"`
	Consumed   bool      `gorm:"default:false" json:"-"`
	CreatedAt  time.Time `json:"-"`
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.users" }
func (OTPCode) TableName() string { return "app_auth.otp_codes" }
