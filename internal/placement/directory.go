package placement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/db"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no active placement exists for an enrollment.
var ErrNotFound = errors.New("placement not found")

// Info is the read-only placement view the attendance subsystem consumes.
// Anchor coordinates are nil when the community is not GPS-verified yet.
type Info struct {
	UserID        string
	CommunityName string
	AnchorLat     *float64
	AnchorLng     *float64
	StartDate     *time.Time
	DurationWeeks int
}

// Directory looks up a student's placement by enrollment ID.
type Directory interface {
	GetPlacement(ctx context.Context, enrollmentID string) (Info, error)
}

// GormDirectory serves placement lookups from the shared database.
type GormDirectory struct{}

func (GormDirectory) GetPlacement(ctx context.Context, enrollmentID string) (Info, error) {
	var p Placement
	err := db.DB.WithContext(ctx).Preload("Community").
		First(&p, "id = ? AND archived = false", enrollmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Info{}, ErrNotFound
	}
	if err != nil {
		return Info{}, fmt.Errorf("placement lookup failed: %w", err)
	}

	return Info{
		UserID:        p.UserID,
		CommunityName: p.Community.Name,
		AnchorLat:     p.Community.AnchorLat,
		AnchorLng:     p.Community.AnchorLng,
		StartDate:     p.StartDate,
		DurationWeeks: p.DurationWeeks,
	}, nil
}
