package placement

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/db"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/utils"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ListCommunities returns all registered communities.
func ListCommunities(w http.ResponseWriter, r *http.Request) {
	var communities []Community

	query := db.DB
	if district := r.URL.Query().Get("district"); district != "" {
		query = query.Where("district = ?", district)
	}

	if err := query.Find(&communities).Error; err != nil {
		http.Error(w, "Failed to fetch communities: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, communities)
}

// CreateCommunity registers a community without anchor coordinates. A
// coordinator verifies the anchor on site later.
func CreateCommunity(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		District string `json:"district"`
		Region   string `json:"region"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.District == "" {
		http.Error(w, "Name and district are required", http.StatusBadRequest)
		return
	}

	community := Community{
		ID:       utils.GenerateUUID(),
		Name:     input.Name,
		District: input.District,
		Region:   input.Region,
	}
	if err := db.DB.Create(&community).Error; err != nil {
		http.Error(w, "Failed to create community", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, community)
}

// VerifyCommunity records the GPS anchor for a community. Attendance cannot be
// taken against a community until this has happened.
func VerifyCommunity(w http.ResponseWriter, r *http.Request) {
	communityID := chi.URLParam(r, "community_id")

	var input struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Lat == nil || input.Lng == nil {
		http.Error(w, "Lat and lng are required", http.StatusBadRequest)
		return
	}
	if *input.Lat < -90 || *input.Lat > 90 || *input.Lng < -180 || *input.Lng > 180 {
		http.Error(w, "Coordinates out of range", http.StatusBadRequest)
		return
	}

	var community Community
	if err := db.DB.First(&community, "id = ?", communityID).Error; err != nil {
		http.Error(w, "Community not found", http.StatusNotFound)
		return
	}

	now := time.Now()
	if err := db.DB.Model(&community).Updates(map[string]any{
		"anchor_lat":      *input.Lat,
		"anchor_lng":      *input.Lng,
		"gps_verified_at": now,
	}).Error; err != nil {
		http.Error(w, "Failed to verify community", http.StatusInternalServerError)
		return
	}

	community.AnchorLat = input.Lat
	community.AnchorLng = input.Lng
	community.GPSVerifiedAt = &now
	writeJSON(w, community)
}

// CreatePlacement assigns a student to a community for a session.
func CreatePlacement(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID        string `json:"user_id"`
		SessionID     string `json:"session_id"`
		CommunityID   string `json:"community_id"`
		StartDate     string `json:"start_date"` // YYYY-MM-DD
		DurationWeeks int    `json:"duration_weeks"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.UserID == "" || input.SessionID == "" || input.CommunityID == "" {
		http.Error(w, "user_id, session_id and community_id are required", http.StatusBadRequest)
		return
	}

	var community Community
	if err := db.DB.First(&community, "id = ?", input.CommunityID).Error; err != nil {
		http.Error(w, "Community not found", http.StatusNotFound)
		return
	}

	placement := Placement{
		ID:            utils.GenerateUUID(),
		UserID:        input.UserID,
		SessionID:     input.SessionID,
		CommunityID:   input.CommunityID,
		DurationWeeks: input.DurationWeeks,
	}
	if placement.DurationWeeks == 0 {
		placement.DurationWeeks = 8
	}
	if input.StartDate != "" {
		start, err := time.Parse("2006-01-02", input.StartDate)
		if err != nil {
			http.Error(w, "Invalid start_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		placement.StartDate = &start
	}

	if err := db.DB.Create(&placement).Error; err != nil {
		http.Error(w, "Failed to create placement", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, placement)
}

// GetPlacement returns one placement with its community.
func GetPlacement(w http.ResponseWriter, r *http.Request) {
	placementID := chi.URLParam(r, "placement_id")

	var placement Placement
	if err := db.DB.Preload("Community").First(&placement, "id = ?", placementID).Error; err != nil {
		http.Error(w, "Placement not found", http.StatusNotFound)
		return
	}

	writeJSON(w, placement)
}

// ListPlacements returns placements, optionally filtered by session or user.
func ListPlacements(w http.ResponseWriter, r *http.Request) {
	query := db.DB.Preload("Community")

	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if r.URL.Query().Get("include_archived") != "true" {
		query = query.Where("archived = false")
	}

	var placements []Placement
	if err := query.Find(&placements).Error; err != nil {
		http.Error(w, "Failed to fetch placements: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, placements)
}

// RolloverSession archives every placement in a session. Used at the end of a
// programme run; attendance history stays intact.
func RolloverSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	result := db.DB.Model(&Placement{}).
		Where("session_id = ? AND archived = false", sessionID).
		Update("archived", true)
	if result.Error != nil {
		http.Error(w, "Failed to archive placements", http.StatusInternalServerError)
		return
	}

	db.DB.Model(&AcademicSession{}).Where("id = ?", sessionID).Update("active", false)

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Archived %d placements\n", result.RowsAffected)
}
