package auth

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/db"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpTTL     = 10 * time.Minute
	sessionTTL = 6 * time.Hour
)

// sessionCookie builds the session cookie. When PORT is set we assume a
// deployed environment behind HTTPS; local dev keeps Secure off so cookies
// work over plain HTTP.
func sessionCookie(value string) *http.Cookie {
	deployed := os.Getenv("PORT") != ""
	cookie := &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
	}
	if deployed {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}
	return cookie
}

// generateOTP returns a random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestOTPHandler issues a one-time code to a pre-provisioned phone number.
// The response never reveals whether the phone exists.
func RequestOTPHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Phone string `json:"phone"`
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Phone == "" {
		http.Error(w, "Phone number is required", http.StatusBadRequest)
		return
	}

	var user User
	err := db.DB.First(&user, "phone = ?", input.Phone).Error
	if err != nil {
		// Unknown phone: answer as if a code was sent so the endpoint can't be
		// used to enumerate student numbers.
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "If that number is registered, a code has been sent")
		return
	}

	code, err := generateOTP()
	if err != nil {
		http.Error(w, "Server error generating code", http.StatusInternalServerError)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Server error hashing code", http.StatusInternalServerError)
		return
	}

	otp := OTPCode{
		ID:         utils.GenerateUUID(),
		Phone:      input.Phone,
		HashedCode: string(hashed),
		ExpiresAt:  time.Now().Add(otpTTL),
	}
	if err := db.DB.Create(&otp).Error; err != nil {
		http.Error(w, "Failed to issue code", http.StatusInternalServerError)
		return
	}

	// SMS delivery is handled by the gateway worker; here we only log the
	// issuance. OTP_DEBUG=true echoes the code for local testing.
	log.Printf("[auth] OTP issued for %s (expires %s)", input.Phone, otp.ExpiresAt.Format(time.RFC3339))
	if os.Getenv("OTP_DEBUG") == "true" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"debug_code": code})
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "If that number is registered, a code has been sent")
}

// VerifyOTPHandler checks a submitted code, claims the account on first use,
// and opens a session.
func VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	var session Session
	var existing Session

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Phone == "" || input.Code == "" {
		http.Error(w, "Phone and code are required", http.StatusBadRequest)
		return
	}

	var otp OTPCode
	err := db.DB.Where("phone = ? AND consumed = false", input.Phone).
		Order("created_at DESC").First(&otp).Error
	if err != nil {
		http.Error(w, "Invalid code", http.StatusUnauthorized)
		return
	}

	if otp.ExpiresAt.Before(time.Now()) {
		http.Error(w, "Code expired", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(otp.HashedCode), []byte(input.Code)); err != nil {
		http.Error(w, "Invalid code", http.StatusUnauthorized)
		return
	}

	db.DB.Model(&otp).Update("consumed", true)

	var user User
	if err := db.DB.First(&user, "phone = ?", input.Phone).Error; err != nil {
		http.Error(w, "Couldn't find user", http.StatusUnauthorized)
		return
	}

	// First successful verification claims the account.
	if !user.Claimed {
		db.DB.Model(&user).Update("claimed", true)
	}

	sessionID := utils.GenerateUUID()
	http.SetCookie(w, sessionCookie(sessionID))

	// Reuse the user's session row if one exists, otherwise create it.
	db.DB.Where("user_id = ?", user.UserID).First(&existing)
	if existing.UserID != "" {
		db.DB.Model(&existing).Updates(Session{
			SessionID: sessionID,
			ExpiresAt: time.Now().Add(sessionTTL),
		})
	} else {
		session.SessionID = sessionID
		session.UserID = user.UserID
		session.ExpiresAt = time.Now().Add(sessionTTL)
		db.DB.Create(&session)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"user_id":      user.UserID,
		"index_number": user.IndexNumber,
		"role":         user.Role,
		"claimed":      true,
	})
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var session Session

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cookie, err := r.Cookie("session_id")
	if err != nil {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	err = db.DB.First(&session, "session_id = ?", cookie.Value).Error
	if err != nil {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}

	db.DB.Delete(&session)

	// Replace the cookie with new expired/empty cookie
	deletedCookie := &http.Cookie{
		Name:   "session_id",
		Value:  "",
		MaxAge: 0,
		Path:   "/",
	}
	http.SetCookie(w, deletedCookie)

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Logout successful")
}

type MeResponse struct {
	UserID      string `json:"user_id"`
	IndexNumber string `json:"index_number"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
}

func MeHandler(w http.ResponseWriter, r *http.Request) {
	var user User

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Failed converting ID to string", http.StatusInternalServerError)
		return
	}

	err := db.DB.First(&user, "user_id = ?", userID).Error
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}

	response := MeResponse{
		UserID:      user.UserID,
		IndexNumber: user.IndexNumber,
		FullName:    user.FullName,
		Role:        user.Role,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
