package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/config"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/middleware"
)

func SetupRoutes(cfg config.Config) http.Handler {
	r := chi.NewRouter()
	sessionFetcher := SessionInfo{}

	r.With(middleware.RateLimitMiddleware(cfg.OTPPerMinute)).Post("/request-otp", RequestOTPHandler)
	r.Post("/verify-otp", VerifyOTPHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/logout", LogoutHandler)
		r.Get("/me", MeHandler)
	})

	return r
}
