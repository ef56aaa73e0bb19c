package attendance

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/auth"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/middleware"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Post("/submit", SubmitHandler)
		r.Post("/sync", SyncHandler)
		r.Get("/status", StatusHandler)
	})

	return r
}
