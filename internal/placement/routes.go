package placement

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
		r.Get("/communities", ListCommunities)
		r.Get("/", ListPlacements)
		r.Get("/{placement_id}", GetPlacement)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Post("/communities", CreateCommunity)
		r.Patch("/communities/{community_id}/verify", VerifyCommunity)
		r.Post("/", CreatePlacement)
		r.Post("/sessions/{session_id}/rollover", RolloverSession)
	})

	return r
}
