package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/attendance"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/auth"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/config"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/db"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/middleware"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/placement"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg := config.Load(os.Getenv("TTFPP_CONFIG"))
	db.Connect()

	auth.Init()
	placement.Init()
	attendance.Init(cfg)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(cfg))
	r.Mount("/placements", placement.SetupRoutes())
	r.Mount("/attendance", attendance.SetupRoutes())

	fmt.Printf("Server listening on port :%s...\n", cfg.Port)

	http.ListenAndServe("0.0.0.0:"+cfg.Port, r)
}
