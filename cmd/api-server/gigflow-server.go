package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jenyyy4/gigflow/db"
	"github.com/jenyyy4/gigflow/db/migrations"
	"github.com/jenyyy4/gigflow/internal/config"
	"github.com/jenyyy4/gigflow/internal/handlers"
	"github.com/jenyyy4/gigflow/internal/notify"
)

func main() {
	config.LoadEnv()

	connString := config.GetEnv("POSTGRES_CONN", "")
	if connString == "" {
		log.Fatal("POSTGRES_CONN env variable is not set")
	}
	if config.GetEnv("JWT_SECRET", "") == "" {
		log.Fatal("JWT_SECRET env variable is not set")
	}

	dbConn, err := sqlx.Connect("postgres", connString)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	migrations.Run()

	store := db.NewStorage(dbConn)
	hub := notify.NewHub()
	h := handlers.NewHandler(store, hub)
	h.Hub = hub

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		// аутентификация
		r.Post("/auth/register", h.RegisterHandler)
		r.Post("/auth/login", h.LoginHandler)
		r.Post("/auth/logout", h.LogoutHandler)
		r.With(h.RequireAuth).Get("/auth/me", h.MeHandler)

		// заказы
		r.Get("/gigs", h.GetGigsHandler)
		r.With(h.RequireAuth).Get("/gigs/my-gigs", h.GetMyGigsHandler)
		r.Get("/gigs/{gigId}", h.GetGigHandler)
		r.With(h.RequireAuth).Post("/gigs", h.CreateGigHandler)
		r.With(h.RequireAuth).Put("/gigs/{gigId}", h.UpdateGigHandler)
		r.With(h.RequireAuth).Delete("/gigs/{gigId}", h.DeleteGigHandler)

		// предложения
		r.With(h.RequireAuth).Post("/bids", h.CreateBidHandler)
		r.With(h.RequireAuth).Get("/bids/my-bids", h.GetMyBidsHandler)
		r.With(h.RequireAuth).Get("/bids/{gigId}", h.GetBidsForGigHandler)
		r.With(h.RequireAuth).Patch("/bids/{bidId}/hire", h.HireBidHandler)

		// поток уведомлений
		r.With(h.RequireAuth).Get("/events", h.EventsHandler)
	})

	serverAddr := config.GetEnv("SERVER_ADDRESS", "0.0.0.0:8080")

	log.Printf("Starting server on %s", serverAddr)
	log.Fatal(http.ListenAndServe(serverAddr, r))
}
