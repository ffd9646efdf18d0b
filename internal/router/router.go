package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appMiddleware "github.com/triptailor/triptailor/app/middleware"
	"github.com/triptailor/triptailor/internal/api/itinerary"
	"github.com/triptailor/triptailor/internal/api/trips"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Itinerary *itinerary.HandlerImpl
	Trips     *trips.HandlerImpl
	JWTSecret []byte
}

// SetupRoutes mounts the public and authenticated API surface on r.
func SetupRoutes(r chi.Router, h Handlers) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Authenticate(h.JWTSecret))

			r.Post("/itinerary", h.Itinerary.BuildItinerary)
			r.Post("/itinerary/serendipity", h.Itinerary.SerendipitySuggestion)
			r.Post("/itinerary/insert", h.Itinerary.InsertActivity)

			r.Route("/trips", func(r chi.Router) {
				r.Get("/", h.Trips.ListTrips)
				r.Get("/{tripID}", h.Trips.GetTrip)
				r.Post("/{tripID}/complete", h.Trips.CompleteTrip)
				r.Post("/{tripID}/memory", h.Trips.MemorySnapshot)
			})
		})
	})
}
