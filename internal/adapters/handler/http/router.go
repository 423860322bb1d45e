package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewHandler(corsOrigins []string, pollHandler *PollHandler, voteHandler *VoteHandler, eventsHandler *EventsHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"livepoll-api","storage":"postgres"}`))
	})

	r.Route("/polls", func(r chi.Router) {
		r.Post("/", pollHandler.CreatePoll)
		r.Get("/{id}", pollHandler.GetPoll)
		r.Post("/{id}/vote", voteHandler.VoteOnPoll)
		r.Get("/{id}/events", eventsHandler.StreamEvents)
	})

	return r
}
