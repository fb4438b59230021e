package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fundingarb/internal/funding/handler"
)

func NewRouter(fundingHandler *handler.Handler, pushHandler http.HandlerFunc) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Get("/api/v1/funding/snapshot", fundingHandler.GetSnapshot)
	router.Get("/ws", pushHandler)
	return router
}
