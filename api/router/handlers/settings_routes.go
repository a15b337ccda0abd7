package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterSettingsRoutes(r chi.Router) {
	r.Route("/settings/dashboard-url", func(r chi.Router) {
		r.Get("/", GetDashboardURLHandler)
		r.Put("/", SetDashboardURLHandler)
		r.Post("/", SetDashboardURLHandler)
	})
}
