package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRewriteLogRoutes(r chi.Router) {
	r.Get("/rewrite-log", GetRewriteLogHandler)
}
