package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterRuleRoutes(r chi.Router) {
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", GetHeaderRulesHandler)
		r.Put("/", ReplaceHeaderRulesHandler)
		r.Get("/{ruleID}", GetHeaderRuleHandler)
		r.Post("/{ruleID}/enable", EnableHeaderRuleHandler)
		r.Post("/{ruleID}/disable", DisableHeaderRuleHandler)
	})
}
