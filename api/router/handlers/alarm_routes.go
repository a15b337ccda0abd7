package handlers

import (
	"github.com/go-chi/chi/v5"
)

func RegisterAlarmRoutes(r chi.Router) {
	r.Route("/alarms", func(r chi.Router) {
		r.Get("/", GetAlarmsHandler)
		r.Get("/{alarmName}", GetAlarmHandler)
		r.Post("/{alarmName}/fire", FireAlarmHandler)
		r.Delete("/{alarmName}", DeleteAlarmHandler)
	})
}
