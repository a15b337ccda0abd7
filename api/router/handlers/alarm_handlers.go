package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"adwatch/core"
	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"

	"github.com/go-chi/chi/v5"
)

// scheduler is the running scheduler, set by the start command before the
// server comes up. Firing endpoints return 503 while it is absent.
var scheduler *core.Scheduler

// SetScheduler wires the running scheduler into the alarm endpoints.
func SetScheduler(s *core.Scheduler) {
	scheduler = s
}

// GetAlarmsHandler lists every registered alarm.
func GetAlarmsHandler(w http.ResponseWriter, r *http.Request) {
	alarms, err := database.GetAllAlarms()
	if err != nil {
		logger.Error("GetAlarmsHandler: %v", err)
		http.Error(w, "Failed to retrieve alarms", http.StatusInternalServerError)
		return
	}
	if alarms == nil {
		alarms = []models.Alarm{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alarms)
}

// GetAlarmHandler returns a single alarm by name.
func GetAlarmHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "alarmName")
	alarm, err := database.GetAlarmByName(name)
	if err != nil {
		logger.Error("GetAlarmHandler: %v", err)
		http.Error(w, "Failed to retrieve alarm", http.StatusInternalServerError)
		return
	}
	if alarm == nil {
		http.Error(w, fmt.Sprintf("Alarm '%s' not found", name), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alarm)
}

// FireAlarmHandler triggers a named alarm immediately via the running
// scheduler. The regular schedule is left untouched.
func FireAlarmHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "alarmName")
	if scheduler == nil {
		logger.Error("FireAlarmHandler: no scheduler running, cannot fire '%s'", name)
		http.Error(w, "Scheduler is not running", http.StatusServiceUnavailable)
		return
	}
	if err := scheduler.Fire(name); err != nil {
		logger.Error("FireAlarmHandler: %v", err)
		http.Error(w, fmt.Sprintf("Failed to fire alarm '%s': %v", name, err), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "fired", "alarm": name})
}

// DeleteAlarmHandler removes an alarm by name.
func DeleteAlarmHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "alarmName")
	if err := database.DeleteAlarm(name); err != nil {
		logger.Error("DeleteAlarmHandler: %v", err)
		http.Error(w, "Failed to delete alarm", http.StatusInternalServerError)
		return
	}
	if scheduler != nil {
		scheduler.Wake()
	}
	w.WriteHeader(http.StatusNoContent)
}
