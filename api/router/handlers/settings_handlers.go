package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"adwatch/core"
	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"
)

// GetDashboardURLHandler returns the effective dashboard URL (stored setting
// or config default).
func GetDashboardURLHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"dashboard_url": core.DashboardURL()})
}

// SetDashboardURLHandler stores a new dashboard URL. An empty value clears
// the setting so the config default applies again.
func SetDashboardURLHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DashboardURL string `json:"dashboard_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("SetDashboardURLHandler: Error decoding request body: %v", err)
		http.Error(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.DashboardURL != "" {
		if _, err := url.ParseRequestURI(req.DashboardURL); err != nil {
			http.Error(w, "Invalid dashboard URL: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := database.SetSetting(models.DashboardURLKey, req.DashboardURL); err != nil {
		logger.Error("SetDashboardURLHandler: %v", err)
		http.Error(w, "Failed to save dashboard URL", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"dashboard_url": core.DashboardURL()})
}
