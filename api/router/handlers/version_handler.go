package handlers

import (
	"encoding/json"
	"net/http"

	"adwatch/version"
)

// GetVersionHandler returns the application version.
func GetVersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": version.AppVersion})
}
