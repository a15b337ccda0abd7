package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"
)

// GetRewriteLogHandler returns the most recent rewritten requests, newest
// first. ?limit= caps the count (default 50).
func GetRewriteLogHandler(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := database.GetRewriteLogEntries(limit)
	if err != nil {
		logger.Error("GetRewriteLogHandler: %v", err)
		http.Error(w, "Failed to retrieve rewrite log", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.RewriteLogEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
