package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"adwatch/core"
	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"

	"github.com/go-chi/chi/v5"
)

// ReplaceHeaderRulesRequest mirrors the updateDynamicRules contract: remove
// by ID first, then add. An ID present in both is replaced atomically.
type ReplaceHeaderRulesRequest struct {
	RemoveRuleIDs []int64             `json:"remove_rule_ids"`
	AddRules      []models.HeaderRule `json:"add_rules"`
}

// GetHeaderRulesHandler lists all header rules. ?enabled=true filters to
// enabled rules only.
func GetHeaderRulesHandler(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled") == "true"
	rules, err := database.GetHeaderRules(enabledOnly)
	if err != nil {
		logger.Error("GetHeaderRulesHandler: %v", err)
		http.Error(w, "Failed to retrieve header rules", http.StatusInternalServerError)
		return
	}
	if rules == nil {
		rules = []models.HeaderRule{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

// GetHeaderRuleHandler returns a single rule by ID.
func GetHeaderRuleHandler(w http.ResponseWriter, r *http.Request) {
	ruleID, err := strconv.ParseInt(chi.URLParam(r, "ruleID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid rule ID", http.StatusBadRequest)
		return
	}
	rule, err := database.GetHeaderRuleByID(ruleID)
	if err != nil {
		logger.Error("GetHeaderRuleHandler: %v", err)
		http.Error(w, "Failed to retrieve header rule", http.StatusInternalServerError)
		return
	}
	if rule == nil {
		http.Error(w, fmt.Sprintf("Header rule %d not found", ruleID), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rule)
}

// ReplaceHeaderRulesHandler atomically removes and adds rules, then reloads
// the proxy's in-memory rule set.
func ReplaceHeaderRulesHandler(w http.ResponseWriter, r *http.Request) {
	var req ReplaceHeaderRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("ReplaceHeaderRulesHandler: Error decoding request body: %v", err)
		http.Error(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	for _, rule := range req.AddRules {
		if rule.ID <= 0 {
			http.Error(w, fmt.Sprintf("Rule ID must be a positive integer, got %d", rule.ID), http.StatusBadRequest)
			return
		}
		if rule.URLFilter == "" || rule.HeaderName == "" {
			http.Error(w, fmt.Sprintf("Rule %d is missing url_filter or header_name", rule.ID), http.StatusBadRequest)
			return
		}
	}

	if err := database.ReplaceHeaderRules(req.RemoveRuleIDs, req.AddRules); err != nil {
		logger.Error("ReplaceHeaderRulesHandler: %v", err)
		http.Error(w, "Failed to replace header rules", http.StatusInternalServerError)
		return
	}
	if err := core.ReloadRules(); err != nil {
		logger.Error("ReplaceHeaderRulesHandler: rules saved but proxy reload failed: %v", err)
	}

	rules, err := database.GetHeaderRules(false)
	if err != nil {
		logger.Error("ReplaceHeaderRulesHandler: %v", err)
		http.Error(w, "Rules replaced but listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

// EnableHeaderRuleHandler enables a rule and reloads the proxy rule set.
func EnableHeaderRuleHandler(w http.ResponseWriter, r *http.Request) {
	setHeaderRuleEnabled(w, r, true)
}

// DisableHeaderRuleHandler disables a rule and reloads the proxy rule set.
func DisableHeaderRuleHandler(w http.ResponseWriter, r *http.Request) {
	setHeaderRuleEnabled(w, r, false)
}

func setHeaderRuleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	ruleID, err := strconv.ParseInt(chi.URLParam(r, "ruleID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid rule ID", http.StatusBadRequest)
		return
	}
	if err := database.SetHeaderRuleEnabled(ruleID, enabled); err != nil {
		logger.Error("setHeaderRuleEnabled: %v", err)
		http.Error(w, fmt.Sprintf("Failed to update rule %d: %v", ruleID, err), http.StatusBadRequest)
		return
	}
	if err := core.ReloadRules(); err != nil {
		logger.Error("setHeaderRuleEnabled: rule updated but proxy reload failed: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"rule_id": ruleID, "is_enabled": enabled})
}
