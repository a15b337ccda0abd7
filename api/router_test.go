package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"adwatch/database"
	"adwatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "adwatch_test.db")
	if err := database.InitDB(dbPath); err != nil {
		t.Fatalf("initializing test database: %v", err)
	}
	t.Cleanup(func() {
		database.DB.Close()
	})
	return NewRouter()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["ok"])
}

func TestGetAlarmsReturnsEmptyListNotNull(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, "GET", "/alarms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetAlarmNotFound(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, "GET", "/alarms/no-such-alarm", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFireAlarmWithoutSchedulerReturns503(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, "POST", "/alarms/dailyCheck/fire", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReplaceHeaderRulesEndToEnd(t *testing.T) {
	router := setupTestRouter(t)

	payload := map[string]interface{}{
		"remove_rule_ids": []int64{1},
		"add_rules": []models.HeaderRule{{
			ID:            1,
			Priority:      1,
			URLFilter:     "searchad.naver.com",
			ResourceTypes: []string{models.ResourceTypeMainFrame},
			HeaderName:    "User-Agent",
			HeaderValue:   "mobile-agent",
			IsEnabled:     true,
		}},
	}

	rec := doJSON(t, router, "PUT", "/rules", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	// Replaying the same replace must not create a second rule.
	rec = doJSON(t, router, "PUT", "/rules", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var rules []models.HeaderRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules, 1)
	assert.Equal(t, int64(1), rules[0].ID)
	assert.Equal(t, "mobile-agent", rules[0].HeaderValue)
}

func TestReplaceHeaderRulesRejectsNonPositiveID(t *testing.T) {
	router := setupTestRouter(t)

	payload := map[string]interface{}{
		"add_rules": []models.HeaderRule{{
			ID:         0,
			URLFilter:  "searchad.naver.com",
			HeaderName: "User-Agent",
		}},
	}

	rec := doJSON(t, router, "PUT", "/rules", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRuleEnableDisableCycle(t *testing.T) {
	router := setupTestRouter(t)

	payload := map[string]interface{}{
		"add_rules": []models.HeaderRule{{
			ID:          1,
			Priority:    1,
			URLFilter:   "searchad.naver.com",
			HeaderName:  "User-Agent",
			HeaderValue: "mobile-agent",
			IsEnabled:   true,
		}},
	}
	require.Equal(t, http.StatusOK, doJSON(t, router, "PUT", "/rules", payload).Code)

	rec := doJSON(t, router, "POST", "/rules/1/disable", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/rules/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rule models.HeaderRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rule))
	assert.False(t, rule.IsEnabled)

	rec = doJSON(t, router, "POST", "/rules/1/enable", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/rules?enabled=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rules []models.HeaderRule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Len(t, rules, 1)
}

func TestDashboardURLSettingRoundTrip(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, "PUT", "/settings/dashboard-url",
		map[string]string{"dashboard_url": "http://127.0.0.1:8690/dashboard.html"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/settings/dashboard-url", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "http://127.0.0.1:8690/dashboard.html", body["dashboard_url"])
}

func TestDashboardURLSettingRejectsGarbage(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, "PUT", "/settings/dashboard-url",
		map[string]string{"dashboard_url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRewriteLogEndpointRespectsLimit(t *testing.T) {
	router := setupTestRouter(t)

	for i := 0; i < 3; i++ {
		entry := models.RewriteLogEntry{
			ID:            string(rune('a' + i)),
			RuleID:        1,
			RequestMethod: "GET",
			RequestURL:    "https://searchad.naver.com/",
			ResourceType:  models.ResourceTypeMainFrame,
			HeaderName:    "User-Agent",
			HeaderValue:   "mobile-agent",
		}
		require.NoError(t, database.InsertRewriteLogEntry(&entry))
	}

	rec := doJSON(t, router, "GET", "/rewrite-log?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.RewriteLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
}
