package core

import (
	"testing"

	"adwatch/config"
	"adwatch/database"
	"adwatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardOpenURLAppendsAutoParam(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, database.SetSetting(models.DashboardURLKey, "http://127.0.0.1:8690/dashboard.html"))

	got, err := DashboardOpenURL(true)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8690/dashboard.html?auto=true", got)
}

func TestDashboardOpenURLPreservesExistingQuery(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, database.SetSetting(models.DashboardURLKey, "http://127.0.0.1:8690/dashboard.html?view=budget"))

	got, err := DashboardOpenURL(true)
	require.NoError(t, err)
	assert.Contains(t, got, "auto=true")
	assert.Contains(t, got, "view=budget")
}

func TestDashboardOpenURLManualHasNoAutoParam(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, database.SetSetting(models.DashboardURLKey, "http://127.0.0.1:8690/dashboard.html"))

	got, err := DashboardOpenURL(false)
	require.NoError(t, err)
	assert.NotContains(t, got, "auto=true")
}

func TestDashboardURLFallsBackToConfig(t *testing.T) {
	setupTestDB(t)
	config.AppConfig.Dashboard.URL = "http://127.0.0.1:9999/dashboard.html"

	assert.Equal(t, "http://127.0.0.1:9999/dashboard.html", DashboardURL())
}

// captureOpens replaces the browser launch with a recorder for the duration
// of a test.
func captureOpens(t *testing.T) *[]string {
	t.Helper()
	var opened []string
	original := openURL
	openURL = func(target string) error {
		opened = append(opened, target)
		return nil
	}
	t.Cleanup(func() {
		openURL = original
	})
	return &opened
}

func TestHandleDailyCheckOpensDashboard(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, database.SetSetting(models.DashboardURLKey, "http://127.0.0.1:8690/dashboard.html"))
	opened := captureOpens(t)

	HandleDailyCheck(models.Alarm{Name: models.DailyCheckAlarmName}, "firing-1")

	require.Len(t, *opened, 1)
	assert.Equal(t, "http://127.0.0.1:8690/dashboard.html?auto=true", (*opened)[0])
}

func TestHandleDailyCheckIgnoresOtherAlarmNames(t *testing.T) {
	setupTestDB(t)
	opened := captureOpens(t)

	HandleDailyCheck(models.Alarm{Name: "weeklyReport"}, "firing-1")

	assert.Empty(t, *opened)
}
