package database

import (
	"testing"

	"adwatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSettingOverwritesExistingValue(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SetSetting(models.DashboardURLKey, "http://127.0.0.1:8690/dashboard.html"))
	require.NoError(t, SetSetting(models.DashboardURLKey, "http://10.0.0.5:8690/dashboard.html"))

	got, err := GetSetting(models.DashboardURLKey)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8690/dashboard.html", got)
}

func TestGetSettingReturnsEmptyWhenUnset(t *testing.T) {
	setupTestDB(t)

	got, err := GetSetting("no_such_key")
	require.NoError(t, err)
	assert.Empty(t, got)
}
