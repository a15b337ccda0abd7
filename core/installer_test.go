package core

import (
	"testing"
	"time"

	"adwatch/database"
	"adwatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallSchedulesDailyAlarmAtNextNoon(t *testing.T) {
	setupTestDB(t)

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)
	require.NoError(t, Install(fakeClock{now: now}))

	alarm, err := database.GetAlarmByName(models.DailyCheckAlarmName)
	require.NoError(t, err)
	require.NotNil(t, alarm)

	wantFirstFire := time.Date(2025, 6, 2, 12, 0, 0, 0, time.Local)
	assert.True(t, alarm.NextFireAt.Equal(wantFirstFire), "next fire = %s, want %s", alarm.NextFireAt, wantFirstFire)
	assert.Equal(t, models.DailyCheckPeriodMinutes, alarm.PeriodMinutes)
}

func TestInstallAfterNoonSchedulesTomorrow(t *testing.T) {
	setupTestDB(t)

	now := time.Date(2025, 6, 2, 13, 0, 0, 0, time.Local)
	require.NoError(t, Install(fakeClock{now: now}))

	alarm, err := database.GetAlarmByName(models.DailyCheckAlarmName)
	require.NoError(t, err)
	require.NotNil(t, alarm)

	wantFirstFire := time.Date(2025, 6, 3, 12, 0, 0, 0, time.Local)
	assert.True(t, alarm.NextFireAt.Equal(wantFirstFire), "next fire = %s, want %s", alarm.NextFireAt, wantFirstFire)
}

func TestInstallWritesDefaultHeaderRule(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Install(fakeClock{now: time.Now()}))

	rule, err := database.GetHeaderRuleByID(MobileUARuleID)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.Equal(t, "User-Agent", rule.HeaderName)
	assert.Equal(t, MobileUserAgent, rule.HeaderValue)
	assert.Equal(t, AdPlatformURLFilter, rule.URLFilter)
	assert.True(t, rule.IsEnabled)
	assert.ElementsMatch(t, []string{
		models.ResourceTypeXMLHTTPRequest,
		models.ResourceTypeSubFrame,
		models.ResourceTypeMainFrame,
	}, rule.ResourceTypes)
}

func TestInstallTwiceNeverDuplicatesRuleID(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, Install(fakeClock{now: time.Now()}))
	require.NoError(t, Install(fakeClock{now: time.Now()}))

	count, err := database.CountHeaderRulesByID(MobileUARuleID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	alarms, err := database.GetAllAlarms()
	require.NoError(t, err)
	assert.Len(t, alarms, 1)
}
