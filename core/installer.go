package core

import (
	"fmt"
	"time"

	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"
)

// Defaults the installer writes. These mirror the values the companion
// dashboard expects: the ad platform serves its mobile reporting UI only when
// the request carries a mobile User-Agent.
const (
	// MobileUARuleID is the fixed identifier of the User-Agent rewrite rule.
	// Re-installation always removes this ID before adding, so the rule set
	// never holds two rules with it.
	MobileUARuleID int64 = 1

	// AdPlatformURLFilter is matched as a substring of the full request URL.
	AdPlatformURLFilter = "searchad.naver.com"

	// MobileUserAgent is the header value the rewrite rule installs.
	MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1"
)

// DefaultHeaderRule builds the rule the installer writes under MobileUARuleID.
func DefaultHeaderRule() models.HeaderRule {
	return models.HeaderRule{
		ID:        MobileUARuleID,
		Priority:  1,
		URLFilter: AdPlatformURLFilter,
		ResourceTypes: []string{
			models.ResourceTypeXMLHTTPRequest,
			models.ResourceTypeSubFrame,
			models.ResourceTypeMainFrame,
		},
		HeaderName:  "User-Agent",
		HeaderValue: MobileUserAgent,
		IsEnabled:   true,
	}
}

// Install establishes the two pieces of persistent state: the dailyCheck
// alarm (first fire at the next local noon, repeating every 24 hours) and the
// mobile User-Agent header rule. Safe to run repeatedly; each run recreates
// both.
func Install(clock Clock) error {
	now := clock.Now()
	firstFire := NextNoon(now)

	alarm, err := database.UpsertAlarm(models.DailyCheckAlarmName, firstFire, models.DailyCheckPeriodMinutes)
	if err != nil {
		return fmt.Errorf("scheduling daily alarm: %w", err)
	}
	logger.Info("Install: alarm '%s' scheduled, first fire %s, period %d minutes",
		alarm.Name, firstFire.Format(time.RFC3339), alarm.PeriodMinutes)

	rule := DefaultHeaderRule()
	if err := database.ReplaceHeaderRules([]int64{MobileUARuleID}, []models.HeaderRule{rule}); err != nil {
		return fmt.Errorf("installing header rule: %w", err)
	}
	logger.Info("Install: header rule %d installed (%s contains '%s' -> %s)",
		rule.ID, rule.HeaderName, rule.URLFilter, "mobile UA")
	return nil
}
