package core

import (
	"fmt"
	"net/url"

	"adwatch/config"
	"adwatch/database"
	"adwatch/logger"
	"adwatch/models"

	"github.com/pkg/browser"
)

// openURL launches a URL in the default browser. Indirected so tests can
// observe opens without spawning one.
var openURL = browser.OpenURL

// DashboardURL resolves the dashboard URL: the stored setting wins, the
// config default is the fallback.
func DashboardURL() string {
	stored, err := database.GetSetting(models.DashboardURLKey)
	if err != nil {
		logger.Error("DashboardURL: failed to read setting, falling back to config: %v", err)
	}
	if stored != "" {
		return stored
	}
	return config.AppConfig.Dashboard.URL
}

// DashboardOpenURL returns the URL a given trigger opens. Automatic (alarm
// driven) opens carry auto=true so the dashboard can distinguish them from a
// manual visit.
func DashboardOpenURL(auto bool) (string, error) {
	raw := DashboardURL()
	if !auto {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing dashboard URL '%s': %w", raw, err)
	}
	q := u.Query()
	q.Set("auto", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// OpenDashboard opens the dashboard in the default browser. Failures are
// logged and returned but never retried.
func OpenDashboard(auto bool) error {
	target, err := DashboardOpenURL(auto)
	if err != nil {
		logger.Error("OpenDashboard: %v", err)
		return err
	}
	logger.Info("Opening dashboard: %s", target)
	if err := openURL(target); err != nil {
		logger.Error("OpenDashboard: failed to open '%s': %v", target, err)
		return fmt.Errorf("opening dashboard '%s': %w", target, err)
	}
	return nil
}

// HandleDailyCheck is the alarm listener for the daily check. Only the
// dailyCheck alarm opens the dashboard; every other name is ignored.
func HandleDailyCheck(alarm models.Alarm, firingID string) {
	if alarm.Name != models.DailyCheckAlarmName {
		logger.Debug("HandleDailyCheck: ignoring alarm '%s' (firing %s)", alarm.Name, firingID)
		return
	}
	logger.Info("Daily check alarm fired (firing %s).", firingID)
	if err := OpenDashboard(true); err != nil {
		logger.Error("Daily check: dashboard open failed: %v", err)
	}
}
