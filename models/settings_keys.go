package models

// DashboardURLKey is the key used in app_settings for the dashboard URL the
// daily check alarm opens.
const DashboardURLKey = "dashboard_url"
