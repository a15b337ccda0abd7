package models

import (
	"database/sql"
	"time"
)

// Alarm is a persisted recurring timer. The scheduler owns the next_fire_at
// bookkeeping; handlers only see the name when it fires.
type Alarm struct {
	ID            int64         `json:"id" format:"int64" readOnly:"true"`
	Name          string        `json:"name" example:"dailyCheck" binding:"required"` // Unique alarm name.
	NextFireAt    time.Time     `json:"next_fire_at"`                                 // Next scheduled firing, local time stored as UTC.
	PeriodMinutes int64         `json:"period_minutes" example:"1440"`                // Repeat interval; 0 means one-shot.
	LastFiredAt   sql.NullTime  `json:"last_fired_at,omitempty"`
	LastFiringID  sql.NullString `json:"last_firing_id,omitempty"` // UUID of the most recent firing.
	CreatedAt     time.Time     `json:"created_at" readOnly:"true"`
	UpdatedAt     time.Time     `json:"updated_at" readOnly:"true"`
}

// DailyCheckAlarmName is the alarm the installer registers. The dashboard is
// opened only for firings carrying exactly this name.
const DailyCheckAlarmName = "dailyCheck"

// DailyCheckPeriodMinutes is the repeat interval of the daily check alarm.
const DailyCheckPeriodMinutes int64 = 1440
