package database

import (
	"database/sql"
	"fmt"
	"time"

	"adwatch/logger"
	"adwatch/models"
)

// UpsertAlarm registers an alarm by name, replacing the schedule of an
// existing alarm with the same name. Re-registration resets next_fire_at and
// period but keeps the firing history columns.
func UpsertAlarm(name string, nextFireAt time.Time, periodMinutes int64) (*models.Alarm, error) {
	stmt, err := DB.Prepare(`INSERT INTO alarms (name, next_fire_at, period_minutes, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET next_fire_at = excluded.next_fire_at, period_minutes = excluded.period_minutes, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return nil, fmt.Errorf("preparing upsert alarm statement for '%s': %w", name, err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(name, nextFireAt.UTC(), periodMinutes); err != nil {
		return nil, fmt.Errorf("executing upsert alarm for '%s': %w", name, err)
	}
	logger.Info("Registered alarm '%s': next fire %s, period %d minutes", name, nextFireAt.Format(time.RFC3339), periodMinutes)
	return GetAlarmByName(name)
}

// GetAlarmByName retrieves a single alarm by name. Returns nil if absent.
func GetAlarmByName(name string) (*models.Alarm, error) {
	var a models.Alarm
	err := DB.QueryRow(`SELECT id, name, next_fire_at, period_minutes, last_fired_at, last_firing_id, created_at, updated_at
						FROM alarms WHERE name = ?`, name).Scan(
		&a.ID, &a.Name, &a.NextFireAt, &a.PeriodMinutes, &a.LastFiredAt, &a.LastFiringID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying alarm '%s': %w", name, err)
	}
	return &a, nil
}

// GetAllAlarms retrieves every registered alarm ordered by next firing.
func GetAllAlarms() ([]models.Alarm, error) {
	rows, err := DB.Query(`SELECT id, name, next_fire_at, period_minutes, last_fired_at, last_firing_id, created_at, updated_at
						   FROM alarms ORDER BY next_fire_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying alarms: %w", err)
	}
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		var a models.Alarm
		if err := rows.Scan(&a.ID, &a.Name, &a.NextFireAt, &a.PeriodMinutes, &a.LastFiredAt, &a.LastFiringID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning alarm row: %w", err)
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// MarkAlarmFired records a firing and advances next_fire_at to the next
// period boundary. One-shot alarms (period 0) are deleted once fired.
func MarkAlarmFired(name string, firingID string, firedAt, nextFireAt time.Time) error {
	if nextFireAt.IsZero() {
		if _, err := DB.Exec("DELETE FROM alarms WHERE name = ?", name); err != nil {
			return fmt.Errorf("deleting one-shot alarm '%s' after firing: %w", name, err)
		}
		logger.Info("One-shot alarm '%s' fired and removed.", name)
		return nil
	}
	_, err := DB.Exec(`UPDATE alarms SET last_fired_at = ?, last_firing_id = ?, next_fire_at = ?, updated_at = CURRENT_TIMESTAMP
					   WHERE name = ?`, firedAt.UTC(), firingID, nextFireAt.UTC(), name)
	if err != nil {
		return fmt.Errorf("recording firing of alarm '%s': %w", name, err)
	}
	return nil
}

// DeleteAlarm removes an alarm by name.
func DeleteAlarm(name string) error {
	_, err := DB.Exec("DELETE FROM alarms WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting alarm '%s': %w", name, err)
	}
	logger.Info("Deleted alarm '%s'", name)
	return nil
}
