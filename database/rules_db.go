package database

import (
	"database/sql"
	"fmt"

	"adwatch/logger"
	"adwatch/models"
)

// ReplaceHeaderRules removes every rule whose ID is in removeRuleIDs, then
// adds addRules, all inside one transaction. Adding a rule whose ID is also
// in removeRuleIDs is the replace-by-identifier idiom; the removal always
// happens first so the same ID never exists twice.
func ReplaceHeaderRules(removeRuleIDs []int64, addRules []models.HeaderRule) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning header rule replace transaction: %w", err)
	}
	defer tx.Rollback()

	delStmt, err := tx.Prepare("DELETE FROM header_rules WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing header rule delete statement: %w", err)
	}
	defer delStmt.Close()

	for _, id := range removeRuleIDs {
		if _, err := delStmt.Exec(id); err != nil {
			return fmt.Errorf("removing header rule %d: %w", id, err)
		}
	}

	insStmt, err := tx.Prepare(`INSERT INTO header_rules
		(id, priority, url_filter, resource_types, header_name, header_value, is_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("preparing header rule insert statement: %w", err)
	}
	defer insStmt.Close()

	for i := range addRules {
		rule := &addRules[i]
		typesJSON, err := rule.MarshalResourceTypes()
		if err != nil {
			return err
		}
		if _, err := insStmt.Exec(rule.ID, rule.Priority, rule.URLFilter, typesJSON, rule.HeaderName, rule.HeaderValue, rule.IsEnabled); err != nil {
			return fmt.Errorf("adding header rule %d: %w", rule.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing header rule replace: %w", err)
	}
	logger.Info("Replaced header rules: removed %d ID(s), added %d rule(s)", len(removeRuleIDs), len(addRules))
	return nil
}

// GetHeaderRuleByID retrieves a single header rule. Returns nil if absent.
func GetHeaderRuleByID(ruleID int64) (*models.HeaderRule, error) {
	var r models.HeaderRule
	var typesJSON string
	err := DB.QueryRow(`SELECT id, priority, url_filter, resource_types, header_name, header_value, is_enabled, created_at, updated_at
						FROM header_rules WHERE id = ?`, ruleID).Scan(
		&r.ID, &r.Priority, &r.URLFilter, &typesJSON, &r.HeaderName, &r.HeaderValue, &r.IsEnabled, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying header rule %d: %w", ruleID, err)
	}
	if err := r.UnmarshalResourceTypes(typesJSON); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetHeaderRules retrieves all header rules, highest priority first.
func GetHeaderRules(enabledOnly bool) ([]models.HeaderRule, error) {
	query := `SELECT id, priority, url_filter, resource_types, header_name, header_value, is_enabled, created_at, updated_at
			  FROM header_rules`
	if enabledOnly {
		query += " WHERE is_enabled = 1"
	}
	query += " ORDER BY priority DESC, id ASC"

	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying header rules: %w", err)
	}
	defer rows.Close()

	var rules []models.HeaderRule
	for rows.Next() {
		var r models.HeaderRule
		var typesJSON string
		if err := rows.Scan(&r.ID, &r.Priority, &r.URLFilter, &typesJSON, &r.HeaderName, &r.HeaderValue, &r.IsEnabled, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning header rule row: %w", err)
		}
		if err := r.UnmarshalResourceTypes(typesJSON); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// CountHeaderRulesByID reports how many rules share an ID. With the primary
// key in place this is 0 or 1; the API exposes it for sanity checks.
func CountHeaderRulesByID(ruleID int64) (int64, error) {
	var count int64
	if err := DB.QueryRow("SELECT COUNT(*) FROM header_rules WHERE id = ?", ruleID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting header rules with ID %d: %w", ruleID, err)
	}
	return count, nil
}

// SetHeaderRuleEnabled toggles a rule without touching its definition.
func SetHeaderRuleEnabled(ruleID int64, enabled bool) error {
	res, err := DB.Exec("UPDATE header_rules SET is_enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", enabled, ruleID)
	if err != nil {
		return fmt.Errorf("updating enabled state for header rule %d: %w", ruleID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("header rule %d not found", ruleID)
	}
	logger.Info("Header rule %d enabled=%t", ruleID, enabled)
	return nil
}
