package database

import (
	"fmt"

	"adwatch/models"
)

// InsertRewriteLogEntry stores one rewritten-request record.
func InsertRewriteLogEntry(entry *models.RewriteLogEntry) error {
	stmt, err := DB.Prepare(`INSERT INTO rewrite_log
		(id, rule_id, timestamp, request_method, request_url, resource_type, header_name, header_value, response_status_code, response_content_type, response_body_preview)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing rewrite log insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(entry.ID, entry.RuleID, entry.Timestamp.UTC(), entry.RequestMethod, entry.RequestURL,
		entry.ResourceType, entry.HeaderName, entry.HeaderValue,
		entry.ResponseStatusCode, entry.ResponseContentType, entry.ResponseBodyPreview)
	if err != nil {
		return fmt.Errorf("executing rewrite log insert for %s: %w", entry.RequestURL, err)
	}
	return nil
}

// UpdateRewriteLogResponse fills in the response columns once the upstream
// response has been seen.
func UpdateRewriteLogResponse(entryID string, statusCode int, contentType, bodyPreview string) error {
	_, err := DB.Exec(`UPDATE rewrite_log SET response_status_code = ?, response_content_type = ?, response_body_preview = ?
					   WHERE id = ?`, statusCode, models.NullString(contentType), models.NullString(bodyPreview), entryID)
	if err != nil {
		return fmt.Errorf("updating rewrite log response for entry %s: %w", entryID, err)
	}
	return nil
}

// GetRewriteLogEntries retrieves the most recent entries, newest first.
func GetRewriteLogEntries(limit int) ([]models.RewriteLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := DB.Query(`SELECT id, rule_id, timestamp, request_method, request_url, resource_type, header_name, header_value, response_status_code, response_content_type, response_body_preview
						   FROM rewrite_log ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying rewrite log: %w", err)
	}
	defer rows.Close()

	var entries []models.RewriteLogEntry
	for rows.Next() {
		var e models.RewriteLogEntry
		if err := rows.Scan(&e.ID, &e.RuleID, &e.Timestamp, &e.RequestMethod, &e.RequestURL, &e.ResourceType, &e.HeaderName, &e.HeaderValue, &e.ResponseStatusCode, &e.ResponseContentType, &e.ResponseBodyPreview); err != nil {
			return nil, fmt.Errorf("scanning rewrite log row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneRewriteLog deletes everything but the newest keep entries.
func PruneRewriteLog(keep int) (int64, error) {
	res, err := DB.Exec(`DELETE FROM rewrite_log WHERE id NOT IN
						 (SELECT id FROM rewrite_log ORDER BY timestamp DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning rewrite log: %w", err)
	}
	deleted, _ := res.RowsAffected()
	return deleted, nil
}
