package models

import (
	"database/sql"
	"time"
)

// RewriteLogEntry records one request the proxy rewrote, with a short decoded
// preview of the response body for spot-checking that the mobile variant of
// the site actually came back.
type RewriteLogEntry struct {
	ID                  string         `json:"id" readOnly:"true"` // UUID assigned by the proxy.
	RuleID              int64          `json:"rule_id" format:"int64"`
	Timestamp           time.Time      `json:"timestamp"`
	RequestMethod       string         `json:"request_method"`
	RequestURL          string         `json:"request_url"`
	ResourceType        string         `json:"resource_type"`
	HeaderName          string         `json:"header_name"`
	HeaderValue         string         `json:"header_value"`
	ResponseStatusCode  sql.NullInt64  `json:"response_status_code,omitempty"`
	ResponseContentType sql.NullString `json:"response_content_type,omitempty"`
	ResponseBodyPreview sql.NullString `json:"response_body_preview,omitempty"`
}
