package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Resource type values mirror the declarativeNetRequest vocabulary so rules
// exported from a browser extension can be loaded unchanged.
const (
	ResourceTypeMainFrame      = "main_frame"
	ResourceTypeSubFrame       = "sub_frame"
	ResourceTypeXMLHTTPRequest = "xmlhttprequest"
	ResourceTypeOther          = "other"
)

// HeaderRule is a declarative request rule: match by URL substring and
// resource type, set one request header to a literal value. Rules are keyed
// by a caller-chosen integer ID; replacing a rule means remove-then-add under
// the same ID.
type HeaderRule struct {
	ID            int64     `json:"id" example:"1" format:"int64"`
	Priority      int       `json:"priority" example:"1"`
	URLFilter     string    `json:"url_filter" example:"searchad.naver.com"` // Substring match against the full request URL.
	ResourceTypes []string  `json:"resource_types"`                          // Empty means match every resource type.
	HeaderName    string    `json:"header_name" example:"User-Agent"`
	HeaderValue   string    `json:"header_value"`
	IsEnabled     bool      `json:"is_enabled"`
	CreatedAt     time.Time `json:"created_at" readOnly:"true"`
	UpdatedAt     time.Time `json:"updated_at" readOnly:"true"`
}

// MarshalResourceTypes encodes the resource type list for storage.
func (r *HeaderRule) MarshalResourceTypes() (string, error) {
	if len(r.ResourceTypes) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(r.ResourceTypes)
	if err != nil {
		return "", fmt.Errorf("marshalling resource types for rule %d: %w", r.ID, err)
	}
	return string(data), nil
}

// UnmarshalResourceTypes decodes the stored resource type list.
func (r *HeaderRule) UnmarshalResourceTypes(stored string) error {
	r.ResourceTypes = nil
	if stored == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(stored), &r.ResourceTypes); err != nil {
		return fmt.Errorf("unmarshalling resource types for rule %d: %w", r.ID, err)
	}
	return nil
}

// MatchesResourceType reports whether the rule applies to a request classified
// as the given resource type. A rule with no resource types matches all.
func (r *HeaderRule) MatchesResourceType(resourceType string) bool {
	if len(r.ResourceTypes) == 0 {
		return true
	}
	for _, rt := range r.ResourceTypes {
		if rt == resourceType {
			return true
		}
	}
	return false
}
