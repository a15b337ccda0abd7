package core

import (
	"bytes"
	"compress/gzip"
	"net/http/httptest"
	"testing"

	"adwatch/models"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceTypeOf(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "sec-fetch-dest document",
			headers: map[string]string{"Sec-Fetch-Dest": "document"},
			want:    models.ResourceTypeMainFrame,
		},
		{
			name:    "sec-fetch-dest iframe",
			headers: map[string]string{"Sec-Fetch-Dest": "iframe"},
			want:    models.ResourceTypeSubFrame,
		},
		{
			name:    "sec-fetch-dest empty means fetch/xhr",
			headers: map[string]string{"Sec-Fetch-Dest": "empty"},
			want:    models.ResourceTypeXMLHTTPRequest,
		},
		{
			name:    "legacy xhr header",
			headers: map[string]string{"X-Requested-With": "XMLHttpRequest"},
			want:    models.ResourceTypeXMLHTTPRequest,
		},
		{
			name:    "html accept header",
			headers: map[string]string{"Accept": "text/html,application/xhtml+xml"},
			want:    models.ResourceTypeMainFrame,
		},
		{
			name:    "json accept header",
			headers: map[string]string{"Accept": "application/json"},
			want:    models.ResourceTypeXMLHTTPRequest,
		},
		{
			name:    "nothing recognizable",
			headers: map[string]string{"Accept": "image/png"},
			want:    models.ResourceTypeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "https://searchad.naver.com/report", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, resourceTypeOf(r))
		})
	}
}

func setActiveRules(t *testing.T, rules []models.HeaderRule) {
	t.Helper()
	ruleMu.Lock()
	activeRules = rules
	ruleMu.Unlock()
	t.Cleanup(func() {
		ruleMu.Lock()
		activeRules = nil
		ruleMu.Unlock()
	})
}

func TestApplyHeaderRulesRewritesMatchingRequest(t *testing.T) {
	setActiveRules(t, []models.HeaderRule{DefaultHeaderRule()})

	r := httptest.NewRequest("GET", "https://manage.searchad.naver.com/customers/123/report", nil)
	r.Header.Set("Sec-Fetch-Dest", "document")
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) desktop")

	entries := applyHeaderRules(r, resourceTypeOf(r))

	require.Len(t, entries, 1)
	assert.Equal(t, MobileUserAgent, r.Header.Get("User-Agent"))
	assert.Equal(t, MobileUARuleID, entries[0].RuleID)
	assert.Equal(t, "User-Agent", entries[0].HeaderName)
	assert.Equal(t, models.ResourceTypeMainFrame, entries[0].ResourceType)
}

func TestApplyHeaderRulesIgnoresOtherDomains(t *testing.T) {
	setActiveRules(t, []models.HeaderRule{DefaultHeaderRule()})

	r := httptest.NewRequest("GET", "https://example.com/", nil)
	r.Header.Set("Sec-Fetch-Dest", "document")
	original := "Mozilla/5.0 desktop"
	r.Header.Set("User-Agent", original)

	entries := applyHeaderRules(r, resourceTypeOf(r))

	assert.Empty(t, entries)
	assert.Equal(t, original, r.Header.Get("User-Agent"))
}

func TestApplyHeaderRulesRespectsResourceTypes(t *testing.T) {
	setActiveRules(t, []models.HeaderRule{DefaultHeaderRule()})

	// An image request on the matching domain is not one of the rule's
	// resource types.
	r := httptest.NewRequest("GET", "https://searchad.naver.com/logo.png", nil)
	r.Header.Set("Sec-Fetch-Dest", "image")
	r.Header.Set("Accept", "image/png")
	original := "Mozilla/5.0 desktop"
	r.Header.Set("User-Agent", original)

	entries := applyHeaderRules(r, resourceTypeOf(r))

	assert.Empty(t, entries)
	assert.Equal(t, original, r.Header.Get("User-Agent"))
}

func TestApplyHeaderRulesHigherPriorityClaimsHeader(t *testing.T) {
	// Rules arrive priority-descending from the store.
	setActiveRules(t, []models.HeaderRule{
		{ID: 2, Priority: 5, URLFilter: "searchad.naver.com", HeaderName: "User-Agent", HeaderValue: "winner", IsEnabled: true},
		{ID: 3, Priority: 1, URLFilter: "searchad.naver.com", HeaderName: "User-Agent", HeaderValue: "loser", IsEnabled: true},
	})

	r := httptest.NewRequest("GET", "https://searchad.naver.com/", nil)
	r.Header.Set("Sec-Fetch-Dest", "document")

	entries := applyHeaderRules(r, resourceTypeOf(r))

	require.Len(t, entries, 1)
	assert.Equal(t, "winner", r.Header.Get("User-Agent"))
	assert.Equal(t, int64(2), entries[0].RuleID)
}

func TestResponsePreviewDecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("<html>mobile report</html>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got := responsePreview(buf.Bytes(), "gzip", "text/html; charset=utf-8")
	assert.Equal(t, "<html>mobile report</html>", got)
}

func TestResponsePreviewDecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, err := bw.Write([]byte(`{"impressions": 1024}`))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	got := responsePreview(buf.Bytes(), "br", "application/json")
	assert.Equal(t, `{"impressions": 1024}`, got)
}

func TestResponsePreviewSkipsBinaryContent(t *testing.T) {
	got := responsePreview([]byte{0x89, 0x50, 0x4e, 0x47}, "", "image/png")
	assert.Empty(t, got)
}

func TestResponsePreviewTruncatesLongBodies(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 4*responsePreviewBytes)
	got := responsePreview(body, "", "text/plain")
	assert.Len(t, got, responsePreviewBytes)
}
