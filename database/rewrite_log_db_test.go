package database

import (
	"fmt"
	"testing"
	"time"

	"adwatch/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertTestEntries(t *testing.T, n int) []string {
	t.Helper()
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("entry-%03d", i)
		err := InsertRewriteLogEntry(&models.RewriteLogEntry{
			ID:            id,
			RuleID:        1,
			Timestamp:     base.Add(time.Duration(i) * time.Second),
			RequestMethod: "GET",
			RequestURL:    fmt.Sprintf("https://searchad.naver.com/report/%d", i),
			ResourceType:  models.ResourceTypeXMLHTTPRequest,
			HeaderName:    "User-Agent",
			HeaderValue:   "test-agent",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestGetRewriteLogEntriesNewestFirst(t *testing.T) {
	setupTestDB(t)
	ids := insertTestEntries(t, 5)

	entries, err := GetRewriteLogEntries(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ids[4], entries[0].ID)
	assert.Equal(t, ids[3], entries[1].ID)
	assert.Equal(t, ids[2], entries[2].ID)
}

func TestUpdateRewriteLogResponse(t *testing.T) {
	setupTestDB(t)
	ids := insertTestEntries(t, 1)

	require.NoError(t, UpdateRewriteLogResponse(ids[0], 200, "text/html", "<html>"))

	entries, err := GetRewriteLogEntries(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	require.True(t, e.ResponseStatusCode.Valid)
	assert.Equal(t, int64(200), e.ResponseStatusCode.Int64)
	require.True(t, e.ResponseContentType.Valid)
	assert.Equal(t, "text/html", e.ResponseContentType.String)
	require.True(t, e.ResponseBodyPreview.Valid)
	assert.Equal(t, "<html>", e.ResponseBodyPreview.String)
}

func TestPruneRewriteLogKeepsNewest(t *testing.T) {
	setupTestDB(t)
	ids := insertTestEntries(t, 10)

	deleted, err := PruneRewriteLog(4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), deleted)

	entries, err := GetRewriteLogEntries(100)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, ids[9], entries[0].ID)
	assert.Equal(t, ids[6], entries[3].ID)
}
