package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/timeline"
)

func TestJournalDaysGrouping(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")

	seedEntry(t, db, user.ID, "morning", time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC))
	seedEntry(t, db, user.ID, "evening", time.Date(2025, 10, 3, 21, 0, 0, 0, time.UTC))
	seedEntry(t, db, user.ID, "next day", time.Date(2025, 10, 4, 8, 0, 0, 0, time.UTC))
	seedEntry(t, db, user.ID, "hidden", time.Date(2025, 10, 4, 9, 0, 0, 0, time.UTC),
		func(e *models.Entry) { e.IsDeleted = true })

	w := doRequest(t, r, http.MethodGet, "/api/v1/journal/days", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data struct {
		Days []struct {
			DateKey string         `json:"date_key"`
			Header  string         `json:"header"`
			Entries []models.Entry `json:"entries"`
		} `json:"days"`
	}
	decodeData(t, w, &data)
	require.Len(t, data.Days, 2)

	assert.Equal(t, "2025-10-04", data.Days[0].DateKey)
	assert.Equal(t, "October 4, 2025, Saturday", data.Days[0].Header)
	require.Len(t, data.Days[0].Entries, 1)

	assert.Equal(t, "2025-10-03", data.Days[1].DateKey)
	require.Len(t, data.Days[1].Entries, 2)
	assert.Equal(t, "evening", data.Days[1].Entries[0].Content)
	assert.Equal(t, "morning", data.Days[1].Entries[1].Content)
}

func TestJournalDaysTimezoneGrouping(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")

	// 23:30 UTC is already the next day in Tokyo.
	seedEntry(t, db, user.ID, "late", time.Date(2025, 10, 3, 23, 30, 0, 0, time.UTC))
	seedEntry(t, db, user.ID, "early", time.Date(2025, 10, 3, 1, 0, 0, 0, time.UTC))

	w := doRequest(t, r, http.MethodGet, "/api/v1/journal/days?tz=Asia/Tokyo", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data struct {
		Days []struct {
			DateKey string `json:"date_key"`
		} `json:"days"`
	}
	decodeData(t, w, &data)
	require.Len(t, data.Days, 2)
	assert.Equal(t, "2025-10-04", data.Days[0].DateKey)
	assert.Equal(t, "2025-10-03", data.Days[1].DateKey)
}

func TestJournalCalendar(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")

	seedEntry(t, db, user.ID, "one", time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC))
	seedEntry(t, db, user.ID, "two", time.Date(2025, 10, 2, 10, 0, 0, 0, time.UTC))
	seedEntry(t, db, user.ID, "other month", time.Date(2025, 12, 25, 9, 0, 0, 0, time.UTC))

	w := doRequest(t, r, http.MethodGet, "/api/v1/journal/calendar?month=2025-10", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data struct {
		Month string            `json:"month"`
		Weeks [][]timeline.Cell `json:"weeks"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, "2025-10", data.Month)
	require.Len(t, data.Weeks, 6)
	for _, row := range data.Weeks {
		require.Len(t, row, 7)
	}

	var found bool
	for _, row := range data.Weeks {
		for _, cell := range row {
			if cell.DateKey == "2025-10-02" {
				found = true
				assert.Equal(t, 2, cell.Count)
				assert.Equal(t, 1.0, cell.Intensity)
			}
		}
	}
	assert.True(t, found)
}

func TestJournalCalendarRejectsBadMonth(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodGet, "/api/v1/journal/calendar?month=oct-2025", token, nil)
	requireStatus(t, w, http.StatusBadRequest)
}
