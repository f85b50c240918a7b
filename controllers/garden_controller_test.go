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

type gardenData struct {
	Collected bool   `json:"collected"`
	Seeds     int    `json:"seeds"`
	Flowers   int    `json:"flowers"`
	Today     string `json:"today"`
}

func TestGardenStatus(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")
	require.NoError(t, db.Model(&user).Updates(map[string]any{"seeds": 3, "flowers": 2}).Error)

	w := doRequest(t, r, http.MethodGet, "/api/v1/garden/status", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data struct {
		Seeds            int  `json:"seeds"`
		Flowers          int  `json:"flowers"`
		SeedsPerFlower   int  `json:"seeds_per_flower"`
		CollectibleToday bool `json:"collectible_today"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, 3, data.Seeds)
	assert.Equal(t, 2, data.Flowers)
	assert.Equal(t, seedsPerFlower, data.SeedsPerFlower)
	assert.True(t, data.CollectibleToday)
}

func TestCollectGrantsOneSeedPerDay(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodPost, "/api/v1/garden/collect", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data gardenData
	decodeData(t, w, &data)
	assert.True(t, data.Collected)
	assert.Equal(t, 1, data.Seeds)
	assert.Zero(t, data.Flowers)

	// Second collect on the same day is a no-op, not an error.
	w = doRequest(t, r, http.MethodPost, "/api/v1/garden/collect", token, nil)
	requireStatus(t, w, http.StatusOK)
	decodeData(t, w, &data)
	assert.False(t, data.Collected)
	assert.Equal(t, 1, data.Seeds)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, 1, fresh.Seeds)
	assert.Equal(t, data.Today, fresh.LastCollected)

	// Exactly one ledger row exists for the day.
	var count int64
	db.Model(&models.Collection{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCollectRollsSeedsIntoFlower(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")
	require.NoError(t, db.Model(&user).Update("seeds", seedsPerFlower-1).Error)

	w := doRequest(t, r, http.MethodPost, "/api/v1/garden/collect", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data gardenData
	decodeData(t, w, &data)
	assert.True(t, data.Collected)
	assert.Zero(t, data.Seeds, "the seventh seed converts, leaving none over")
	assert.Equal(t, 1, data.Flowers)

	var ledger models.Collection
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&ledger).Error)
	assert.Zero(t, ledger.SeedsAfter)
	assert.Equal(t, 1, ledger.FlowersAfter)
}

func TestCollectBelowThresholdJustIncrements(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")
	require.NoError(t, db.Model(&user).Update("seeds", 3).Error)

	w := doRequest(t, r, http.MethodPost, "/api/v1/garden/collect", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data gardenData
	decodeData(t, w, &data)
	assert.Equal(t, 4, data.Seeds)
	assert.Zero(t, data.Flowers)
}

func TestCollectStatusFlipsAfterCollect(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodPost, "/api/v1/garden/collect", token, nil)
	requireStatus(t, w, http.StatusOK)

	w = doRequest(t, r, http.MethodGet, "/api/v1/garden/status", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data struct {
		CollectibleToday bool `json:"collectible_today"`
	}
	decodeData(t, w, &data)
	assert.False(t, data.CollectibleToday)
}

func TestCollectRespectsTimezoneDay(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")

	// Pretend the user collected on Tokyo's current day already.
	tokyo := "Asia/Tokyo"
	loc, err := time.LoadLocation(tokyo)
	require.NoError(t, err)
	require.NoError(t, db.Model(&user).Update("last_collected", timeline.TodayKey(loc)).Error)

	w := doRequest(t, r, http.MethodPost, "/api/v1/garden/collect?tz="+tokyo, token, nil)
	requireStatus(t, w, http.StatusOK)

	var data gardenData
	decodeData(t, w, &data)
	assert.False(t, data.Collected)
}

func TestGardenErrorCodesAreDistinct(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "alice@example.com", "alice")

	// With the ledger table gone, history must fail with the garden
	// family code, not one shared with the auth controller.
	require.NoError(t, db.Exec("DROP TABLE collections").Error)

	w := doRequest(t, r, http.MethodGet, "/api/v1/garden/history", token, nil)
	requireStatus(t, w, http.StatusInternalServerError)
	assert.Equal(t, 50062, decodeEnvelope(t, w).Code)
}

func TestGardenHistory(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")

	rows := []models.Collection{
		{UserID: user.ID, CollectDate: "2025-10-01", SeedsAfter: 1},
		{UserID: user.ID, CollectDate: "2025-10-03", SeedsAfter: 3},
		{UserID: user.ID, CollectDate: "2025-10-02", SeedsAfter: 2},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	w := doRequest(t, r, http.MethodGet, "/api/v1/garden/history", token, nil)
	requireStatus(t, w, http.StatusOK)

	var data struct {
		Items []models.Collection `json:"items"`
	}
	decodeData(t, w, &data)
	require.Len(t, data.Items, 3)
	assert.Equal(t, "2025-10-03", data.Items[0].CollectDate)
	assert.Equal(t, "2025-10-01", data.Items[2].CollectDate)
}
