package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	r, db := newTestEnv(t)

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "alice@example.com", "password": "secret123",
	})
	requireStatus(t, w, http.StatusOK)

	var reg struct {
		Token string `json:"token"`
		User  struct {
			Email    string `json:"email"`
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeData(t, w, &reg)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.Equal(t, "alice", reg.User.Username, "default username comes from the email local part")

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.EqualValues(t, 1, count)

	w = doRequest(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "secret123",
	})
	requireStatus(t, w, http.StatusOK)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, db := newTestEnv(t)
	seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "alice@example.com", "password": "secret123",
	})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, 40901, decodeEnvelope(t, w).Code)
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestEnv(t)

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "not-an-email", "password": "secret123",
	})
	requireStatus(t, w, http.StatusBadRequest)

	w = doRequest(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "bob@example.com", "password": "short",
	})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestRegisterDuplicateUsernameGetsSuffix(t *testing.T) {
	r, db := newTestEnv(t)
	seedUser(t, db, "alice@one.com", "alice")

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "alice@two.com", "password": "secret123",
	})
	requireStatus(t, w, http.StatusOK)

	var reg struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeData(t, w, &reg)
	assert.Equal(t, "alice_1", reg.User.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	r, db := newTestEnv(t)
	seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong-pass",
	})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, 40106, decodeEnvelope(t, w).Code)

	// Unknown email answers the same way as a wrong password.
	w = doRequest(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "nobody@example.com", "password": "whatever1",
	})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, 40106, decodeEnvelope(t, w).Code)
}

func TestMeRequiresAuth(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodGet, "/api/v1/auth/me", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)

	w = doRequest(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	requireStatus(t, w, http.StatusOK)

	var me struct {
		Username string `json:"username"`
	}
	decodeData(t, w, &me)
	assert.Equal(t, "alice", me.Username)
}

func TestLogoutRevokesToken(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	requireStatus(t, w, http.StatusOK)

	w = doRequest(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	r, db := newTestEnv(t)
	user, token := seedUser(t, db, "alice@example.com", "alice")

	w := doRequest(t, r, http.MethodPatch, "/api/v1/auth/profile", token, gin.H{
		"username": "gardener",
	})
	requireStatus(t, w, http.StatusOK)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.Equal(t, "gardener", fresh.Username)
}

func TestUpdateProfileValidation(t *testing.T) {
	r, db := newTestEnv(t)
	_, token := seedUser(t, db, "alice@example.com", "alice")
	seedUser(t, db, "bob@example.com", "bob")

	// Too short after trimming.
	w := doRequest(t, r, http.MethodPatch, "/api/v1/auth/profile", token, gin.H{
		"username": " a ",
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 40031, decodeEnvelope(t, w).Code)

	// Taken by another account.
	w = doRequest(t, r, http.MethodPatch, "/api/v1/auth/profile", token, gin.H{
		"username": "bob",
	})
	requireStatus(t, w, http.StatusConflict)
	assert.Equal(t, 40902, decodeEnvelope(t, w).Code)

	// Re-submitting one's own name is fine.
	w = doRequest(t, r, http.MethodPatch, "/api/v1/auth/profile", token, gin.H{
		"username": "alice",
	})
	requireStatus(t, w, http.StatusOK)
}

func TestPasswordResetFlow(t *testing.T) {
	r, db := newTestEnv(t)
	user, _ := seedUser(t, db, "alice@example.com", "alice")

	// Seed the code directly; mail delivery is not under test.
	utils.SaveResetCode("alice@example.com", "424242", time.Minute)

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/reset/confirm", "", gin.H{
		"email": "alice@example.com", "code": "424242", "new_password": "newsecret1",
	})
	requireStatus(t, w, http.StatusOK)

	var fresh models.User
	require.NoError(t, db.First(&fresh, user.ID).Error)
	assert.True(t, utils.CheckPassword(fresh.PasswordHash, "newsecret1"))

	// The code is single use.
	w = doRequest(t, r, http.MethodPost, "/api/v1/auth/reset/confirm", "", gin.H{
		"email": "alice@example.com", "code": "424242", "new_password": "another1",
	})
	requireStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, 40043, decodeEnvelope(t, w).Code)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	r, _ := newTestEnv(t)

	w := doRequest(t, r, http.MethodPost, "/api/v1/auth/reset/request", "", gin.H{
		"email": "ghost@example.com",
	})
	requireStatus(t, w, http.StatusOK)
}
