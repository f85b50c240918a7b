package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/seedlog/seedlog/events"
	"github.com/seedlog/seedlog/middleware"
	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Entry{}, &models.Collection{}))
	return db
}

// newTestRouter mirrors the production route layout minus rate limiting and
// access logging, which only add noise under test.
func newTestRouter(db *gorm.DB, hub *events.Hub) *gin.Engine {
	r := gin.New()

	authController := NewAuthController(db)
	entryController := NewEntryController(db, hub)
	journalController := NewJournalController(db)
	gardenController := NewGardenController(db)
	feedController := NewFeedController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/reset/request", authController.RequestPasswordReset)
	authGroup.POST("/reset/confirm", authController.ConfirmPasswordReset)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.GET("/feed", feedController.Feed)
	protected.GET("/feed/users/:username", feedController.UserFeed)
	protected.POST("/entries", entryController.Create)
	protected.GET("/entries", entryController.List)
	protected.GET("/entries/trash", entryController.Trash)
	protected.GET("/entries/stream", entryController.Stream)
	protected.GET("/entries/:id", entryController.Get)
	protected.PATCH("/entries/:id", entryController.Update)
	protected.PATCH("/entries/:id/details", entryController.UpdateDetails)
	protected.DELETE("/entries/:id", entryController.SoftDelete)
	protected.POST("/entries/:id/restore", entryController.Restore)
	protected.DELETE("/entries/:id/purge", entryController.Purge)
	protected.GET("/journal/days", journalController.Days)
	protected.GET("/journal/calendar", journalController.Calendar)
	protected.GET("/garden/status", gardenController.Status)
	protected.POST("/garden/collect", gardenController.Collect)
	protected.GET("/garden/history", gardenController.History)

	return r
}

func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return newTestRouter(db, events.NewHub()), db
}

// tokenSeq makes each seeded token's expiry unique. Claims have
// second-granularity timestamps, so two tokens for the same identity minted in
// the same second are byte-identical — and the token blacklist is process-wide,
// so a logout in one test would revoke an identical token in a later test.
var tokenSeq atomic.Int64

func seedUser(t *testing.T, db *gorm.DB, email, username string) (models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	user := models.User{Email: email, PasswordHash: hash, Username: username}
	require.NoError(t, db.Create(&user).Error)

	token, err := utils.GenerateToken(user.ID, user.Username,
		time.Hour+time.Duration(tokenSeq.Add(1))*time.Second)
	require.NoError(t, err)
	return user, token
}

func seedEntry(t *testing.T, db *gorm.DB, userID uint, content string, createdAt time.Time, mutate ...func(*models.Entry)) models.Entry {
	t.Helper()
	entry := models.Entry{UserID: userID, Content: content, CreatedAt: createdAt}
	for _, m := range mutate {
		m(&entry)
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope is the standard JSON response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, out), "data: %s", string(env.Data))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}

func entryPath(id string, suffix ...string) string {
	p := "/api/v1/entries/" + id
	for _, s := range suffix {
		p += s
	}
	return p
}
