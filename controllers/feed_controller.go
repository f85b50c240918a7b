package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/seedlog/seedlog/config"
	"github.com/seedlog/seedlog/utils"
)

// anonymousName is shown when an author row is missing from the join.
const anonymousName = "Anonymous"

const feedCacheTTL = 30 * time.Second

// FeedController serves the community stream of public entries. Rows are
// flattened at query time so every item carries a username, never a nested
// author object, and missing authors fall back to a fixed display name.
type FeedController struct {
	db *gorm.DB
}

func NewFeedController(db *gorm.DB) *FeedController {
	return &FeedController{db: db}
}

// feedRow is the flat join shape scanned straight from the query.
type feedRow struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	DetailsMD *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Username  *string   `json:"-"`
}

type feedItem struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	DetailsHTML string    `json:"details_html,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Username    string    `json:"username"`
}

// Feed returns recent public, non-deleted entries from all users, newest
// first, capped at the configured limit. Results are cached briefly; entry
// writes invalidate the cache shortly after.
func (f *FeedController) Feed(ctx *gin.Context) {
	f.serve(ctx, "cache:feed:all", func(q *gorm.DB) *gorm.DB { return q })
}

// UserFeed returns the public entries of a single author by username.
func (f *FeedController) UserFeed(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40033, "missing username")
		return
	}
	key := "cache:feed:user:" + username
	f.serve(ctx, key, func(q *gorm.DB) *gorm.DB {
		return q.Where("users.username = ?", username)
	})
}

func (f *FeedController) serve(ctx *gin.Context, cacheKey string, scope func(*gorm.DB) *gorm.DB) {
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	limit := config.Get().FeedLimit
	q := f.db.Table("entries").
		Select("entries.id, entries.content, entries.details_md, entries.created_at, users.username").
		Joins("LEFT JOIN users ON users.id = entries.user_id").
		Where("entries.is_public = ? AND entries.is_deleted = ?", true, false).
		Order("entries.created_at DESC").
		Limit(limit)
	q = scope(q)

	var rows []feedRow
	if err := q.Scan(&rows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load feed")
		return
	}

	items := make([]feedItem, 0, len(rows))
	for _, r := range rows {
		name := anonymousName
		if r.Username != nil && *r.Username != "" {
			name = *r.Username
		}
		item := feedItem{
			ID:        r.ID,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
			Username:  name,
		}
		if r.DetailsMD != nil && *r.DetailsMD != "" {
			item.DetailsHTML = utils.RenderMarkdown(*r.DetailsMD)
		}
		items = append(items, item)
	}

	body := gin.H{
		"code":    0,
		"message": "success",
		"data":    gin.H{"items": items},
	}
	utils.CacheSetJSON(cacheKey, body, feedCacheTTL)
	ctx.JSON(http.StatusOK, body)
}

// Health answers the unauthenticated liveness probe.
func Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
