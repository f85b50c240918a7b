package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/timeline"
	"github.com/seedlog/seedlog/utils"
)

// JournalController serves the date-grouped view and the calendar heat map.
// Both accept ?tz= so grouping follows the caller's local calendar day.
type JournalController struct {
	db *gorm.DB
}

func NewJournalController(db *gorm.DB) *JournalController {
	return &JournalController{db: db}
}

type dayResponse struct {
	DateKey string         `json:"date_key"`
	Header  string         `json:"header"`
	Entries []models.Entry `json:"entries"`
}

// Days returns the caller's non-deleted entries grouped by local calendar
// day, days newest first, with display headers rendered server-side.
// ?unresolved=true narrows to unresolved entries before grouping.
func (j *JournalController) Days(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	loc := resolveLocation(ctx)

	q := j.db.Where("user_id = ? AND is_deleted = ?", userID, false)
	if ctx.Query("unresolved") == "true" {
		q = q.Where("is_resolved = ?", false)
	}

	var entries []models.Entry
	if err := q.Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load entries")
		return
	}

	days := timeline.GroupByDay(entries, loc)
	out := make([]dayResponse, 0, len(days))
	for _, d := range days {
		// Keys come out of DateKey, so the parse cannot fail here.
		header, _ := timeline.FormatHeader(d.Key)
		out = append(out, dayResponse{
			DateKey: d.Key,
			Header:  header,
			Entries: d.Entries,
		})
	}

	utils.Success(ctx, gin.H{"days": out})
}

// Calendar returns the six-by-seven month matrix for ?month=YYYY-MM,
// defaulting to the current month in the caller's timezone. Counts come
// from non-deleted entries only, keyed by local day.
func (j *JournalController) Calendar(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	loc := resolveLocation(ctx)

	month := ctx.Query("month")
	var year int
	var mon time.Month
	if month == "" {
		now := time.Now().In(loc)
		year, mon = now.Year(), now.Month()
		month = fmt.Sprintf("%04d-%02d", year, mon)
	} else {
		y, m, err := timeline.ParseMonth(month)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40032, "month must be YYYY-MM")
			return
		}
		year, mon = y, m
	}

	// The grid can spill into the neighbouring months, so count over the
	// whole 42-day window rather than the calendar month alone.
	gridStart, gridEnd := timeline.MatrixBounds(year, mon, loc)

	var entries []models.Entry
	if err := j.db.Select("id", "created_at").
		Where("user_id = ? AND is_deleted = ? AND created_at >= ? AND created_at < ?",
			userID, false, gridStart.UTC(), gridEnd.UTC()).
		Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load entries")
		return
	}

	counts := make(map[string]int, len(entries))
	for _, en := range entries {
		counts[timeline.DateKey(en.CreatedAt, loc)]++
	}

	matrix := timeline.MonthMatrix(year, mon, counts, loc)
	utils.Success(ctx, gin.H{
		"month": month,
		"weeks": matrix,
	})
}
