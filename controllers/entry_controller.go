package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/seedlog/seedlog/events"
	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/utils"
)

// feedInvalidateQuiet is the quiet period before a burst of public-entry
// writes collapses into one feed cache invalidation.
const feedInvalidateQuiet = 600 * time.Millisecond

// EntryController manages the journal entry lifecycle: create, partial
// update, resolve/unresolve, soft delete, restore, confirmed hard delete,
// and the change stream that keeps other mounted views in sync.
type EntryController struct {
	db             *gorm.DB
	hub            *events.Hub
	feedInvalidate *utils.Debouncer
}

// NewEntryController creates an EntryController wired to the event hub.
func NewEntryController(db *gorm.DB, hub *events.Hub) *EntryController {
	return &EntryController{
		db:  db,
		hub: hub,
		feedInvalidate: utils.NewDebouncer(feedInvalidateQuiet, func() {
			utils.InvalidateByPrefix("cache:feed:")
		}),
	}
}

// Close flushes any pending cache invalidation; called on shutdown.
func (e *EntryController) Close() {
	e.feedInvalidate.Flush()
}

// Create inserts a new entry. Empty or whitespace-only content is rejected
// before any storage round-trip; the response carries the server-assigned id
// and created_at so the client can replace its optimistic placeholder.
func (e *EntryController) Create(ctx *gin.Context) {
	var req struct {
		Content  string `json:"content"`
		IsPublic bool   `json:"is_public"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "content cannot be empty")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	entry := models.Entry{
		UserID:   userID,
		Content:  content,
		IsPublic: req.IsPublic,
	}
	if err := e.db.Create(&entry).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create entry")
		return
	}

	e.broadcast(events.EntryCreated, entry, map[string]any{
		"content":    entry.Content,
		"is_public":  entry.IsPublic,
		"created_at": entry.CreatedAt,
	})
	if entry.IsPublic {
		e.feedInvalidate.Trigger()
	}

	utils.Success(ctx, gin.H{"entry": entry})
}

// List returns the caller's non-deleted entries, newest first.
// ?unresolved=true narrows to entries still marked unresolved.
func (e *EntryController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	q := e.db.Where("user_id = ? AND is_deleted = ?", userID, false).Order("created_at DESC")
	if ctx.Query("unresolved") == "true" {
		q = q.Where("is_resolved = ?", false)
	}

	var entries []models.Entry
	if err := q.Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list entries")
		return
	}

	utils.Success(ctx, gin.H{"items": entries})
}

// Get returns one entry. A foreign entry id answers 403 rather than leaking
// via 404, mirroring the inline "you do not have access" the views show.
func (e *EntryController) Get(ctx *gin.Context) {
	entry, ok := e.loadOwned(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"entry": entry})
}

// entryPatch carries a partial update; nil fields stay untouched.
type entryPatch struct {
	Content    *string `json:"content"`
	IsPublic   *bool   `json:"is_public"`
	IsResolved *bool   `json:"is_resolved"`
	DetailsMD  *string `json:"details_md"`
}

// Update applies a partial update inside a transaction: a rejected or failed
// patch leaves the stored row identical field-for-field. Last writer wins
// across concurrent edits of the same entry; there is no conflict detection.
func (e *EntryController) Update(ctx *gin.Context) {
	var req entryPatch
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	entry, ok := e.loadOwned(ctx)
	if !ok {
		return
	}

	updates := map[string]any{}
	changed := map[string]any{}

	if req.Content != nil {
		content := utils.Sanitize(strings.TrimSpace(*req.Content))
		if content == "" {
			utils.Error(ctx, http.StatusBadRequest, 40023, "content cannot be empty")
			return
		}
		updates["content"] = content
		changed["content"] = content
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
		changed["is_public"] = *req.IsPublic
	}
	if req.IsResolved != nil {
		updates["is_resolved"] = *req.IsResolved
		changed["is_resolved"] = *req.IsResolved
	}
	if req.DetailsMD != nil {
		updates["details_md"] = detailsOrNull(*req.DetailsMD)
		changed["details_md"] = updates["details_md"]
	}

	if len(updates) == 0 {
		utils.Success(ctx, gin.H{"entry": entry})
		return
	}

	if err := e.db.Model(&models.Entry{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to update entry")
		return
	}
	if err := e.db.First(&entry, "id = ?", entry.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to reload entry")
		return
	}

	e.broadcast(events.EntryUpdated, entry, changed)
	if _, ok := updates["is_public"]; ok || entry.IsPublic {
		e.feedInvalidate.Trigger()
	}

	utils.Success(ctx, gin.H{"entry": entry})
}

// UpdateDetails is the autosave path for the markdown details field. An
// empty string clears the field to NULL.
func (e *EntryController) UpdateDetails(ctx *gin.Context) {
	var req struct {
		DetailsMD string `json:"details_md"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	entry, ok := e.loadOwned(ctx)
	if !ok {
		return
	}

	value := detailsOrNull(req.DetailsMD)
	if err := e.db.Model(&models.Entry{}).Where("id = ?", entry.ID).Update("details_md", value).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to save details")
		return
	}
	if err := e.db.First(&entry, "id = ?", entry.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to reload entry")
		return
	}

	e.broadcast(events.EntryUpdated, entry, map[string]any{"details_md": value})
	if entry.IsPublic {
		e.feedInvalidate.Trigger()
	}

	utils.Success(ctx, gin.H{"entry": entry})
}

// SoftDelete hides an entry from every normal listing. Content and
// created_at are untouched; Restore undoes it exactly.
func (e *EntryController) SoftDelete(ctx *gin.Context) {
	e.setDeleted(ctx, true, events.EntryDeleted)
}

// Restore brings a soft-deleted entry back.
func (e *EntryController) Restore(ctx *gin.Context) {
	e.setDeleted(ctx, false, events.EntryRestored)
}

func (e *EntryController) setDeleted(ctx *gin.Context, deleted bool, evType events.Type) {
	entry, ok := e.loadOwned(ctx)
	if !ok {
		return
	}

	if entry.IsDeleted != deleted {
		if err := e.db.Model(&models.Entry{}).Where("id = ?", entry.ID).Update("is_deleted", deleted).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to update entry")
			return
		}
		entry.IsDeleted = deleted
		e.broadcast(evType, entry, map[string]any{"is_deleted": deleted})
		if entry.IsPublic {
			e.feedInvalidate.Trigger()
		}
	}

	utils.Success(ctx, gin.H{"entry": entry})
}

// Purge permanently destroys an entry. It refuses to act without the
// explicit confirm flag; there is no optimistic local removal to undo.
func (e *EntryController) Purge(ctx *gin.Context) {
	if ctx.Query("confirm") != "true" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "confirmation required for permanent delete")
		return
	}

	entry, ok := e.loadOwned(ctx)
	if !ok {
		return
	}

	if err := e.db.Delete(&models.Entry{}, "id = ?", entry.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete entry")
		return
	}

	e.broadcast(events.EntryPurged, entry, nil)
	if entry.IsPublic {
		e.feedInvalidate.Trigger()
	}

	utils.Success(ctx, gin.H{"message": "entry permanently deleted"})
}

// Trash lists the caller's soft-deleted entries, newest first.
func (e *EntryController) Trash(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var entries []models.Entry
	if err := e.db.Where("user_id = ? AND is_deleted = ?", userID, true).
		Order("created_at DESC").Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to list trash")
		return
	}

	utils.Success(ctx, gin.H{"items": entries})
}

// Stream delivers the caller's entry change events as server-sent events.
// Browsers reconnect automatically when the connection drops; consumers
// merge events into their cache by entry id, so duplicate delivery is safe.
func (e *EntryController) Stream(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	ch, cancel := e.hub.Subscribe(userID)
	defer cancel()

	h := ctx.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	ctx.Writer.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Request.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(ctx.Writer, "event: %s\ndata: %s\n\n", ev.Type, b)
			ctx.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(ctx.Writer, ": ping\n\n")
			ctx.Writer.Flush()
		}
	}
}

// loadOwned fetches the entry from the path id and enforces ownership,
// writing the error response itself on failure.
func (e *EntryController) loadOwned(ctx *gin.Context) (models.Entry, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return models.Entry{}, false
	}

	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		utils.Error(ctx, http.StatusBadRequest, 40026, "missing entry id")
		return models.Entry{}, false
	}

	var entry models.Entry
	if err := e.db.First(&entry, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "entry not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to load entry")
		}
		return models.Entry{}, false
	}

	if entry.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you do not have access to this entry")
		return models.Entry{}, false
	}
	return entry, true
}

func (e *EntryController) broadcast(t events.Type, entry models.Entry, fields map[string]any) {
	e.hub.Publish(events.EntryEvent{
		Type:    t,
		EntryID: entry.ID,
		UserID:  entry.UserID,
		Fields:  fields,
	})
}

// detailsOrNull maps an empty details string to NULL storage.
func detailsOrNull(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
