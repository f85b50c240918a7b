package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seedlog/seedlog/config"
	"github.com/seedlog/seedlog/middleware"
)

// getUserID reads the authenticated user id placed by the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// resolveLocation loads the viewer's IANA timezone from the tz query
// parameter, falling back to the configured default. Calendar-day grouping
// and seed collection both key off this location.
func resolveLocation(ctx *gin.Context) *time.Location {
	name := ctx.Query("tz")
	if name == "" {
		name = config.Get().DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
