package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/timeline"
	"github.com/seedlog/seedlog/utils"
)

// seedsPerFlower is the conversion threshold for the garden counter.
const seedsPerFlower = 7

// GardenController manages the seed and flower counters. At most one seed
// can be collected per local calendar day; the rollover from seeds to
// flowers happens inside the collect transaction.
type GardenController struct {
	db *gorm.DB
}

func NewGardenController(db *gorm.DB) *GardenController {
	return &GardenController{db: db}
}

// Status reports the caller's counters and whether today's seed is still
// uncollected in the caller's timezone.
func (g *GardenController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	loc := resolveLocation(ctx)

	var user models.User
	if err := g.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load garden status")
		return
	}

	today := timeline.TodayKey(loc)
	utils.Success(ctx, gin.H{
		"seeds":             user.Seeds,
		"flowers":           user.Flowers,
		"seeds_per_flower":  seedsPerFlower,
		"last_collected":    user.LastCollected,
		"collectible_today": user.LastCollected != today,
		"today":             today,
	})
}

// Collect grants today's seed. The row lock plus the unique day ledger make
// the operation idempotent: a repeat call for the same local day is a no-op
// that reports collected=false with unchanged counters.
func (g *GardenController) Collect(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	loc := resolveLocation(ctx)
	today := timeline.TodayKey(loc)

	var user models.User
	collected := false

	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userID).Error; err != nil {
			return err
		}

		if user.LastCollected == today {
			return nil
		}

		user.Seeds++
		if user.Seeds >= seedsPerFlower {
			user.Flowers += user.Seeds / seedsPerFlower
			user.Seeds = user.Seeds % seedsPerFlower
		}
		user.LastCollected = today

		ledger := models.Collection{
			UserID:       user.ID,
			CollectDate:  today,
			SeedsAfter:   user.Seeds,
			FlowersAfter: user.Flowers,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return err
		}
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		collected = true
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to collect seed")
		return
	}

	utils.Success(ctx, gin.H{
		"collected": collected,
		"seeds":     user.Seeds,
		"flowers":   user.Flowers,
		"today":     today,
	})
}

// History lists the caller's collection ledger, most recent day first.
func (g *GardenController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var rows []models.Collection
	if err := g.db.Where("user_id = ?", userID).
		Order("collect_date DESC").Limit(90).Find(&rows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load collection history")
		return
	}

	utils.Success(ctx, gin.H{"items": rows})
}
