package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/seedlog/seedlog/models"
	"github.com/seedlog/seedlog/utils"
)

const (
	tokenLifetime = 72 * time.Hour

	usernameMinRunes = 2
	usernameMaxRunes = 20
)

// AuthController handles sign-up, sign-in, sign-out, profile and password
// reset endpoints.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates an account from email + password and provisions its
// profile. The display name defaults to the email local part, made unique
// with numeric suffixes; the user can change it later via UpdateProfile.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid email address")
		return
	}

	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Username:     a.ensureUniqueUsername(defaultUsername(email)),
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  profileResponse(user),
	})
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  profileResponse(user),
	})
}

// Logout invalidates the token by blacklisting it until expiration, so the
// auth gate rejects it even before its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenLifetime)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	utils.Success(ctx, profileResponse(user))
}

// UpdateProfile changes the display name. Names are 2-20 runes and unique
// across all identities; a taken name rejects the save and leaves the stored
// name unchanged.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	name := utils.SanitizeStrict(strings.TrimSpace(req.Username))
	if l := len([]rune(name)); l < usernameMinRunes || l > usernameMaxRunes {
		utils.Error(ctx, http.StatusBadRequest, 40031, "display name must be 2-20 characters")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	if name != user.Username {
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ? AND id <> ?", name, user.ID).Count(&count).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to check display name")
			return
		}
		if count > 0 {
			utils.Error(ctx, http.StatusConflict, 40902, "name already in use")
			return
		}
		user.Username = name
		if err := a.db.Save(&user).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
			return
		}
		utils.InvalidateByPrefix("cache:feed:")
	}

	utils.Success(ctx, profileResponse(user))
}

// RequestPasswordReset emails a one-time code to an existing account. The
// response never reveals whether the email is registered.
func (a *AuthController) RequestPasswordReset(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid email address")
		return
	}

	if !utils.EmailCooldownTrySet(email, 60*time.Second) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "please wait before requesting another code")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		// Unknown address: answer as if a code was sent.
		utils.Success(ctx, gin.H{"message": "reset code sent"})
		return
	}

	code := utils.GenerateResetCode(6)
	body := fmt.Sprintf("Your password reset code is: %s\nIt expires in 10 minutes.", code)
	if err := utils.SendMail(email, "Seedlog password reset", body); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("reset mail to %s failed: %v", email, err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to send reset code")
		return
	}
	utils.SaveResetCode(email, code, 10*time.Minute)

	utils.Success(ctx, gin.H{"message": "reset code sent"})
}

// ConfirmPasswordReset verifies + consumes a reset code and stores the new
// password hash.
func (a *AuthController) ConfirmPasswordReset(ctx *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.VerifyAndConsumeResetCode(email, strings.TrimSpace(req.Code)) {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid or expired code")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "user not found")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to hash password")
		return
	}
	user.PasswordHash = hash
	if err := a.db.Save(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to update password")
		return
	}

	utils.Success(ctx, gin.H{"message": "password updated"})
}

// defaultUsername derives a display-name candidate from the email local
// part, keeping only a safe character subset and the 2-20 rune bounds.
func defaultUsername(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		local = email[:at]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if rs := []rune(name); len(rs) > usernameMaxRunes {
		name = string(rs[:usernameMaxRunes])
	}
	if len([]rune(name)) < usernameMinRunes {
		name = "journal"
	}
	return name
}

// ensureUniqueUsername appends numeric suffixes until the candidate is free.
func (a *AuthController) ensureUniqueUsername(base string) string {
	candidate := base
	suffix := 1
	for {
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return candidate
		}
		if count == 0 {
			return candidate
		}
		// Trim the base so candidate stays within the name length cap.
		trimmed := base
		tail := fmt.Sprintf("_%d", suffix)
		if rs := []rune(base); len(rs)+len(tail) > usernameMaxRunes {
			trimmed = string(rs[:usernameMaxRunes-len(tail)])
		}
		candidate = trimmed + tail
		suffix++
	}
}

func validEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}

func profileResponse(user models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"email":          user.Email,
		"username":       user.Username,
		"seeds":          user.Seeds,
		"flowers":        user.Flowers,
		"last_collected": user.LastCollected,
		"created_at":     user.CreatedAt,
	}
}
