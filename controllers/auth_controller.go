package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/cache"
	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/utils"
)

// AuthController handles signup, login and logout.
type AuthController struct {
	users *services.UserService
	store cache.Store
}

// NewAuthController creates an AuthController; store keeps revoked tokens.
func NewAuthController(users *services.UserService, store cache.Store) *AuthController {
	return &AuthController{users: users, store: store}
}

type credentials struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	Next     string `form:"next" json:"next"`
}

// Signup registers a new account.
func (a *AuthController) Signup(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Invalid(ctx, 40001, gin.H{"form": gin.H{"username": req.Username}}, bindErrors(err))
		return
	}

	user, err := a.users.Register(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			utils.Invalid(ctx, 40002, gin.H{"form": gin.H{"username": req.Username}}, services.FieldErrors{"username": err.Error()})
			return
		}
		if fields, ok := services.AsValidation(err); ok {
			utils.Invalid(ctx, 40001, gin.H{"form": gin.H{"username": req.Username}}, fields)
			return
		}
		respondError(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"user": userResponse(*user)})
}

// Login issues a token as JSON and as the token cookie. A safe next parameter turns the reply into a redirect.
func (a *AuthController) Login(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Invalid(ctx, 40003, gin.H{"form": gin.H{"username": req.Username}}, bindErrors(err))
		return
	}

	user, err := a.users.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, err.Error())
			return
		}
		respondError(ctx, err)
		return
	}

	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", false, true)

	next := req.Next
	if next == "" {
		next = ctx.Query("next")
	}
	if target, ok := middleware.SafeNext(next); ok {
		utils.Redirect(ctx, target)
		return
	}

	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       userResponse(*user),
	})
}

// Logout revokes the current token until it would have expired and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token := ctx.GetString(middleware.ContextTokenKey); token != "" {
		expiresAt := time.Now().Add(time.Duration(config.Get().TokenTTLHours) * time.Hour)
		if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
			if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
		}
		utils.BlacklistToken(ctx.Request.Context(), a.store, token, expiresAt)
	}
	ctx.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me describes the requester.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.users.GetByUsername(ctx.Request.Context(), middleware.CurrentUsername(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"user": userResponse(*user)})
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"is_admin":   middleware.IsAdmin(user.Username),
	}
}
