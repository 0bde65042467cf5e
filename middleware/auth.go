package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/cache"
	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw token and its claims so logout can revoke it.
	ContextTokenKey  = "token"
	ContextClaimsKey = "claims"

	// TokenCookie carries the JWT for browser clients.
	TokenCookie = "token"
)

// Authenticate resolves the requester from a bearer token or the token cookie.
// Missing, invalid or revoked tokens leave the request anonymous.
func Authenticate(store cache.Store) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)
		if tokenString == "" {
			tokenString, _ = ctx.Cookie(TokenCookie)
		}
		if tokenString == "" {
			ctx.Next()
			return
		}

		if utils.IsTokenBlacklisted(ctx.Request.Context(), store, tokenString) {
			ctx.Next()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			ctx.Next()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentUserID returns the authenticated requester, if any.
func CurrentUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// CurrentUsername returns the authenticated requester's username, if any.
func CurrentUsername(ctx *gin.Context) string {
	return ctx.GetString(ContextUsernameKey)
}

// LoginRequired sends guests to the login page with a next parameter pointing back here.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUserID(ctx); ok {
			ctx.Next()
			return
		}
		ctx.Redirect(http.StatusFound, LoginRedirectURL(config.Get().LoginURL, ctx.Request.URL.RequestURI()))
		ctx.Abort()
	}
}

// LoginRedirectURL builds <loginURL>?next=<path>, leaving slashes readable.
func LoginRedirectURL(loginURL, next string) string {
	q := strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "next=" + q
}

// SafeNext accepts only site-relative redirect targets.
func SafeNext(next string) (string, bool) {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	return next, true
}

// AdminRequired allows only authenticated users listed in AdminUsernames.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentUserID(ctx); !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
			ctx.Abort()
			return
		}
		if !IsAdmin(CurrentUsername(ctx)) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// IsAdmin reports whether username is configured as an administrator.
func IsAdmin(username string) bool {
	if username == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), username) {
			return true
		}
	}
	return false
}
