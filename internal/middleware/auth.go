package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"blognest/api/internal/httpx"
	"blognest/api/internal/repository"
	"blognest/api/internal/security"
)

const (
	// CurrentUserKey holds the authenticated models.User in the gin context.
	CurrentUserKey = "current_user"

	accessTokenCookie = "accessToken"
)

// Auth verifies the access token from the accessToken cookie or the
// Authorization header and attaches the caller's user record to the context.
func Auth(tokens *security.TokenIssuer, users repository.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := accessTokenFromRequest(c)
		if tokenStr == "" {
			httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
			return
		}

		claims, err := tokens.VerifyAccess(tokenStr)
		if err != nil {
			httpx.RespondError(c, httpx.Unauthorized("invalid access token"))
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			httpx.RespondError(c, httpx.Unauthorized("invalid access token"))
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

func accessTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
