package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"blognest/api/internal/httpx"
	"blognest/api/internal/service"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

func (h HandlerSet) RegisterUser(c *gin.Context) {
	avatar, avatarMeta := formFile(c, "avatar")
	cover, coverMeta := formFile(c, "coverImage")
	if avatar != nil {
		defer avatar.Close()
	}
	if cover != nil {
		defer cover.Close()
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		UserName:   c.PostForm("userName"),
		Email:      c.PostForm("email"),
		FullName:   c.PostForm("fullName"),
		Password:   c.PostForm("password"),
		Avatar:     avatar,
		AvatarMeta: avatarMeta,
		Cover:      cover,
		CoverMeta:  coverMeta,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusCreated, user, "User registered successfully")
}

type loginRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.RespondError(c, httpx.BadRequest("email or username and password are required"))
		return
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.UserName
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Identifier: identifier,
		Password:   req.Password,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	httpx.Respond(c, http.StatusOK, gin.H{
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "User logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	// Cookie first, body field as fallback.
	presented, _ := c.Cookie(refreshTokenCookie)
	if presented == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	result, err := h.auth.Refresh(c.Request.Context(), presented)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	httpx.Respond(c, http.StatusOK, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "Access token refreshed")
}

func (h HandlerSet) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.clearAuthCookies(c)
	httpx.Respond(c, http.StatusOK, gin.H{}, "Logged out successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.RespondError(c, httpx.BadRequest("old and new passwords are required"))
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h HandlerSet) CurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	httpx.Respond(c, http.StatusOK, gin.H{"user": user.Public()}, "User fetched successfully")
}

// setAuthCookies writes both token cookies with explicit attributes: httpOnly,
// secure, SameSite=Strict and a max age matching each token's TTL.
func (h HandlerSet) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, accessToken, int(h.tokens.AccessTTL().Seconds()), "/", h.cfg.Security.CookieDomain, true, true)
	c.SetCookie(refreshTokenCookie, refreshToken, int(h.tokens.RefreshTTL().Seconds()), "/", h.cfg.Security.CookieDomain, true, true)
}

func (h HandlerSet) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", h.cfg.Security.CookieDomain, true, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", h.cfg.Security.CookieDomain, true, true)
}

func formFile(c *gin.Context, field string) (multipart.File, *multipart.FileHeader) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, nil
	}
	return file, header
}
