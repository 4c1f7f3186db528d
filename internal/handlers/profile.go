package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blognest/api/internal/httpx"
	"blognest/api/internal/service"
)

type updateProfileRequest struct {
	UserName string `json:"userName" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.RespondError(c, httpx.BadRequest("all fields are required"))
		return
	}

	updated, err := h.profile.UpdateProfile(c.Request.Context(), user.ID, service.ProfileUpdateInput{
		UserName: req.UserName,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, gin.H{"user": updated}, "User updated successfully")
}

func (h HandlerSet) UpdateAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	file, header := formFile(c, "avatar")
	if file == nil {
		httpx.RespondError(c, httpx.BadRequest("avatar is required"))
		return
	}
	defer file.Close()

	updated, err := h.profile.UpdateAvatar(c.Request.Context(), user.ID, file, header)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, gin.H{"user": updated}, "Avatar updated successfully")
}

func (h HandlerSet) UpdateCoverImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	file, header := formFile(c, "coverImage")
	if file == nil {
		httpx.RespondError(c, httpx.BadRequest("cover image is required"))
		return
	}
	defer file.Close()

	updated, err := h.profile.UpdateCoverImage(c.Request.Context(), user.ID, file, header)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, gin.H{"user": updated}, "Cover image updated successfully")
}

func (h HandlerSet) ChannelProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	profile, err := h.profile.ChannelProfile(c.Request.Context(), c.Param("userName"), user.ID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, profile, "Channel fetched successfully")
}

func (h HandlerSet) Subscribe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	if err := h.profile.Subscribe(c.Request.Context(), user.ID, c.Param("userName")); err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusCreated, gin.H{}, "Subscribed successfully")
}

func (h HandlerSet) Unsubscribe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		httpx.RespondError(c, httpx.Unauthorized("unauthorized request"))
		return
	}

	if err := h.profile.Unsubscribe(c.Request.Context(), user.ID, c.Param("userName")); err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, gin.H{}, "Unsubscribed successfully")
}
