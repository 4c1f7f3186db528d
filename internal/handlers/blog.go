package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blognest/api/internal/httpx"
	"blognest/api/internal/service"
)

type addCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

func (h HandlerSet) AddPostCategory(c *gin.Context) {
	var req addCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.RespondError(c, httpx.BadRequest("category is required"))
		return
	}

	category, err := h.blog.AddCategory(c.Request.Context(), req.Category)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusCreated, category, "Category added successfully")
}

func (h HandlerSet) GetPostCategories(c *gin.Context) {
	categories, err := h.blog.ListCategories(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, categories, "Categories found successfully")
}

type addPostRequest struct {
	Title   string `json:"title" binding:"required"`
	Picture string `json:"picture" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h HandlerSet) AddPost(c *gin.Context) {
	var req addPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.RespondError(c, httpx.BadRequest("all fields are required"))
		return
	}

	post, err := h.blog.AddPost(c.Request.Context(), service.PostInput{
		Title:   req.Title,
		Picture: req.Picture,
		Content: req.Content,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusCreated, post, "Post created successfully")
}

func (h HandlerSet) GetAllPosts(c *gin.Context) {
	posts, err := h.blog.ListPosts(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	httpx.Respond(c, http.StatusOK, posts, "Blogs found successfully")
}
