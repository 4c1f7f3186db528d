package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"blognest/api/internal/config"
	"blognest/api/internal/httpx"
	"blognest/api/internal/middleware"
	"blognest/api/internal/models"
	"blognest/api/internal/repository"
	"blognest/api/internal/security"
	"blognest/api/internal/service"
)

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	auth    *service.AuthService
	profile *service.ProfileService
	blog    *service.BlogService
	tokens  *security.TokenIssuer
	users   repository.UserStore
	db      *pgxpool.Pool
	cache   *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, media service.MediaUploader, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	tokens := security.NewTokenIssuer(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.JWTAccessTTL,
		cfg.Security.JWTRefreshTTL,
	)

	return HandlerSet{
		log:     log,
		cfg:     cfg,
		auth:    service.NewAuthService(userRepo, media, tokens, log),
		profile: service.NewProfileService(userRepo, subRepo, media, cache, log),
		blog:    service.NewBlogService(postRepo, categoryRepo),
		tokens:  tokens,
		users:   userRepo,
		db:      db,
		cache:   cache,
	}
}

func (h HandlerSet) Routes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.RegisterUser)
		users.POST("/login", h.Login)
		users.POST("/refresh-token", h.Refresh)

		protected := users.Group("")
		protected.Use(middleware.Auth(h.tokens, h.users))
		protected.POST("/logout", h.Logout)
		protected.POST("/change-password", h.ChangePassword)
		protected.GET("/current-user", h.CurrentUser)
		protected.PATCH("/update-profile", h.UpdateProfile)
		protected.PATCH("/avatar", h.UpdateAvatar)
		protected.PATCH("/cover-image", h.UpdateCoverImage)
		protected.GET("/channel/:userName", h.ChannelProfile)
		protected.POST("/channel/:userName/subscribe", h.Subscribe)
		protected.DELETE("/channel/:userName/subscribe", h.Unsubscribe)
	}

	blogs := v1.Group("/blogs")
	{
		blogs.POST("/post-category", h.AddPostCategory)
		blogs.GET("/categories", h.GetPostCategories)
		blogs.POST("/new-post", h.AddPost)
		blogs.GET("/blogs", h.GetAllPosts)
	}
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(middleware.CurrentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

// respondServiceError is the single translation point from service sentinel
// errors to the HTTP error envelope.
func (h HandlerSet) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrAvatarRequired),
		errors.Is(err, service.ErrSelfSubscription):
		httpx.RespondError(c, httpx.BadRequest(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		httpx.RespondError(c, httpx.Unauthorized(err.Error()))
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrChannelNotFound),
		errors.Is(err, service.ErrNotSubscribed),
		errors.Is(err, service.ErrNoCategories),
		errors.Is(err, service.ErrNoPosts):
		httpx.RespondError(c, httpx.NotFound(err.Error()))
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrCategoryExists),
		errors.Is(err, service.ErrAlreadySubscribed):
		httpx.RespondError(c, httpx.Conflict(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		httpx.RespondError(c, httpx.Wrap(http.StatusInternalServerError, "internal server error", err))
	}
}
