package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"useraccounts/internal/config"
	"useraccounts/internal/events"
	"useraccounts/internal/middleware"
	"useraccounts/internal/models"
	"useraccounts/internal/repository"
	"useraccounts/internal/security"
	"useraccounts/internal/service"
)

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	tokens  *security.TokenIssuer
	users   *service.UserService
	avatars *service.AvatarService
	store   repository.UserStore
	cache   *redis.Client
}

// NewHandlerSet wires the services behind the HTTP API. cache and avatars may
// be nil: events are then dropped and avatar uploads answer 503.
func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, store repository.UserStore, cache *redis.Client, avatars service.AvatarStore) HandlerSet {
	registerValidatorTagNames()

	var publisher service.EventPublisher
	if cache != nil {
		publisher = events.NewPublisher(cache, cfg.Events, log)
	}

	return HandlerSet{
		log:     log,
		cfg:     cfg,
		tokens:  security.NewTokenIssuer(cfg.Security),
		users:   service.NewUserService(store, publisher, log),
		avatars: service.NewAvatarService(store, avatars, publisher, cfg.Storage.MaxAvatarBytes, log),
		store:   store,
		cache:   cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		v1.POST("/registration", h.Registration)
		v1.POST("/login-user", h.Login)

		authed := v1.Group("")
		authed.Use(middleware.Auth(h.tokens, h.store))
		authed.GET("/logout-user", h.Logout)
		authed.GET("/me", h.Me)
		authed.PUT("/update-user-info", h.UpdateInfo)
		authed.PUT("/update-user-password", h.UpdatePassword)
		authed.PUT("/update-user-avatar", h.UpdateAvatar)

		admin := authed.Group("")
		admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
		admin.GET("/get-users", h.ListUsers)
		admin.PUT("/update-user-role", h.UpdateRole)
		admin.DELETE("/delete-user/:id", h.DeleteUser)
	}
}

// Test is the liveness probe kept at /test for existing clients.
func (h HandlerSet) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "API is working",
	})
}
