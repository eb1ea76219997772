// Package api is the HTTP surface: gin routing, request binding and error rendering.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/acquaintance/internal/app"
	"github.com/oggyb/acquaintance/internal/service/account"
	"github.com/oggyb/acquaintance/internal/service/likes"
	"github.com/oggyb/acquaintance/internal/service/users"
)

// NewRouter wires services from appCtx into a gin engine.
//
// Routes:
//   - POST /auth/register, POST /auth/login (public, login is rate limited)
//   - GET /users, GET|PUT /users/:id, POST /users/:id/like/:recipientId,
//     GET /users/:id/matches (bearer token required)
//   - GET|HEAD /health
func NewRouter(appCtx *app.AppContext) *gin.Engine {
	InitValidation()
	if appCtx.Config.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	usersSvc := users.NewUsersService(appCtx)
	authHandler := NewAuthHandler(account.NewAccountService(appCtx), appCtx.Now)
	userHandler := NewUserHandler(usersSvc, likes.NewLikesService(appCtx), appCtx.Now)

	router := gin.New()
	router.Use(
		RequestID(appCtx.Logger),
		AccessLog(),
		gin.Recovery(),
		CORS(appCtx.Config),
	)

	healthHandler := func(c *gin.Context) {
		sqlDB, err := appCtx.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login",
			LoginRateLimit(appCtx.RedisCache, appCtx.Config.RateLimit.LoginAttempts, appCtx.Config.RateLimit.LoginWindow),
			authHandler.Login,
		)
	}

	usersGroup := router.Group("/users")
	usersGroup.Use(RequireAuth(appCtx.Issuer), Activity(usersSvc))
	{
		usersGroup.GET("", userHandler.ListUsers)
		usersGroup.GET("/:id", userHandler.GetUser)
		usersGroup.PUT("/:id", userHandler.UpdateUser)
		usersGroup.POST("/:id/like/:recipientId", userHandler.LikeUser)
		usersGroup.GET("/:id/matches", userHandler.Matches)
	}

	return router
}
