package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"wellnesshub/internal/bootstrap"
	"wellnesshub/internal/transport/http/handler"
	"wellnesshub/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	return NewEngine(app.Config.Auth.JWTSecret, app.Services, handler.HealthInfo{
		AppName:   app.Config.App.Name,
		Env:       app.Config.App.Env,
		StartedAt: app.StartedAt,
		Checks:    healthChecks(app),
	}, app.Logger)
}

// NewEngine mounts every route on a fresh engine.
func NewEngine(jwtSecret string, services bootstrap.Services, health handler.HealthInfo, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLogger(log), gin.Recovery())

	healthHandler := handler.NewHealthHandler(health)
	authHandler := handler.NewAuthHandler(services.Auth, log)
	sessionHandler := handler.NewSessionHandler(services.Sessions, log)
	assetHandler := handler.NewAssetHandler(services.Assets, log)
	requireAuth := middleware.AuthJWT(jwtSecret)

	router.GET("/healthz", healthHandler.Check)

	api := router.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	sessions := api.Group("/sessions")
	sessions.GET("", sessionHandler.ListPublished)

	mine := sessions.Group("")
	mine.Use(requireAuth)
	mine.GET("/my-sessions", sessionHandler.ListMine)
	mine.GET("/my-sessions/:id", sessionHandler.Get)
	mine.DELETE("/my-sessions/:id", sessionHandler.Delete)
	mine.POST("/my-sessions/save-draft", sessionHandler.SaveDraft)
	mine.POST("/my-sessions/publish", sessionHandler.Publish)
	mine.POST("/my-sessions/upload", assetHandler.Upload)
	mine.POST("", sessionHandler.Create)
	mine.GET("/:id", sessionHandler.Get)
	mine.PATCH("/:id", sessionHandler.Update)
	mine.DELETE("/:id", sessionHandler.Delete)

	return router
}

func healthChecks(app *bootstrap.App) []handler.DependencyCheck {
	var checks []handler.DependencyCheck
	if app.SQL != nil {
		checks = append(checks, handler.DependencyCheck{Name: app.Config.Storage.Driver, Check: func(ctx context.Context) error {
			sqlDB, err := app.SQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	if app.MongoClient != nil {
		checks = append(checks, handler.DependencyCheck{Name: "mongo", Check: func(ctx context.Context) error {
			return app.MongoClient.Ping(ctx, nil)
		}})
	}
	if app.Redis != nil {
		checks = append(checks, handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}})
	}
	if app.MQConn != nil {
		checks = append(checks, handler.DependencyCheck{Name: "rabbitmq", Check: func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}})
	}
	if app.Objects != nil {
		checks = append(checks, handler.DependencyCheck{Name: "s3", Check: app.Objects.Ping})
	}
	return checks
}
