package router

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/FlorianWeber/FitFox/app/controllers"
	"github.com/FlorianWeber/FitFox/internal/pkg/env"
	"github.com/FlorianWeber/FitFox/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage: redis.New(redis.Config{
			URL: fmt.Sprintf("redis://%s:%s/1", env.GetEnv("CACHE_HOST", "localhost"), env.GetEnv("CACHE_PORT", "6379")),
		}),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes, all behind API key auth
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	v1.Get("/user/account", controllers.HandleGetUserAccount)

	v1.Get("/trackers", controllers.HandleTrackerList)
	v1.Get("/trackers/:service/auth-url", controllers.HandleTrackerAuthURL)
	v1.Post("/trackers/:service/sync", controllers.HandleTrackerSync)
	v1.Delete("/trackers/:service", controllers.HandleTrackerDisconnect)
	v1.Get("/trackers/:service/data/:dataType", controllers.HandleTrackerData)
	v1.Get("/trackers/:service/data/:dataType/history", controllers.HandleTrackerHistory)

	v1.Post("/sync-all", controllers.HandleSyncAll)
	v1.Get("/sync-status", controllers.HandleSyncStatus)

	v1.Get("/dashboard", controllers.HandleDashboard)
	v1.Get("/notifications", controllers.HandleNotificationList)
	v1.Post("/notifications/:id/read", controllers.HandleNotificationRead)

	v1.Post("/system/activate-all", controllers.HandleActivateAll)
	v1.Post("/system/initialize", controllers.HandleInitialize)

	// Administrative surface
	admin := v1.Group("/system", middleware.AdminOnlyMiddleware())
	admin.Post("/test-all", controllers.HandleTestAll)
	admin.Post("/keys/:capability/force", controllers.HandleForceKeyGroup)
	admin.Get("/stats", controllers.HandleSystemStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
