package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/FlorianWeber/FitFox/app/controllers"
	"github.com/FlorianWeber/FitFox/app/repository"
	"github.com/FlorianWeber/FitFox/internal/pkg/activation"
	"github.com/FlorianWeber/FitFox/internal/pkg/apikeys"
	"github.com/FlorianWeber/FitFox/internal/pkg/cache"
	"github.com/FlorianWeber/FitFox/internal/pkg/credstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/dashboard"
	"github.com/FlorianWeber/FitFox/internal/pkg/database"
	"github.com/FlorianWeber/FitFox/internal/pkg/env"
	"github.com/FlorianWeber/FitFox/internal/pkg/exportstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/fitstore"
	"github.com/FlorianWeber/FitFox/internal/pkg/notify"
	"github.com/FlorianWeber/FitFox/internal/pkg/router"
	"github.com/FlorianWeber/FitFox/internal/pkg/syncer"
	"github.com/FlorianWeber/FitFox/internal/pkg/trackers"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	exports := exportstore.NewFromEnv()

	creds := credstore.New(repos.Token, repos.Fitness)
	fitness := fitstore.New(repos.Fitness)
	registry := trackers.NewRegistry(creds, exports)
	orchestrator := syncer.New(registry, creds, fitness, notify.New(repos.Notification))
	coordinator := activation.New(registry, creds, orchestrator)
	keyManager := apikeys.NewManager(apikeys.LoadGroupsFromEnv(), apikeys.NewHTTPQuotaChecker())

	controllers.InitializeTrackerController(registry, creds, fitness, orchestrator, exports)
	controllers.InitializeSystemController(coordinator, keyManager)
	controllers.InitializeDashboardController(dashboard.New(fitness, creds, dashboard.RedisCache()))

	app := fiber.New(fiber.Config{
		BodyLimit: 104857600, // 100 MiB for health export uploads
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
