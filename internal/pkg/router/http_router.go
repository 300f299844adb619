package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/FlorianWeber/FitFox/app/controllers"
	"github.com/FlorianWeber/FitFox/internal/pkg/constants"
)

type HttpRouter struct {
}

// InstallRouter registers the public surface: health probe, account
// registration/login, OAuth callbacks and the Apple Health export flow.
// Callbacks arrive from provider redirects and carry no API key; the state
// parameter (or the export ticket) is the only correlation to a user.
func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, controllers.HandleHealth)

	app.Post("/register", controllers.HandleRegister)
	app.Post("/login", controllers.HandleLogin)

	app.Get(constants.TrackerCallbackRoute, controllers.HandleTrackerCallback)
	app.Get("/connect/apple-health", controllers.HandleAppleHealthConnect)
	app.Post(constants.ExportUploadRoute, controllers.HandleAppleHealthUpload)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
