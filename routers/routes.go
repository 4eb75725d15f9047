// Package routers assembles the Fiber application.
package routers

import (
	"learnhub/middleware"
	"learnhub/routers/authRoutes"
	"learnhub/routers/courseRoutes"
	"learnhub/routers/gamificationRoutes"
	"learnhub/routers/notificationRoutes"
	superAdminRoutes "learnhub/routers/superAdmin"
	userProfileRoutes "learnhub/routers/userRoutes"
	"learnhub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

type Options struct {
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// NewApp builds the HTTP application over services.App.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "learnhub",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return middleware.JsonResponse(c, fe.Code, false, fe.Message, nil)
			}
			return middleware.ErrorResponse(c, services.App.Log, err)
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${locals:requestid} ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	authRoutes.SetupAuthRoutes(app)
	userProfileRoutes.SetupUserRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app)
	gamificationRoutes.SetupGamificationRoutes(app)
	notificationRoutes.SetupNotificationRoutes(app)
	superAdminRoutes.SetupSuperAdminRoutes(app)

	return app
}
