package handler

import (
	"errors"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/config"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/handler/middleware"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/ratelimit"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/service"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/session"
	"github.com/gofiber/fiber/v2"
)

// BodyLimit admits a full-size avatar plus multipart framing.
const BodyLimit = service.MaxAvatarSize + 1<<20

// Dependencies is everything the HTTP layer needs from the rest of the process.
type Dependencies struct {
	Config   *config.Config
	Logger   logger.Logger
	Sessions *session.Manager
	Limits   ratelimit.Store
	Auth     *service.AuthService
	Tweets   *service.TweetService
	Likes    *service.LikeService
	Profiles *service.ProfileService
	Checks   map[string]Check
}

// NewApp builds the fiber app with middleware, health endpoints and the
// API route table.
func NewApp(deps Dependencies) *fiber.App {
	cfg := deps.Config
	log := deps.Logger

	app := fiber.New(fiber.Config{
		AppName:               "Tweeter",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             BodyLimit,
	})

	app.Use(middleware.RecoveryMiddleware(log))
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.CORSMiddleware(cfg))

	dispatcher := NewDispatcher(log)
	RegisterAPI(
		dispatcher,
		NewAuthHandler(deps.Auth, deps.Sessions, deps.Limits, cfg, log),
		NewTweetHandler(deps.Tweets, deps.Sessions, deps.Limits, log),
		NewLikeHandler(deps.Likes, deps.Sessions),
		NewProfileHandler(deps.Profiles, deps.Sessions),
	)
	SetupRoutes(app, dispatcher, NewHealthHandler(deps.Checks))

	routes := dispatcher.Routes()
	table := make([]string, 0, len(routes))
	for _, r := range routes {
		table = append(table, r.Method+" "+r.Pattern)
	}
	log.Info("api routes registered", map[string]interface{}{
		"count":  len(table),
		"routes": table,
	})

	return app
}

// errorHandler answers errors raised outside the dispatcher, such as fiber's
// own 404 and 413, with the same {error} envelope.
func errorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := msgInternal

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			log.WithError(err).Error("unhandled error", requestFields(c))
		}

		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
