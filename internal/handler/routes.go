package handler

import (
	"github.com/MartyBonacci/tweeter-gdg-1/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// RegisterAPI fills the route table. Order matters: the first registered
// route that matches wins, so /api/profile/me precedes /api/profile/:username.
func RegisterAPI(
	d *Dispatcher,
	authHandler *AuthHandler,
	tweetHandler *TweetHandler,
	likeHandler *LikeHandler,
	profileHandler *ProfileHandler,
) {
	// Auth
	d.Handle(fiber.MethodPost, "/api/auth/signup", authHandler.Signup)
	d.Handle(fiber.MethodPost, "/api/auth/login", authHandler.Login)
	d.Handle(fiber.MethodPost, "/api/auth/logout", authHandler.Logout)
	d.Handle(fiber.MethodGet, "/api/auth/verify-email", authHandler.VerifyEmail)

	// Tweets
	d.Handle(fiber.MethodPost, "/api/tweets", tweetHandler.Create)
	d.Handle(fiber.MethodGet, "/api/tweets", tweetHandler.Feed)
	d.Handle(fiber.MethodGet, "/api/tweets/user/:userId", tweetHandler.ListByUser)
	d.Handle(fiber.MethodDelete, "/api/tweets/:tweetId", tweetHandler.Delete)

	// Likes
	d.Handle(fiber.MethodPost, "/api/likes/:tweetId", likeHandler.Toggle)
	d.Handle(fiber.MethodGet, "/api/likes/:tweetId", likeHandler.Status)

	// Profiles
	d.Handle(fiber.MethodGet, "/api/profile/me", profileHandler.GetOwn)
	d.Handle(fiber.MethodGet, "/api/profile/:username", profileHandler.GetByUsername)
	d.Handle(fiber.MethodPatch, "/api/profile", profileHandler.Update)
	d.Handle(fiber.MethodPost, "/api/profile/avatar", profileHandler.UploadAvatar)
}

func SetupRoutes(app *fiber.App, d *Dispatcher, healthHandler *HealthHandler) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)
	app.Get("/metrics", metrics.Handler())

	// API
	app.All("/api", d.Serve)
	app.All("/api/*", d.Serve)
}
