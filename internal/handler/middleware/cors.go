package middleware

import (
	"github.com/MartyBonacci/tweeter-gdg-1/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSMiddleware allows the configured front-end origins to call the API
// with the session cookie. Credentials are never allowed for a wildcard.
func CORSMiddleware(cfg *config.Config) fiber.Handler {
	origins := cfg.Server.AllowOrigins
	if origins == "" {
		origins = "*"
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: origins != "*",
	})
}
