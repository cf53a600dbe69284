package middleware

import (
	"time"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// LoggerMiddleware logs one line per completed request.
func LoggerMiddleware(log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := map[string]interface{}{
			"method":    c.Method(),
			"path":      c.Path(),
			"status":    c.Response().StatusCode(),
			"latencyMs": time.Since(start).Milliseconds(),
			"ip":        c.IP(),
		}
		if err != nil {
			fields["error"] = err.Error()
		}

		log.Info("request completed", fields)
		return err
	}
}
