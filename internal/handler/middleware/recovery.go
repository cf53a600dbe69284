package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// RecoveryMiddleware recovers from panics and returns a generic 500.
// The panic value and stack only go to the log.
func RecoveryMiddleware(log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", map[string]interface{}{
					"panic":  fmt.Sprint(r),
					"method": c.Method(),
					"path":   c.Path(),
					"stack":  string(debug.Stack()),
				})

				err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Internal server error",
				})
			}
		}()

		return c.Next()
	}
}
