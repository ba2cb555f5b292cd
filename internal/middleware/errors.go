package middleware

import (
	"errors"

	"unnest/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ErrorStatus converts handler errors into *fiber.Error carrying the status
// the client will get. It must sit inside the access log, metrics and
// tracing middleware, which only read the status off *fiber.Error.
func ErrorStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		return fiber.NewError(models.StatusFor(err), err.Error())
	}
}
