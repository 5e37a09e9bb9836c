package http

import (
	"github.com/LerianStudio/lib-transactor/transactor"
	"github.com/LerianStudio/lib-transactor/transactor/runtime"
	"github.com/gofiber/fiber/v2"
)

const recoverComponent = "http"

// WithRecover turns a handler panic into a 500 response. The panic is logged
// through the request logger, counted and recorded on the active span.
func WithRecover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				ctx := c.UserContext()

				runtime.HandlePanicValue(ctx, transactor.NewLoggerFromContext(ctx), r, recoverComponent, c.Method()+" "+c.Path())

				err = InternalServerError(c)
			}
		}()

		return c.Next()
	}
}
