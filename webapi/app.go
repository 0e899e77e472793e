// Package webapi is the HTTP transport layer: it translates inbound requests
// into ledger engine calls and engine outcomes into wire responses.
package webapi

import (
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp assembles the Fiber application with middleware and ledger routes.
func NewApp(svc *ledger.Service, cfg *config.App) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.RateLimitMax,
		Expiration: cfg.Server.RateLimitWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		},
	}))
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return SuccessResponseJSON(c, fiber.StatusOK, "System is Online", nil)
	})

	Routes(app, svc)

	return app
}
