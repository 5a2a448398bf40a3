package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/bandweather/internal/bandsync"
	"github.com/i474232898/bandweather/internal/controller"
)

var validate = validator.New()

// Controller is the part of controller.Controller the routes drive.
type Controller interface {
	RunSync(ctx context.Context) bandsync.Status
	AddTile(ctx context.Context) bandsync.Status
	RemoveTile(ctx context.Context) bandsync.Status
	Snapshot(ctx context.Context) controller.Snapshot
	SetUseAlternateSource(ctx context.Context, enabled bool) error
	UseAlternateSource(ctx context.Context) (bool, error)
}

type AppConfig struct {
	Name         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp returns a Fiber app with JSON error responses and panic recovery.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, name string, ctrl Controller) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": name,
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(ctrl.Snapshot(c.UserContext()))
	})

	v1.Post("/sync", func(c *fiber.Ctx) error {
		return writeStatus(c, ctrl.RunSync(c.UserContext()))
	})

	v1.Post("/tile", func(c *fiber.Ctx) error {
		return writeStatus(c, ctrl.AddTile(c.UserContext()))
	})

	v1.Delete("/tile", func(c *fiber.Ctx) error {
		return writeStatus(c, ctrl.RemoveTile(c.UserContext()))
	})

	v1.Get("/settings/alternate-source", func(c *fiber.Ctx) error {
		enabled, err := ctrl.UseAlternateSource(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read setting")
		}
		return c.JSON(alternateSourceResponse{Enabled: enabled})
	})

	v1.Put("/settings/alternate-source", func(c *fiber.Ctx) error {
		var req alternateSourceRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := ctrl.SetUseAlternateSource(c.UserContext(), *req.Enabled); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save setting")
		}
		return c.JSON(alternateSourceResponse{Enabled: *req.Enabled})
	})
}

type alternateSourceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type alternateSourceResponse struct {
	Enabled bool `json:"enabled"`
}

// writeStatus maps a terminal status to a response. The body is the status
// in every case.
func writeStatus(c *fiber.Ctx, st bandsync.Status) error {
	return c.Status(statusCode(st)).JSON(st)
}

func statusCode(st bandsync.Status) int {
	if st.Busy() {
		return fiber.StatusConflict
	}

	switch st.Kind {
	case bandsync.KindSucceeded:
		return fiber.StatusOK
	case bandsync.KindNotPaired, bandsync.KindTileMissing:
		return fiber.StatusPreconditionFailed
	case bandsync.KindCancelled:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}
