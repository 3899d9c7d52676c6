package main

import (
	"context"
	"strings"

	"github.com/Abraxas-365/inferq/pkg/jobx/jobxapi"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func newApp(c *Container) *fiber.App {
	sc := c.Config.Server

	app := fiber.New(fiber.Config{
		AppName:               c.Config.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          jobxapi.ErrorHandler,
		BodyLimit:             sc.BodyLimit,
		ReadTimeout:           sc.ReadTimeout,
		WriteTimeout:          sc.WriteTimeout,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: !c.Config.IsProduction(),
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  sc.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	c.Handlers.RegisterRoutes(app)
	app.Use(jobxapi.NotFound)

	return app
}

// runServer serves until ctx is cancelled, then drains open requests.
func runServer(ctx context.Context, c *Container) error {
	app := newApp(c)
	addr := c.Config.Server.Addr()

	errc := make(chan error, 1)
	go func() {
		logx.Info(strings.Repeat("=", 60))
		logx.Infof("🚀 Server listening on %s", addr)
		logx.Infof("💚 Health Check: http://localhost%s/health", addr)
		logx.Info(strings.Repeat("=", 60))
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logx.Info("🛑 Shutting down server gracefully...")
	if err := app.ShutdownWithTimeout(c.Config.Server.ShutdownTimeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
		return err
	}
	return nil
}
