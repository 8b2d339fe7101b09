package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/container"
	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/routes"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/bootstrap"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, kv store, cache, ledger)
	components, err := bootstrap.Setup(ctx, "transplantd")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap transplantd: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e)
	routes.RegisterQueueRoutes(e, serviceContainer)

	// Start with graceful shutdown
	srv := server.New("transplantd", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "transplantd",
		})
	})
}
