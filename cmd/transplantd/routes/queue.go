package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/container"
	"github.com/viniciusmaculo/filaTransplantesBackend/cmd/transplantd/handlers"
)

// RegisterQueueRoutes registers all waitlist queue routes
func RegisterQueueRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewQueueHandler(c)

	queues := e.Group("/transplant")
	{
		queues.POST("/:jurisdiction/:resource/create", h.CreateQueue)
		queues.GET("/:jurisdiction/:resource", h.GetQueue)
		queues.POST("/:jurisdiction/:resource", h.AppendEntry)
		queues.POST("/:jurisdiction/:resource/next/position/:pos", h.CallByPosition)
		queues.POST("/:jurisdiction/:resource/next", h.CallNext)
		queues.GET("/:jurisdiction/:resource/history", h.GetHistory)
		queues.GET("/:jurisdiction/:resource/history/:version", h.GetVersion)
	}
}
