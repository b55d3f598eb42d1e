package server

import (
	"github.com/OFFIS-RIT/claimgraph/internal/server/middleware"
	"github.com/OFFIS-RIT/claimgraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Run routes
	apiRoutes.POST("/runs", routes.CreateRunHandler)
	apiRoutes.GET("/runs/:id", routes.GetRunHandler)
	apiRoutes.GET("/runs/:id/exports", routes.GetRunExportsHandler)
}
