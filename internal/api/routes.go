package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/usecase"
)

// InitRoutes wires the edge admin surface onto an echo instance. The
// surface is read-only: it never triggers a capture, it only reports on
// the pipeline.
func InitRoutes(e *echo.Echo, pipeline *usecase.CapturePipeline, logger *zap.Logger) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ok",
			Service: "sitewatch-edge",
		})
	})

	e.GET("/status", func(c echo.Context) error {
		identity := pipeline.Identity()
		return c.JSON(http.StatusOK, StatusResponse{
			CompanyID:   identity.CompanyID,
			DeviceID:    identity.DeviceID,
			Busy:        pipeline.Busy(),
			LastTrigger: pipeline.LastOutcome(),
		})
	})

	logger.Info("admin routes registered")
}
