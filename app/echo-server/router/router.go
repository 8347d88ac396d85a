package router

import (
	"net/http"

	"myPriceLab/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetExperimentRoutes(api *echo.Group, handler *rest.BanditHandler) {
	experiments := api.Group("/experiments")

	experiments.POST("/rebalance", handler.RebalanceAll)
	experiments.GET("/:id/variant", handler.SelectVariant)
	experiments.POST("/:id/rebalance", handler.Rebalance)
	experiments.GET("/:id/should-stop", handler.ShouldStop)
	experiments.GET("/:id/metrics", handler.Metrics)
	experiments.GET("/:id/assignments", handler.Assignments)
}

func SetAdminRoutes(api *echo.Group, handler *rest.BanditAdminHandler) {
	admin := api.Group("/admin/experiments")

	admin.GET("/:id/debug", handler.Debug)
}

func SetOpsRoutes(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
}
