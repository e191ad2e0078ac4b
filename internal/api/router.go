package api

import (
	"net/http"

	_ "go-prison-stats/docs"
	"go-prison-stats/internal/api/handler"
	"go-prison-stats/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/reports", handler.CreateReport)
	r.GET("/api/v1/reports", handler.ListReports)
	// More specific routes first
	r.GET("/api/v1/reports/*/results", handler.GetReportResults)
	r.GET("/api/v1/reports/*/errors", handler.GetReportErrors)
	r.GET("/api/v1/reports/*/progress", handler.GetReportProgress)
	r.GET("/api/v1/reports/*/chart", handler.GetReportChart)
	r.POST("/api/v1/reports/*/rerun", handler.RerunReport)
	r.PATCH("/api/v1/reports/*/cancel", handler.CancelReport)
	// Generic report routes last
	r.GET("/api/v1/reports/*", handler.GetReport)
	r.DELETE("/api/v1/reports/*", handler.DeleteReport)

	r.Handle(http.MethodGet, "/swagger/*", httpSwagger.WrapHandler)
}
