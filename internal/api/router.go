package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/jaibhageria/cloudmarker/internal/api/handler"
	"github.com/jaibhageria/cloudmarker/pkg/router"
)

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/audits", handler.TriggerAudit)
	r.GET("/api/v1/audits", handler.ListRuns)
	// More specific routes first
	r.GET("/api/v1/audits/*/errors", handler.GetRunErrors)
	r.GET("/api/v1/audits/*/logs", handler.GetRunLogs)
	r.GET("/api/v1/audits/*/events", handler.GetRunEvents)
	r.GET("/api/v1/audits/*/summary", handler.GetRunSummary)
	// Generic run route last
	r.GET("/api/v1/audits/*", handler.GetRun)

	r.GET("/swagger/*", func(w http.ResponseWriter, req *http.Request) {
		httpSwagger.WrapHandler.ServeHTTP(w, req)
	})
}
