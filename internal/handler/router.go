package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterDeps are the handlers and guards mounted by RegisterRoutes.
type RouterDeps struct {
	Auth    *AuthHandler
	Panel   *PanelHandler
	Metrics *MetricsHandler
	Session gin.HandlerFunc
}

// RegisterRoutes mounts the login gate, the panel and the probes on r.
func RegisterRoutes(r *gin.Engine, d RouterDeps) {
	r.GET("/health", d.Metrics.Health)
	r.GET("/ready", d.Metrics.Ready)
	r.GET("/metrics", d.Metrics.Prometheus)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/panel")
	})
	r.GET("/login", d.Auth.LoginPage)
	r.POST("/login", d.Auth.Login)

	secured := r.Group("")
	secured.Use(d.Session)
	secured.POST("/logout", d.Auth.Logout)

	panel := secured.Group("/panel")
	panel.GET("", d.Panel.Page)
	panel.GET("/events", d.Panel.Events)
	panel.POST("/filters", d.Panel.Filters)
	panel.POST("/search", d.Panel.Search)
	panel.GET("/table", d.Panel.Refresh)
	panel.POST("/edit/:entity/:id", d.Panel.Edit)
	panel.POST("/new/:entity", d.Panel.New)
	panel.POST("/modal/department", d.Panel.ModalDepartment)
	panel.POST("/modal/save", d.Panel.Save)
	panel.POST("/modal/cancel", d.Panel.Cancel)
	panel.POST("/delete/:entity/:id", d.Panel.Delete)
	panel.GET("/chart/data", d.Panel.ChartData)
	panel.POST("/chart", d.Panel.Chart)
	panel.GET("/chart/export", d.Panel.ChartExport)
	panel.POST("/chart/export", d.Panel.ChartExportCanvas)
	panel.GET("/export.csv", d.Panel.ExportCSV)
}
