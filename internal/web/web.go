package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"todo/internal/client"
	"todo/internal/middleware"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html static/*
var assets embed.FS

// NewRouter serves the page, its static assets and the form actions that
// drive app.
func NewRouter(app *client.App, development bool, logger *log.Logger) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.ErrorHandler(development, logger))
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	h := NewPageHandler(app)
	r.GET("/", h.Index)
	r.GET("/notifications", h.Notifications)
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	r.POST("/todos", h.Create)
	todos := r.Group("/todos/:id")
	{
		todos.POST("/toggle", h.Toggle)
		todos.POST("/edit", h.Edit)
		todos.POST("/save", h.Save)
		todos.POST("/cancel", h.Cancel)
		todos.POST("/delete", h.Delete)
	}
	r.POST("/reorder", h.Reorder)

	return r, nil
}
