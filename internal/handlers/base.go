package handlers

import (
	"errors"
	"net/http"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	if _, ok := obj["Errors"]; !ok {
		obj["Errors"] = map[string]string{}
	}

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// NotFound renders the custom 404 page showing the requested path.
func NotFound(c *gin.Context) {
	Render(c, http.StatusNotFound, "misc/404.html", gin.H{"Path": c.Request.URL.Path})
}

func ServerError(c *gin.Context) {
	Render(c, http.StatusInternalServerError, "misc/500.html", nil)
}

// RenderError maps err onto the 404 or 500 page. Anything other than a
// missing entity is logged.
func RenderError(c *gin.Context, log logrus.FieldLogger, err error) {
	if errors.Is(err, models.ErrNotFound) {
		NotFound(c)
		return
	}

	_ = c.Error(err)
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("request failed")
	ServerError(c)
}
