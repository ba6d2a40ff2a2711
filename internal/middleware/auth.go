package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"yatube/internal/models"
	"yatube/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	CheckUserKey  = "user"
	SessionUserID = "user_id"
	LoginPath     = "/auth/login/"
)

// AuthRequired redirects anonymous visitors to the login page, carrying the
// requested path in ?next=.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users repository.UserRepository, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(uint)

		if ok {
			user, err := users.GetByID(c.Request.Context(), userID)
			switch {
			case err == nil:
				c.Set(CheckUserKey, user)
			case errors.Is(err, models.ErrNotFound):
				// account is gone; drop the stale session
				session.Delete(SessionUserID)
				_ = session.Save()
			default:
				log.WithError(err).WithField("user_id", userID).Error("load session user")
			}
		}
		c.Next()
	}
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID returns 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if user := CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
