package handlers

import (
	"errors"
	"net/http"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	users repository.UserRepository
	log   logrus.FieldLogger
}

func NewAuthHandler(d Deps) *AuthHandler {
	return &AuthHandler{users: d.Users, log: d.Log}
}

// safeNext only allows local absolute paths as a post-login target.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func login(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserID, user.ID)
	return session.Save()
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	Render(c, http.StatusOK, "users/signup.html", gin.H{"Form": SignupForm{}})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := c.Request.Context()

	var form SignupForm
	errs := bindForm(c, &form)
	form.Username = strings.TrimSpace(form.Username)
	if _, bad := errs["username"]; !bad && form.Username != "" {
		if utils.IsReservedUsername(form.Username) {
			errs["username"] = "This username is not available."
		} else {
			exists, err := h.users.UsernameExists(ctx, form.Username)
			if err != nil {
				RenderError(c, h.log, err)
				return
			}
			if exists {
				errs["username"] = "A user with that username already exists."
			}
		}
	}
	form.Password1, form.Password2 = "", ""
	if len(errs) > 0 {
		Render(c, http.StatusBadRequest, "users/signup.html", gin.H{"Form": form, "Errors": errs})
		return
	}

	hash, err := utils.HashPassword(c.PostForm("password1"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	user := &models.User{
		Username:  form.Username,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Password:  hash,
	}
	if err := h.users.Create(ctx, user); err != nil {
		RenderError(c, h.log, err)
		return
	}
	if err := login(c, user); err != nil {
		RenderError(c, h.log, err)
		return
	}

	h.log.WithField("username", user.Username).Info("user signed up")
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "users/login.html", gin.H{
		"Form": LoginForm{},
		"Next": c.Query("next"),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form LoginForm
	errs := bindForm(c, &form)
	form.Password = ""
	if len(errs) > 0 {
		Render(c, http.StatusBadRequest, "users/login.html", gin.H{"Form": form, "Errors": errs, "Next": form.Next})
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), form.Username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		RenderError(c, h.log, err)
		return
	}
	if user == nil || !utils.CheckPasswordHash(c.PostForm("password"), user.Password) {
		errs["form"] = "Please enter a correct username and password. Note that both fields may be case-sensitive."
		Render(c, http.StatusUnauthorized, "users/login.html", gin.H{"Form": form, "Errors": errs, "Next": form.Next})
		return
	}

	if err := login(c, user); err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		h.log.WithError(err).Warn("clear session on logout")
	}
	c.Redirect(http.StatusFound, "/")
}
