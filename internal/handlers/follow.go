package handlers

import (
	"context"
	"net/http"

	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type FollowHandler struct {
	feed    *services.FeedService
	follows *services.FollowService
	users   repository.UserRepository
	log     logrus.FieldLogger
}

func NewFollowHandler(d Deps) *FollowHandler {
	return &FollowHandler{
		feed:    d.Feed,
		follows: d.Follows,
		users:   d.Users,
		log:     d.Log,
	}
}

// Index lists posts by the authors the current user follows.
func (h *FollowHandler) Index(c *gin.Context) {
	page, err := h.feed.Following(c.Request.Context(), middleware.CurrentUserID(c), c.Query("page"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	Render(c, http.StatusOK, "posts/follow.html", gin.H{"Page": page})
}

func (h *FollowHandler) Follow(c *gin.Context) {
	h.change(c, h.follows.Follow)
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	h.change(c, h.follows.Unfollow)
}

func (h *FollowHandler) change(c *gin.Context, apply func(ctx context.Context, followerID, authorID uint) error) {
	ctx := c.Request.Context()
	author, err := h.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if err := apply(ctx, middleware.CurrentUserID(c), author.ID); err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.Redirect(http.StatusFound, "/"+author.Username+"/")
}
