package handlers

import (
	"net/http"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gin-gonic/gin"
)

// AddComment attaches a comment to the post in the URL. The author comes
// from the session.
func (h *PostHandler) AddComment(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.loadPost(ctx, c.Param("username"), c.Param("post_id"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}

	var form CommentForm
	if errs := bindForm(c, &form); len(errs) > 0 {
		h.renderDetail(c, http.StatusBadRequest, post, errs)
		return
	}

	comment := &models.Comment{
		PostID:   &post.ID,
		AuthorID: middleware.CurrentUserID(c),
		Text:     strings.TrimSpace(form.Text),
	}
	if err := h.comments.Create(ctx, comment); err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(post))
}

// CommentRedirect sends stray GETs on the comment endpoint to the post page.
func (h *PostHandler) CommentRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, "/"+c.Param("username")+"/"+c.Param("post_id")+"/")
}
