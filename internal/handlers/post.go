package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Feed           *services.FeedService
	Follows        *services.FollowService
	Users          repository.UserRepository
	Groups         repository.GroupRepository
	Posts          repository.PostRepository
	Comments       repository.CommentRepository
	Images         services.ImageStore
	MaxUploadBytes int64
	Log            logrus.FieldLogger
}

type PostHandler struct {
	feed      *services.FeedService
	follows   *services.FollowService
	users     repository.UserRepository
	groups    repository.GroupRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	images    services.ImageStore
	maxUpload int64
	log       logrus.FieldLogger
}

func NewPostHandler(d Deps) *PostHandler {
	return &PostHandler{
		feed:      d.Feed,
		follows:   d.Follows,
		users:     d.Users,
		groups:    d.Groups,
		posts:     d.Posts,
		comments:  d.Comments,
		images:    d.Images,
		maxUpload: d.MaxUploadBytes,
		log:       d.Log,
	}
}

func postURL(post *models.Post) string {
	return fmt.Sprintf("/%s/%d/", post.Author.Username, post.ID)
}

// Index is the global timeline.
func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.feed.Global(c.Request.Context(), c.Query("page"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	Render(c, http.StatusOK, "posts/index.html", gin.H{"Page": page})
}

func (h *PostHandler) GroupPosts(c *gin.Context) {
	ctx := c.Request.Context()
	group, err := h.groups.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}

	page, err := h.feed.Group(ctx, group.ID, c.Query("page"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	Render(c, http.StatusOK, "posts/group.html", gin.H{"Group": group, "Page": page})
}

// Profile lists an author's posts with the follow summary.
func (h *PostHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}

	page, err := h.feed.Profile(ctx, author.ID, c.Query("page"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	stats, err := h.follows.Stats(ctx, middleware.CurrentUserID(c), author.ID)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}

	Render(c, http.StatusOK, "posts/profile.html", gin.H{
		"Author": author,
		"Page":   page,
		"Stats":  stats,
	})
}

// loadPost resolves /:username/:post_id/. A post that exists under another
// author is reported as missing.
func (h *PostHandler) loadPost(ctx context.Context, username, rawID string) (*models.Post, error) {
	id, ok := utils.ParseID(rawID)
	if !ok {
		return nil, models.NewNotFoundError("Post", rawID)
	}
	post, err := h.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Author.Username != username {
		return nil, models.NewNotFoundError("Post", rawID)
	}
	return post, nil
}

func (h *PostHandler) Detail(c *gin.Context) {
	post, err := h.loadPost(c.Request.Context(), c.Param("username"), c.Param("post_id"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	h.renderDetail(c, http.StatusOK, post, nil)
}

func (h *PostHandler) renderDetail(c *gin.Context, code int, post *models.Post, errs map[string]string) {
	ctx := c.Request.Context()

	comments, err := h.comments.ListByPost(ctx, post.ID)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	post.CommentCount = len(comments)

	stats, err := h.follows.Stats(ctx, middleware.CurrentUserID(c), post.AuthorID)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	postCount, err := h.posts.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		RenderError(c, h.log, err)
		return
	}

	obj := gin.H{
		"Post":      post,
		"Author":    &post.Author,
		"Comments":  comments,
		"Stats":     stats,
		"PostCount": postCount,
	}
	if errs != nil {
		obj["Errors"] = errs
	}
	Render(c, code, "posts/post.html", obj)
}

func (h *PostHandler) renderForm(c *gin.Context, code int, form PostForm, errs map[string]string, isEdit bool) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	Render(c, code, "posts/new_post.html", gin.H{
		"Form":   form,
		"Groups": groups,
		"Errors": errs,
		"IsEdit": isEdit,
	})
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	h.renderForm(c, http.StatusOK, PostForm{}, map[string]string{}, false)
}

func (h *PostHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)

	var form PostForm
	errs := bindForm(c, &form)
	groupID, err := h.resolveGroup(ctx, form.Group, errs)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if len(errs) > 0 {
		h.renderForm(c, http.StatusBadRequest, form, errs, false)
		return
	}

	image, err := h.saveImage(c, errs)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if len(errs) > 0 {
		h.renderForm(c, http.StatusBadRequest, form, errs, false)
		return
	}

	post := &models.Post{
		Text:     strings.TrimSpace(form.Text),
		AuthorID: user.ID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := h.posts.Create(ctx, post); err != nil {
		h.discardImage(ctx, image)
		RenderError(c, h.log, err)
		return
	}

	h.log.WithFields(logrus.Fields{"post_id": post.ID, "author_id": user.ID}).Info("post created")
	c.Redirect(http.StatusFound, "/")
}

// editable loads the post and reports whether the current user wrote it.
// Anyone else is sent back to the global timeline.
func (h *PostHandler) editable(c *gin.Context) (*models.Post, bool) {
	post, err := h.loadPost(c.Request.Context(), c.Param("username"), c.Param("post_id"))
	if err != nil {
		RenderError(c, h.log, err)
		return nil, false
	}
	if middleware.CurrentUserID(c) != post.AuthorID {
		c.Redirect(http.StatusFound, "/")
		return nil, false
	}
	return post, true
}

func (h *PostHandler) ShowEdit(c *gin.Context) {
	post, ok := h.editable(c)
	if !ok {
		return
	}

	form := PostForm{Text: post.Text, Image: post.Image}
	if post.GroupID != nil {
		form.Group = fmt.Sprint(*post.GroupID)
	}
	h.renderForm(c, http.StatusOK, form, map[string]string{}, true)
}

func (h *PostHandler) Update(c *gin.Context) {
	post, ok := h.editable(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var form PostForm
	errs := bindForm(c, &form)
	form.Image = post.Image
	groupID, err := h.resolveGroup(ctx, form.Group, errs)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if len(errs) > 0 {
		h.renderForm(c, http.StatusBadRequest, form, errs, true)
		return
	}

	image, err := h.saveImage(c, errs)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if len(errs) > 0 {
		h.renderForm(c, http.StatusBadRequest, form, errs, true)
		return
	}

	previousImage := post.Image
	post.Text = strings.TrimSpace(form.Text)
	post.GroupID = groupID
	post.Group = nil
	if image != "" {
		post.Image = image
	}
	if err := h.posts.Update(ctx, post); err != nil {
		h.discardImage(ctx, image)
		RenderError(c, h.log, err)
		return
	}

	if image != "" {
		h.discardImage(ctx, previousImage)
	}
	c.Redirect(http.StatusFound, postURL(post))
}

// resolveGroup turns the submitted group id into a reference. Unknown ids are
// recorded in errs; only storage failures are returned.
func (h *PostHandler) resolveGroup(ctx context.Context, raw string, errs map[string]string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, ok := utils.ParseID(raw)
	if !ok {
		errs["group"] = msgInvalidChoice
		return nil, nil
	}
	group, err := h.groups.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		errs["group"] = msgInvalidChoice
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group.ID, nil
}

// saveImage stores the optional "image" upload and returns its path.
func (h *PostHandler) saveImage(c *gin.Context, errs map[string]string) (string, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if header.Size == 0 {
		return "", nil
	}

	path, err := services.StoreUpload(c.Request.Context(), h.images, header, h.maxUpload)
	switch {
	case errors.Is(err, services.ErrNotAnImage):
		errs["image"] = msgInvalidImage
		return "", nil
	case errors.Is(err, services.ErrImageTooLarge):
		errs["image"] = fmt.Sprintf("The image is too large. The limit is %d MB.", h.maxUpload>>20)
		return "", nil
	case err != nil:
		return "", err
	}
	return path, nil
}

// discardImage removes a stored image nothing refers to any more.
func (h *PostHandler) discardImage(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := h.images.Delete(ctx, path); err != nil {
		h.log.WithError(err).WithField("image", path).Warn("remove unused image")
	}
}
