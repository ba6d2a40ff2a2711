package router

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"yatube/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPagination(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	app.createPosts(author, 15)
	c := app.anonymous()

	first := c.get("/")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 12, strings.Count(first.Body.String(), postCardMarker))
	assert.Contains(t, first.Body.String(), "post number 14")

	second := c.get("/?page=2")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 3, strings.Count(second.Body.String(), postCardMarker))
	assert.Contains(t, second.Body.String(), "post number 0")

	// out of range clamps to the last page
	last := c.get("/?page=99")
	assert.Equal(t, 3, strings.Count(last.Body.String(), postCardMarker))

	// garbage means the first page
	garbage := c.get("/?page=abc")
	assert.Equal(t, 12, strings.Count(garbage.Body.String(), postCardMarker))
}

func TestIndexIsCached(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	app.createPost(author, "before the cache", nil)
	c := app.anonymous()

	first := c.get("/")
	require.Equal(t, http.StatusOK, first.Code)

	app.createPost(author, "written after the first fetch", nil)

	second := c.get("/")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.NotContains(t, second.Body.String(), "written after the first fetch")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	// other timelines are not cached
	profile := c.get("/leo/")
	assert.Contains(t, profile.Body.String(), "written after the first fetch")
}

func TestGroupTimeline(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	cats := app.createGroup("cats")
	dogs := app.createGroup("dogs")
	app.createPost(author, "a cat post", cats)
	app.createPost(author, "a dog post", dogs)

	w := app.anonymous().get("/group/cats/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Group cats")
	assert.Contains(t, body, "a cat post")
	assert.NotContains(t, body, "a dog post")
}

func TestProfileShowsCounts(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	reader := app.createUser("reader")
	app.createPosts(author, 3)
	require.NoError(t, app.conn.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)
	joined := time.Now().Add(-5*24*time.Hour - time.Hour)
	require.NoError(t, app.conn.Model(author).Update("date_joined", joined).Error)

	w := app.loggedIn(reader).get("/leo/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span class="followers-count">1</span>`)
	assert.Contains(t, body, `<span class="posts-count">3</span>`)
	assert.Contains(t, body, `<span class="days-joined">5</span>`)
	assert.Contains(t, body, `action="/leo/unfollow/"`)
}

func TestPostDetail(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	post := app.createPost(author, "detailed post", nil)
	require.NoError(t, app.conn.Create(&models.Comment{PostID: &post.ID, AuthorID: author.ID, Text: "first!"}).Error)

	w := app.anonymous().get(fmt.Sprintf("/leo/%d/", post.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "detailed post")
	assert.Contains(t, w.Body.String(), "first!")
	// anonymous visitors get no comment form
	assert.NotContains(t, w.Body.String(), "Add a comment:")
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	group := app.createGroup("cats")
	c := app.loggedIn(author)

	form := c.get("/new/")
	require.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body.String(), "Group cats")

	before := app.count(&models.Post{})
	w := c.postForm("/new/", url.Values{"text": {"a brand new post"}, "group": {fmt.Sprint(group.ID)}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, before+1, app.count(&models.Post{}))

	var post models.Post
	require.NoError(t, app.conn.Where("text = ?", "a brand new post").First(&post).Error)
	assert.Equal(t, author.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
}

func TestCreatePostValidation(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(app.createUser("leo"))

	w := c.postForm("/new/", url.Values{"text": {"   "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")

	w = c.postForm("/new/", url.Values{"text": {"fine text"}, "group": {"999"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Select a valid choice.")
	assert.Contains(t, w.Body.String(), "fine text")

	assert.Zero(t, app.count(&models.Post{}))
}

func TestCreatePostWithImage(t *testing.T) {
	app := newTestApp(t)
	c := app.loggedIn(app.createUser("leo"))

	w := c.postMultipart("/new/", map[string]string{"text": "with a picture"}, "small.gif", smallGIF)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var post models.Post
	require.NoError(t, app.conn.Where("text = ?", "with a picture").First(&post).Error)
	assert.True(t, strings.HasPrefix(post.Image, "posts/"))
	_, err := os.Stat(filepath.Join(app.mediaRoot, filepath.FromSlash(post.Image)))
	assert.NoError(t, err)

	// the stored file is served under /media/
	media := c.get("/media/" + post.Image)
	assert.Equal(t, http.StatusOK, media.Code)

	w = c.postMultipart("/new/", map[string]string{"text": "not a picture"}, "fake.gif", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a valid image.")
	assert.EqualValues(t, 1, app.count(&models.Post{}))
}

func TestAnonymousCannotCreatePost(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()

	w := c.get("/new/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fnew%2F", w.Header().Get("Location"))

	w = c.postForm("/new/", url.Values{"text": {"sneaky"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Zero(t, app.count(&models.Post{}))
}

func TestEditPostByAuthor(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	post := app.createPost(author, "original text", nil)
	c := app.loggedIn(author)
	editURL := fmt.Sprintf("/leo/%d/edit/", post.ID)

	form := c.get(editURL)
	require.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body.String(), "original text")

	w := c.postForm(editURL, url.Values{"text": {"edited text"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/leo/%d/", post.ID), w.Header().Get("Location"))

	var reloaded models.Post
	require.NoError(t, app.conn.First(&reloaded, post.ID).Error)
	assert.Equal(t, "edited text", reloaded.Text)
	assert.True(t, post.PubDate.Equal(reloaded.PubDate))
}

func TestEditPostByOtherUserIsIgnored(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	intruder := app.createUser("intruder")
	post := app.createPost(author, "original text", nil)
	editURL := fmt.Sprintf("/leo/%d/edit/", post.ID)
	c := app.loggedIn(intruder)

	w := c.get(editURL)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = c.postMultipart(editURL, map[string]string{"text": "defaced"}, "small.gif", smallGIF)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var reloaded models.Post
	require.NoError(t, app.conn.First(&reloaded, post.ID).Error)
	assert.Equal(t, "original text", reloaded.Text)
	assert.Empty(t, reloaded.Image)
}

func TestComments(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	reader := app.createUser("reader")
	post := app.createPost(author, "comment on me", nil)
	commentURL := fmt.Sprintf("/leo/%d/comment", post.ID)

	w := app.anonymous().postForm(commentURL, url.Values{"text": {"anonymous words"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/auth/login/"))
	assert.Zero(t, app.count(&models.Comment{}))

	c := app.loggedIn(reader)
	w = c.postForm(commentURL, url.Values{"text": {""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, app.count(&models.Comment{}))

	w = c.postForm(commentURL, url.Values{"text": {"nice post"}, "author": {fmt.Sprint(author.ID)}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/leo/%d/", post.ID), w.Header().Get("Location"))

	var comment models.Comment
	require.NoError(t, app.conn.First(&comment).Error)
	assert.Equal(t, reader.ID, comment.AuthorID)
	require.NotNil(t, comment.PostID)
	assert.Equal(t, post.ID, *comment.PostID)

	detail := c.get(fmt.Sprintf("/leo/%d/", post.ID))
	assert.Contains(t, detail.Body.String(), "nice post")
}

func TestNotFoundPages(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("leo")
	app.createUser("kim")
	post := app.createPost(author, "hello", nil)
	c := app.anonymous()

	for _, path := range []string{
		"/group/missing/",
		"/nobody/",
		"/leo/99999/",
		"/leo/abc/",
		fmt.Sprintf("/kim/%d/", post.ID),
		"/some/deeply/nested/unknown/path/",
	} {
		w := c.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "Page not found", path)
		assert.Contains(t, w.Body.String(), path, path)
	}
}

func TestServerErrorPage(t *testing.T) {
	app := newTestApp(t)
	app.engine.GET("/about/boom/", func(c *gin.Context) { panic("boom") })

	w := app.anonymous().get("/about/boom/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Server error")
}

func TestAboutPages(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()

	assert.Equal(t, http.StatusOK, c.get("/about/author/").Code)
	assert.Equal(t, http.StatusOK, c.get("/about/tech/").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	c := app.anonymous()
	c.get("/about/tech/")

	w := c.get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `yatube_http_requests_total{method="GET",path="/about/tech/",status="200"} 1`)
}

func TestFailedSaveRemovesUploadedImage(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		app := newTestApp(t)
		c := app.loggedIn(app.createUser("leo"))
		app.failPostWrites()

		w := c.postMultipart("/new/", map[string]string{"text": "with a picture"}, "small.gif", smallGIF)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, app.storedImages())
	})

	t.Run("update", func(t *testing.T) {
		app := newTestApp(t)
		author := app.createUser("leo")
		post := app.createPost(author, "original text", nil)
		c := app.loggedIn(author)
		app.failPostWrites()

		w := c.postMultipart(fmt.Sprintf("/leo/%d/edit/", post.ID), map[string]string{"text": "edited"}, "small.gif", smallGIF)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, app.storedImages())

		var reloaded models.Post
		require.NoError(t, app.conn.First(&reloaded, post.ID).Error)
		assert.Equal(t, "original text", reloaded.Text)
		assert.Empty(t, reloaded.Image)
	})
}
