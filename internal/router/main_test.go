package router

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"yatube/internal/db"
	"yatube/internal/handlers"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/services"
	"yatube/internal/utils"
	"yatube/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "s3cret-pass"

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	t         *testing.T
	conn      *gorm.DB
	engine    *gin.Engine
	mediaRoot string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logrus.New()
	log.SetOutput(io.Discard)

	mediaRoot := t.TempDir()
	images, err := services.NewLocalStore(mediaRoot, "/media/")
	require.NoError(t, err)

	templates, err := web.Templates("")
	require.NoError(t, err)
	renderer, err := web.NewRenderer(templates, web.FuncMap(images.URL))
	require.NoError(t, err)

	pageCache, err := utils.NewLRUCache(100)
	require.NoError(t, err)

	posts := repository.NewPostRepository(conn)
	engine := New(Options{
		Deps: handlers.Deps{
			Feed:           services.NewFeedService(posts),
			Follows:        services.NewFollowService(repository.NewFollowRepository(conn), log),
			Users:          repository.NewUserRepository(conn),
			Groups:         repository.NewGroupRepository(conn),
			Posts:          posts,
			Comments:       repository.NewCommentRepository(conn),
			Images:         images,
			MaxUploadBytes: 1 << 20,
			Log:            log,
		},
		Renderer:      renderer,
		SessionSecret: "test-secret",
		PageCache:     pageCache,
		IndexCacheTTL: 20 * time.Second,
		MediaRoot:     mediaRoot,
		MediaURL:      "/media/",
		Metrics:       middleware.NewMetrics(prometheus.NewRegistry()),
		Log:           log,
	})

	return &testApp{t: t, conn: conn, engine: engine, mediaRoot: mediaRoot}
}

func (a *testApp) createUser(username string) *models.User {
	a.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(a.t, err)
	user := &models.User{Username: username, Password: string(hash)}
	require.NoError(a.t, a.conn.Create(user).Error)
	return user
}

func (a *testApp) createGroup(slug string) *models.Group {
	a.t.Helper()
	group := &models.Group{Title: "Group " + slug, Slug: slug, Description: "all about " + slug}
	require.NoError(a.t, a.conn.Create(group).Error)
	return group
}

func (a *testApp) createPost(author *models.User, text string, group *models.Group) *models.Post {
	a.t.Helper()
	post := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(a.t, a.conn.Create(post).Error)
	return post
}

func (a *testApp) createPosts(author *models.User, n int) {
	a.t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		post := &models.Post{
			Text:     fmt.Sprintf("post number %d", i),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(a.t, a.conn.Create(post).Error)
	}
}

func (a *testApp) count(model interface{}) int64 {
	a.t.Helper()
	var n int64
	require.NoError(a.t, a.conn.Model(model).Count(&n).Error)
	return n
}

// failPostWrites makes every insert and update of posts fail.
func (a *testApp) failPostWrites() {
	a.t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == "posts" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}
	require.NoError(a.t, a.conn.Callback().Create().Before("gorm:create").Register("test:fail_posts_create", fail))
	require.NoError(a.t, a.conn.Callback().Update().Before("gorm:update").Register("test:fail_posts_update", fail))
}

// storedImages lists the files under the image upload directory.
func (a *testApp) storedImages() []string {
	a.t.Helper()
	entries, err := os.ReadDir(filepath.Join(a.mediaRoot, services.UploadDir))
	require.NoError(a.t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// client keeps the session cookie between requests.
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) anonymous() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

// loggedIn returns a client with a session for user, obtained through the
// login form.
func (a *testApp) loggedIn(user *models.User) *client {
	a.t.Helper()
	c := a.anonymous()
	w := c.postForm("/auth/login/", url.Values{"username": {user.Username}, "password": {testPassword}})
	require.Equal(a.t, http.StatusFound, w.Code, w.Body.String())
	return c
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.app.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postMultipart(path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	c.app.t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(c.app.t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(c.app.t, err)
		_, err = part.Write(content)
		require.NoError(c.app.t, err)
	}
	require.NoError(c.app.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// smallGIF is a 1x1 transparent gif.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

const postCardMarker = `<article class="card mb-3 post">`
