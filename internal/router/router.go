package router

import (
	"strings"
	"time"

	"yatube/internal/handlers"
	"yatube/internal/middleware"
	"yatube/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/sirupsen/logrus"
)

// Options configure the HTTP engine.
type Options struct {
	Deps          handlers.Deps
	Renderer      render.HTMLRender
	SessionSecret string
	PageCache     utils.Cache
	IndexCacheTTL time.Duration
	// MediaRoot is served under MediaURL when images are kept on local disk.
	MediaRoot string
	MediaURL  string
	Metrics   *middleware.Metrics
	Log       *logrus.Logger
}

// New builds the engine with middleware, error pages and every route.
func New(opts Options) *gin.Engine {
	log := opts.Log

	r := gin.New()
	r.HTMLRender = opts.Renderer
	r.MaxMultipartMemory = 8 << 20

	r.Use(middleware.RequestLogger(log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.WithFields(logrus.Fields{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		}).Error("panic recovered")
		handlers.ServerError(c)
		c.Abort()
	}))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 86400 * 14, HttpOnly: true})
	r.Use(sessions.Sessions("yatube_session", store))
	r.Use(middleware.LoadUser(opts.Deps.Users, log))

	r.NoRoute(handlers.NotFound)

	if opts.MediaRoot != "" {
		r.Static("/"+strings.Trim(opts.MediaURL, "/"), opts.MediaRoot)
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	RegisterRoutes(r, opts)
	return r
}

func RegisterRoutes(r *gin.Engine, opts Options) {
	log := opts.Log

	// Handlers
	postHandler := handlers.NewPostHandler(opts.Deps)
	followHandler := handlers.NewFollowHandler(opts.Deps)
	authHandler := handlers.NewAuthHandler(opts.Deps)

	// Public Routes
	index := []gin.HandlerFunc{postHandler.Index}
	if opts.PageCache != nil {
		index = append([]gin.HandlerFunc{middleware.CachePage(opts.PageCache, opts.IndexCacheTTL, log)}, index...)
	}
	r.GET("/", index...)                                          // global timeline
	r.GET("/group/:slug/", postHandler.GroupPosts)                // group timeline
	r.GET("/about/author/", handlers.AboutAuthor)                 // static page
	r.GET("/about/tech/", handlers.AboutTech)                     // static page
	r.GET("/:username/", postHandler.Profile)                     // profile timeline
	r.GET("/:username/:post_id/", postHandler.Detail)             // post with comments
	r.GET("/:username/:post_id/comment", postHandler.CommentRedirect)

	auth := r.Group("/auth")
	{
		auth.GET("/signup/", authHandler.ShowSignup)
		auth.POST("/signup/", authHandler.Signup)
		auth.GET("/login/", authHandler.ShowLogin)
		auth.POST("/login/", authHandler.Login)
		auth.GET("/logout/", authHandler.Logout)
	}

	// Protected Routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/new/", postHandler.ShowCreate)
		authorized.POST("/new/", postHandler.Create)
		authorized.GET("/follow/", followHandler.Index)
		authorized.GET("/:username/:post_id/edit/", postHandler.ShowEdit)
		authorized.POST("/:username/:post_id/edit/", postHandler.Update)
		authorized.POST("/:username/:post_id/comment", postHandler.AddComment)
		authorized.POST("/:username/follow/", followHandler.Follow)
		authorized.POST("/:username/unfollow/", followHandler.Unfollow)
	}
}
