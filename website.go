// Package website is a personal blog built with Go, Echo, and templ.
//
// The site serves its posts twice: as a JSON posts API backed by SQLite,
// and as HTML pages. The pages read posts through postclient, the same
// way any other consumer of the API would, so the loaders' caching,
// stale-while-revalidate and preloading behavior applies to every page
// view. Post content is rendered by package markdown.
package website

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nathan-a-king/website-sub000/markdown"
	"github.com/nathan-a-king/website-sub000/postclient"
)

// maxProbeTimeout bounds how long a remote dark-variant probe can hold up
// a page render.
const maxProbeTimeout = 2 * time.Second

// adminBodyLimit leaves room for a maximum-size image upload.
const adminBodyLimit = "12M"

// App is the central application. It wires together the store, caches,
// posts client, renderer, handlers, and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Posts    *postclient.Client
	Renderer *markdown.Renderer

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	clientOpts   []postclient.Option
	prober       markdown.ImageProber
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store and registers middleware and routes. It is called
// by Start; tests call it directly and serve a.Echo themselves.
func (a *App) Setup() error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("website: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if a.prober == nil {
		a.prober = newImageProber(a.Config.StaticDir, a.Config.FetchTimeout)
	}
	a.Renderer = markdown.NewRenderer(
		markdown.WithProber(a.prober),
		markdown.WithCodeStyle(a.Config.CodeStyle),
	)

	clientOpts := append([]postclient.Option{
		postclient.WithTimeout(a.Config.FetchTimeout),
		postclient.WithLogger(a.Echo.Logger),
	}, a.clientOpts...)
	a.Posts = postclient.New(a.Config.PostsAPIURL, clientOpts...)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// The site script and stylesheet ship in the binary and are served
	// ahead of the static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/site.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/site.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Posts API
	e.GET("/posts/index.json", a.handleIndexJSON)
	e.GET("/posts/:slug", a.handlePostJSON)

	// Pages
	e.GET("/", a.handleHome)
	e.GET("/blog/", handleBlogRedirect)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/blog/:slug/preload", a.handlePreload)

	// Admin API
	admin := e.Group("/admin")
	admin.POST("/login/", a.handleAdminLogin)
	admin.POST("/logout/", handleAdminLogout)
	auth := admin.Group("", a.requireAdmin, middleware.BodyLimit(adminBodyLimit))
	auth.GET("/posts/", a.handleAdminList)
	auth.GET("/posts/:slug", a.handleAdminGet)
	auth.PUT("/posts/:slug", a.handleAdminSave)
	auth.DELETE("/posts/:slug", a.handleAdminDelete)
	auth.GET("/images/", a.handleImageList)
	auth.POST("/images/", a.handleImageUpload)
	auth.DELETE("/images/:filename", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// newImageProber looks local images up under staticDir and probes remote
// ones over HTTP.
func newImageProber(staticDir string, timeout time.Duration) markdown.ImageProber {
	local := markdown.FSProber{FS: os.DirFS(staticDir), Prefix: "/public/"}
	remote := markdown.NewHTTPProber("", min(timeout, maxProbeTimeout))
	return markdown.ProberFunc(func(src string) bool {
		return local.Exists(src) || remote.Exists(src)
	})
}
