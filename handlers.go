package website

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/nathan-a-king/website-sub000/markdown"
	"github.com/nathan-a-king/website-sub000/post"
	"github.com/nathan-a-king/website-sub000/postclient"
	"github.com/nathan-a-king/website-sub000/views"
)

const (
	themeCookie = "theme"
	// warmCount is how many of the newest listed posts the home page
	// preloads in the background.
	warmCount = 3

	indexLoadError = "Posts could not be loaded. Please try again shortly."
	postLoadError  = "This post could not be loaded. Please try again shortly."
)

// Posts API

func (a *App) handleIndexJSON(c echo.Context) error {
	summaries, err := a.Cache.Summaries()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

func (a *App) handlePostJSON(c echo.Context) error {
	p, err := a.Cache.GetPost(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody("post not found"))
		}
		return err
	}
	return c.JSON(http.StatusOK, p.Detail)
}

// Pages

func (a *App) handleHome(c echo.Context) error {
	query := c.QueryParam("q")
	category := c.QueryParam("category")
	data := views.HomeData{Query: query, Category: category}

	index, err := a.Posts.LoadIndex(c.Request().Context())
	if err != nil {
		c.Logger().Warnf("load index: %v", err)
		data.Err = indexLoadError
		return RenderStatus(c, http.StatusBadGateway, views.Home(a.site(), a.meta(c, ""), data))
	}
	data.Posts = post.Filter(index, query, category)
	data.Categories = post.Categories(index)

	if slugs := newestSlugs(data.Posts, warmCount); len(slugs) > 0 {
		go a.Posts.PreloadAll(context.WithoutCancel(c.Request().Context()), slugs)
	}
	return Render(c, views.Home(a.site(), a.meta(c, ""), data))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	res, err := a.Posts.LoadPost(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, postclient.ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, views.NotFound(a.site()))
		}
		c.Logger().Warnf("load post %s: %v", slug, err)
		data := views.PostData{Renderer: a.Renderer, Theme: themeOf(c), Err: postLoadError}
		return RenderStatus(c, http.StatusBadGateway, views.PostPage(a.site(), a.meta(c, ""), data))
	}
	data := views.PostData{
		Post:     res.Post,
		Renderer: a.Renderer,
		Theme:    themeOf(c),
		Stale:    res.Stale,
	}
	if res.RefreshErr != nil {
		data.Err = postLoadError
	}
	meta := a.meta(c, res.Post.Title)
	meta.Description = res.Post.Excerpt
	return Render(c, views.PostPage(a.site(), meta, data))
}

// handlePreload warms the loader cache for a post the reader is likely to
// open next. It answers at once; the fetch outlives the request.
func (a *App) handlePreload(c echo.Context) error {
	slug := c.Param("slug")
	go a.Posts.Preload(context.WithoutCancel(c.Request().Context()), slug)
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.Config.StaticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nSitemap: "+BuildURL(a.Config.URL)+"sitemap.xml\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

func (a *App) meta(c echo.Context, title string) views.PageMeta {
	return views.PageMeta{Title: title, CSRFToken: CsrfToken(c)}
}

// themeOf reads the reader's theme from the theme cookie.
func themeOf(c echo.Context) markdown.Theme {
	cookie, err := c.Cookie(themeCookie)
	if err != nil {
		return markdown.Light
	}
	return markdown.ParseTheme(cookie.Value)
}

func newestSlugs(posts []post.Summary, n int) []string {
	if len(posts) < n {
		n = len(posts)
	}
	slugs := make([]string, n)
	for i := range slugs {
		slugs[i] = posts[i].Slug
	}
	return slugs
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Error: msg}
}
