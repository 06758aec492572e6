package website

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nathan-a-king/website-sub000/post"
)

const dateLayout = "2006-01-02"

// postInput is the body of PUT /admin/posts/:slug.
type postInput struct {
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Excerpt    string   `json:"excerpt"`
	Categories []string `json:"categories"`
	Content    string   `json:"content"`
	Published  *bool    `json:"published"`
}

// adminPost is how the admin API shows a stored post.
type adminPost struct {
	post.Detail
	Published bool `json:"published"`
}

func toAdminPost(p Post) adminPost {
	return adminPost{Detail: p.Detail, Published: p.Published}
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, errorBody("too many login attempts, try again later"))
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return c.JSON(http.StatusUnauthorized, errorBody("wrong password"))
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAdminList(c echo.Context) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	out := make([]adminPost, len(posts))
	for i, p := range posts {
		out[i] = toAdminPost(p)
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleAdminGet(c echo.Context) error {
	p, err := a.Store.GetPostAny(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody("post not found"))
		}
		return err
	}
	return c.JSON(http.StatusOK, toAdminPost(p))
}

func (a *App) handleAdminSave(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" || Slugify(slug) != slug {
		return c.JSON(http.StatusBadRequest, errorBody("slug must be lowercase letters, digits and hyphens"))
	}
	var in postInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid post body"))
	}
	p, msg := in.toPost(slug)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, errorBody(msg))
	}
	if err := a.Store.SavePost(p); err != nil {
		return err
	}
	a.Cache.Invalidate()

	saved, err := a.Store.GetPostAny(slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminPost(saved))
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if err := a.Store.DeletePost(c.Param("slug")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

// toPost validates the input. msg describes the first problem found.
func (in postInput) toPost(slug string) (p Post, msg string) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Post{}, "title is required"
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Post{}, "invalid date format, use YYYY-MM-DD"
	}
	published := true
	if in.Published != nil {
		published = *in.Published
	}
	return Post{
		Detail: post.Detail{
			Slug:       slug,
			Title:      title,
			Date:       date,
			Excerpt:    strings.TrimSpace(in.Excerpt),
			Categories: FilterEmpty(in.Categories),
			Content:    in.Content,
		},
		Published: published,
	}, ""
}
