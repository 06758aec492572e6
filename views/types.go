package views

import (
	"github.com/nathan-a-king/website-sub000/markdown"
	"github.com/nathan-a-king/website-sub000/post"
)

// SiteConfig holds the site-wide settings every page needs.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page head values.
type PageMeta struct {
	Title       string
	Description string
	CSRFToken   string
}

// HomeData is the post listing page.
type HomeData struct {
	Posts      []post.Summary
	Categories []string
	Query      string
	Category   string
	// Err is shown inline when the index could not be loaded.
	Err string
}

// PostData is a single post page.
type PostData struct {
	Post     post.Detail
	Renderer *markdown.Renderer
	Theme    markdown.Theme
	// Stale is set when Post came from an expired cache entry and a
	// refresh is under way.
	Stale bool
	// Err is shown inline above whatever content is available.
	Err string
}
