// Package views holds the site's page components.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/nathan-a-king/website-sub000/markdown"
	"github.com/nathan-a-king/website-sub000/post"
)

// Layout wraps body in the page shell.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		title := site.Name
		if meta.Title != "" {
			title = meta.Title + " | " + site.Name
		}
		description := meta.Description
		if description == "" {
			description = site.Description
		}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><meta name="description" content="`)
		h.text(description)
		h.raw(`">`)
		if meta.CSRFToken != "" {
			h.raw(`<meta name="csrf-token" content="`)
			h.text(meta.CSRFToken)
			h.raw(`">`)
		}
		h.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
		h.raw(`<link rel="stylesheet" href="/public/site.css">`)
		h.raw(`<script src="/public/site.js" defer></script></head><body>`)
		h.raw(`<header class="site-header"><a class="site-name" href="/">`)
		h.text(site.Name)
		h.raw(`</a></header><main class="site-main">`)
		h.component(body)
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Home is the searchable, filterable post listing.
func Home(site SiteConfig, meta PageMeta, data HomeData) templ.Component {
	return Layout(site, meta, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		h.raw(`<form class="post-search" method="get" action="/">`)
		h.raw(`<input type="search" name="q" placeholder="Search posts" value="`)
		h.text(data.Query)
		h.raw(`">`)
		if data.Category != "" {
			h.raw(`<input type="hidden" name="category" value="`)
			h.text(data.Category)
			h.raw(`">`)
		}
		h.raw(`</form>`)

		if len(data.Categories) > 0 {
			h.raw(`<nav class="categories"><a class="`)
			h.raw(CategoryClass(data.Category == ""))
			h.raw(`" href="`)
			h.text(listingHref(data.Query, ""))
			h.raw(`">All</a>`)
			for _, c := range data.Categories {
				h.raw(`<a class="`)
				h.raw(CategoryClass(post.NormalizeCategory(c) == post.NormalizeCategory(data.Category)))
				h.raw(`" href="`)
				h.text(listingHref(data.Query, c))
				h.raw(`">`)
				h.text(post.CategoryLabel(c))
				h.raw(`</a>`)
			}
			h.raw(`</nav>`)
		}

		if data.Err != "" {
			h.raw(`<p class="load-error" role="alert">`)
			h.text(data.Err)
			h.raw(`</p>`)
		}

		if len(data.Posts) == 0 && data.Err == "" {
			h.raw(`<p class="no-posts">No posts found.</p>`)
		}
		h.raw(`<ul class="post-list-index">`)
		for _, p := range data.Posts {
			h.raw(`<li class="post-card"><a href="`)
			h.text(post.Link(p.Slug))
			h.raw(`" data-preload="`)
			h.text(p.Slug)
			h.raw(`"><h2 class="post-card-title">`)
			h.text(p.Title)
			h.raw(`</h2></a><time class="post-date">`)
			h.text(p.Date)
			h.raw(`</time><p class="post-excerpt">`)
			h.text(p.Excerpt)
			h.raw(`</p></li>`)
		}
		h.raw(`</ul>`)
		return h.err
	}))
}

// PostPage renders one post. Content is split around widget markers:
// markdown segments go through the renderer and each widget becomes a
// mount point carrying its name.
func PostPage(site SiteConfig, meta PageMeta, data PostData) templ.Component {
	return Layout(site, meta, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		h.raw(`<article class="post"`)
		if data.Stale {
			h.raw(` data-stale`)
		}
		h.raw(`>`)
		if data.Err != "" {
			h.raw(`<p class="load-error" role="alert">`)
			h.text(data.Err)
			h.raw(`</p>`)
		}
		if data.Post.Slug != "" {
			h.raw(`<h1 class="post-title">`)
			h.text(data.Post.Title)
			h.raw(`</h1><time class="post-date">`)
			h.text(data.Post.Date)
			h.raw(`</time><div class="post-content">`)
			for _, seg := range data.Renderer.Segments(data.Post.Content) {
				if seg.Kind == markdown.KindWidget {
					h.raw(`<div class="widget" data-widget="`)
					h.text(seg.Name)
					h.raw(`"></div>`)
					continue
				}
				h.component(data.Renderer.Markdown(seg.Text, data.Theme))
			}
			h.raw(`</div>`)
		}
		h.raw(`<a class="back-link" href="/">Back to all posts</a></article>`)
		return h.err
	}))
}

// NotFound is shown for unknown posts and routes.
func NotFound(site SiteConfig) templ.Component {
	return Layout(site, PageMeta{Title: "Post Not Found"}, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		h.raw(`<section class="not-found"><h1>Post Not Found</h1>`)
		h.raw(`<p>The post you are looking for does not exist or has been removed.</p>`)
		h.raw(`<a class="back-link" href="/">Back to all posts</a></section>`)
		return h.err
	}))
}

// ServerError is shown when a handler fails.
func ServerError(site SiteConfig) templ.Component {
	return Layout(site, PageMeta{Title: "Something went wrong"}, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		h.raw(`<section class="server-error"><h1>Something went wrong</h1>`)
		h.raw(`<p>Please try again in a moment.</p>`)
		h.raw(`<a class="back-link" href="/">Back to all posts</a></section>`)
		return h.err
	}))
}
