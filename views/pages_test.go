package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"

	"github.com/nathan-a-king/website-sub000/markdown"
	"github.com/nathan-a-king/website-sub000/post"
)

var testSite = SiteConfig{Name: "Blog", URL: "https://example.com", Description: "Notes"}

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return doc
}

func TestLayoutHead(t *testing.T) {
	tests := []struct {
		name     string
		meta     PageMeta
		title    string
		desc     string
		wantCSRF bool
	}{
		{"site defaults", PageMeta{}, "Blog", "Notes", false},
		{"page values", PageMeta{Title: "Hello", Description: "About hello", CSRFToken: "tok"}, "Hello | Blog", "About hello", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := render(t, Layout(testSite, tt.meta, templ.NopComponent))
			if got := doc.Find("title").Text(); got != tt.title {
				t.Errorf("title = %q, want %q", got, tt.title)
			}
			if got, _ := doc.Find(`meta[name="description"]`).Attr("content"); got != tt.desc {
				t.Errorf("description = %q, want %q", got, tt.desc)
			}
			if got := doc.Find(`meta[name="csrf-token"]`).Length() == 1; got != tt.wantCSRF {
				t.Errorf("csrf meta present = %v, want %v", got, tt.wantCSRF)
			}
		})
	}
}

func TestHome(t *testing.T) {
	data := HomeData{
		Posts: []post.Summary{
			{Slug: "b", Title: "<B>", Excerpt: "second", Date: "2024-02-01"},
			{Slug: "a", Title: "A", Excerpt: "first", Date: "2024-01-01"},
		},
		Categories: []string{"go", "machine-learning"},
		Query:      "x",
		Category:   "Go",
	}
	doc := render(t, Home(testSite, PageMeta{}, data))

	cards := doc.Find("li.post-card")
	if cards.Length() != 2 {
		t.Fatalf("cards = %d, want 2", cards.Length())
	}
	first := cards.First().Find("a")
	if href, _ := first.Attr("href"); href != "/blog/b/" {
		t.Errorf("href = %q", href)
	}
	if slug, _ := first.Attr("data-preload"); slug != "b" {
		t.Errorf("data-preload = %q", slug)
	}
	cards.Each(func(i int, card *goquery.Selection) {
		want := data.Posts[i].Slug
		link := card.Find("a[data-preload]")
		if link.Length() != 1 {
			t.Errorf("card %d has %d preload links, want 1", i, link.Length())
			return
		}
		if slug, _ := link.Attr("data-preload"); slug != want {
			t.Errorf("card %d data-preload = %q, want %q", i, slug, want)
		}
		if href, _ := link.Attr("href"); href != post.Link(want) {
			t.Errorf("card %d preload link href = %q, want %q", i, href, post.Link(want))
		}
	})
	if got := first.Find("h2").Text(); got != "<B>" {
		t.Errorf("title text = %q, want it escaped and preserved", got)
	}

	if got := doc.Find("a.category-pill-active").Text(); got != "Go" {
		t.Errorf("active pill = %q", got)
	}
	if href, _ := doc.Find("nav.categories a").Eq(2).Attr("href"); href != "/?category=machine-learning&q=x" {
		t.Errorf("category href = %q", href)
	}
	if got := doc.Find("nav.categories a").Eq(2).Text(); got != "Machine Learning" {
		t.Errorf("category label = %q", got)
	}
	if v, _ := doc.Find(`input[name="category"]`).Attr("value"); v != "Go" {
		t.Errorf("hidden category = %q", v)
	}
	if doc.Find("p.no-posts").Length() != 0 {
		t.Error("empty message shown with posts present")
	}
}

func TestHomeLoadError(t *testing.T) {
	doc := render(t, Home(testSite, PageMeta{}, HomeData{Err: "Posts are unavailable."}))
	if got := doc.Find("p.load-error").Text(); got != "Posts are unavailable." {
		t.Errorf("error = %q", got)
	}
	if doc.Find("p.no-posts").Length() != 0 {
		t.Error("empty message should give way to the load error")
	}
	if doc.Find("nav.categories").Length() != 0 {
		t.Error("no category nav without categories")
	}
}

func TestPostPage(t *testing.T) {
	r := markdown.NewRenderer()
	data := PostData{
		Post: post.Detail{
			Slug:    "p",
			Title:   "Post",
			Date:    "2024-01-01",
			Content: "Before.\n\n[[chatbot]]\n\nAfter.",
		},
		Renderer: r,
		Stale:    true,
	}
	doc := render(t, PostPage(testSite, PageMeta{Title: "Post"}, data))

	article := doc.Find("article.post")
	if _, ok := article.Attr("data-stale"); !ok {
		t.Error("stale content should be marked")
	}
	children := doc.Find("div.post-content").Children()
	if children.Length() != 3 {
		t.Fatalf("content children = %d, want 3", children.Length())
	}
	if name, _ := children.Eq(1).Attr("data-widget"); name != "chatbot" {
		t.Errorf("widget = %q", name)
	}
	if got := children.Eq(2).Text(); got != "After." {
		t.Errorf("trailing segment = %q", got)
	}
}

func TestPostPageErrorOnly(t *testing.T) {
	data := PostData{Renderer: markdown.NewRenderer(), Err: "Could not load this post."}
	doc := render(t, PostPage(testSite, PageMeta{}, data))

	if got := doc.Find("p.load-error").Text(); got != "Could not load this post." {
		t.Errorf("error = %q", got)
	}
	if doc.Find("h1.post-title").Length() != 0 {
		t.Error("no title without a post")
	}
	if _, ok := doc.Find("article.post").Attr("data-stale"); ok {
		t.Error("fresh page marked stale")
	}
}

func TestNotFound(t *testing.T) {
	doc := render(t, NotFound(testSite))
	if got := doc.Find("h1").Text(); got != "Post Not Found" {
		t.Errorf("heading = %q", got)
	}
	if got := doc.Find("title").Text(); got != "Post Not Found | Blog" {
		t.Errorf("title = %q", got)
	}
	if got := doc.Find("a.back-link").Text(); got != "Back to all posts" {
		t.Errorf("link = %q", got)
	}
}

func TestCategoryClass(t *testing.T) {
	if got := CategoryClass(true); got != "category-pill category-pill-active" {
		t.Errorf("active = %q", got)
	}
	if got := CategoryClass(false); got != "category-pill" {
		t.Errorf("inactive = %q", got)
	}
}
