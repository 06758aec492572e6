// Package post holds the post types shared by the posts API, the loaders
// that consume it and the page templates.
package post

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Summary is one entry of the posts index.
type Summary struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Date       string   `json:"date"`
	Categories []string `json:"categories,omitempty"`
}

// Detail is a full post as served by the per-slug resource. Content is
// markdown and may contain widget markers.
type Detail struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Date       string   `json:"date"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Content    string   `json:"content"`
	FirstImage string   `json:"firstImage,omitempty"`
}

// Summary returns the index entry for d.
func (d Detail) Summary() Summary {
	return Summary{
		Slug:       d.Slug,
		Title:      d.Title,
		Excerpt:    d.Excerpt,
		Date:       d.Date,
		Categories: d.Categories,
	}
}

// Link returns the page path of the post.
func Link(slug string) string {
	return "/blog/" + slug + "/"
}

// NormalizeCategory lowercases and trims a category for comparison.
func NormalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// HasCategory reports whether s is filed under category.
func (s Summary) HasCategory(category string) bool {
	want := NormalizeCategory(category)
	for _, c := range s.Categories {
		if NormalizeCategory(c) == want {
			return true
		}
	}
	return false
}

// Filter returns the summaries matching query and category. An empty
// query or category matches everything. The query is matched case
// insensitively against the title and excerpt.
func Filter(posts []Summary, query, category string) []Summary {
	query = strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)
	if query == "" && category == "" {
		return posts
	}
	var out []Summary
	for _, p := range posts {
		if category != "" && !p.HasCategory(category) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Excerpt), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns the sorted, deduplicated normalized categories of posts.
func Categories(posts []Summary) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		for _, c := range p.Categories {
			if n := NormalizeCategory(c); n != "" {
				set[n] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// CategoryLabel returns the display form of a normalized category.
func CategoryLabel(category string) string {
	// A Caser keeps state between calls, so it is not shared.
	return cases.Title(language.English).String(strings.ReplaceAll(category, "-", " "))
}
