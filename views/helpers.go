package views

import (
	"context"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// CategoryClass returns CSS classes for a category pill, with active variant.
func CategoryClass(active bool) string {
	if active {
		return "category-pill category-pill-active"
	}
	return "category-pill"
}

// listingHref builds the listing URL for a query and category.
func listingHref(query, category string) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if category != "" {
		v.Set("category", category)
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// htmlWriter writes markup and remembers the first error.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err == nil {
		h.err = c.Render(h.ctx, h.w)
	}
}
