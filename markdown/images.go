package markdown

import (
	"context"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/nathan-a-king/website-sub000/fetchcache"
)

const darkToken = "dark"

// DarkVariant returns the dark-mode counterpart of an image source: the
// "dark" token becomes the second hyphen-delimited segment of the file
// name, so "flow-chart.png" maps to "flow-dark-chart.png" and "chart.png"
// to "chart-dark.png". ok is false when src has no file name or already
// names a dark variant.
func DarkVariant(src string) (dark string, ok bool) {
	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return "", false
	}
	dir, file := path.Split(u.Path)
	if file == "" {
		return "", false
	}
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	if base == "" {
		return "", false
	}
	parts := strings.Split(base, "-")
	if len(parts) > 1 && strings.EqualFold(parts[1], darkToken) {
		return "", false
	}
	parts = append(parts[:1], append([]string{darkToken}, parts[1:]...)...)
	u.Path = dir + strings.Join(parts, "-") + ext
	return u.String(), true
}

// ImageLayout is the layout an image file name asks for.
type ImageLayout int

const (
	LayoutFull ImageLayout = iota
	LayoutSmallLeft
	LayoutSmallRight
)

// LayoutHint reads the layout hint from the file name of src: "small-right"
// floats the image right at partial width, "small" floats it left, and
// anything else is full width.
func LayoutHint(src string) ImageLayout {
	file := strings.ToLower(path.Base(src))
	if i := strings.IndexAny(file, "?#"); i >= 0 {
		file = file[:i]
	}
	switch {
	case strings.Contains(file, "small-right"):
		return LayoutSmallRight
	case strings.Contains(file, "small"):
		return LayoutSmallLeft
	}
	return LayoutFull
}

func (l ImageLayout) class() string {
	switch l {
	case LayoutSmallLeft:
		return "post-image post-image-small float-left"
	case LayoutSmallRight:
		return "post-image post-image-small float-right"
	}
	return "post-image post-image-full"
}

//go:generate mockgen -source=images.go -destination=mock_prober_test.go -package=markdown

// ImageProber reports whether an image source can be loaded.
type ImageProber interface {
	Exists(src string) bool
}

// ProberFunc adapts a function to ImageProber.
type ProberFunc func(src string) bool

func (f ProberFunc) Exists(src string) bool { return f(src) }

// FSProber resolves site-local sources under Prefix against FS. Sources
// outside Prefix, or with a scheme, are reported missing.
type FSProber struct {
	FS     fs.FS
	Prefix string // URL path FS is served under, e.g. "/public/"
}

func (p FSProber) Exists(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	if !strings.HasPrefix(u.Path, p.Prefix) {
		return false
	}
	name := strings.TrimPrefix(u.Path, p.Prefix)
	if !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(p.FS, name)
	return err == nil && !info.IsDir()
}

// HTTPProber probes sources with a HEAD request and remembers each
// answer for TTL, so a variant uploaded after a miss is picked up once
// the miss expires.
type HTTPProber struct {
	Client *http.Client
	// Base resolves relative sources. Leave empty to only probe absolute URLs.
	Base string
	// TTL bounds how long an answer is reused. Zero uses
	// fetchcache.DefaultWindow.
	TTL time.Duration

	now  func() time.Time
	once sync.Once
	seen *fetchcache.Memory[bool]
}

// NewHTTPProber returns an HTTPProber resolving relative sources against base.
func NewHTTPProber(base string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{Client: &http.Client{Timeout: timeout}, Base: base}
}

func (p *HTTPProber) Exists(src string) bool {
	p.once.Do(func() {
		p.seen = fetchcache.NewMemory[bool](p.TTL, p.now)
	})
	if e, ok := p.seen.Get(src); ok && p.seen.IsFresh(e) {
		return e.Data
	}
	ok := p.probe(src)
	p.seen.Set(src, ok)
	return ok
}

func (p *HTTPProber) probe(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		if p.Base == "" {
			return false
		}
		base, err := url.Parse(p.Base)
		if err != nil {
			return false
		}
		u = base.ResolveReference(u)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodHead, u.String(), nil)
	if err != nil {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
