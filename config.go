package website

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/nathan-a-king/website-sub000/markdown"
	"github.com/nathan-a-king/website-sub000/postclient"
)

// SiteConfig holds all configuration for the site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // default "Blog"
	URL         string `env:"SITE_URL"`         // canonical URL, default "http://localhost:3000"
	Description string `env:"SITE_DESCRIPTION"` // RSS channel description
	Author      string `env:"SITE_AUTHOR"`

	Addr         string `env:"ADDR"`          // default ":3000"
	DatabasePath string `env:"DATABASE_PATH"` // default "data/blog.db"
	StaticDir    string `env:"STATIC_DIR"`    // default "public"

	// PostsAPIURL is where the page loaders fetch posts from. It defaults
	// to the site's own listen address.
	PostsAPIURL  string        `env:"POSTS_API_URL"`
	PostCacheTTL time.Duration `env:"POST_CACHE_TTL"` // default 5m
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT"`  // default 10s
	CodeStyle    string        `env:"CODE_STYLE"`     // chroma style, default "onedark"

	AdminPassword string `env:"ADMIN_PASSWORD"`
	SessionSecret string `env:"SESSION_SECRET"`
	CookieSecure  bool   `env:"COOKIE_SECURE"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"` // empty disables tracing
}

// LoadConfig reads SiteConfig from the environment and fills in defaults.
func LoadConfig() (SiteConfig, error) {
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("website: parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.PostsAPIURL == "" {
		c.PostsAPIURL = localURL(c.Addr)
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.CodeStyle == "" {
		c.CodeStyle = markdown.DefaultCodeStyle
	}
}

func (c SiteConfig) validate() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("website: AdminPassword is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("website: SessionSecret is required")
	}
	return nil
}

// localURL turns a listen address into a URL on the loopback interface.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithPostClientOptions passes options to the posts API client, for
// example a shared HTTP client or injected caches.
func WithPostClientOptions(opts ...postclient.Option) Option {
	return func(a *App) {
		a.clientOpts = append(a.clientOpts, opts...)
	}
}

// WithImageProber replaces how dark image variants are found. By default
// local images are looked up under StaticDir and remote images are probed
// over HTTP.
func WithImageProber(p markdown.ImageProber) Option {
	return func(a *App) {
		a.prober = p
	}
}
