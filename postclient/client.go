// Package postclient loads the posts index and individual posts from the
// posts API and keeps them in fetch caches.
//
// Cached posts are served stale-while-revalidate: a cached post is
// returned immediately, and a stale one is refetched in the background.
package postclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/nathan-a-king/website-sub000/fetchcache"
	"github.com/nathan-a-king/website-sub000/post"
)

const (
	indexKey       = "index"
	indexPath      = "/posts/index.json"
	postsPath      = "/posts/"
	maxBodyBytes   = 8 << 20
	defaultTimeout = 10 * time.Second
)

var (
	// ErrNotFound is returned when the posts API answers 404 for a slug.
	ErrNotFound = errors.New("post not found")
	// ErrFetchFailed wraps every other failure to fetch a resource.
	ErrFetchFailed = errors.New("fetch failed")
)

// StatusError reports a non-success HTTP status from the posts API.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// Logger is the logging surface the client needs. echo.Logger and
// gommon's *log.Logger both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Client fetches posts from a posts API rooted at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
	index   fetchcache.Cache[[]post.Summary]
	posts   fetchcache.Cache[post.Detail]
	group   singleflight.Group
	logger  Logger
	tracer  trace.Tracer

	mu       sync.Mutex
	failures map[string]error // slug -> last failed fetch, cleared on success
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for fetches.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithIndexCache sets the cache holding the posts index.
func WithIndexCache(cache fetchcache.Cache[[]post.Summary]) Option {
	return func(c *Client) {
		c.index = cache
	}
}

// WithPostCache sets the cache holding posts by slug.
func WithPostCache(cache fetchcache.Cache[post.Detail]) Option {
	return func(c *Client) {
		c.posts = cache
	}
}

// WithLogger sets the logger. Preload failures are logged at debug level.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New returns a Client for the posts API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		index:  fetchcache.NewMemory[[]post.Summary](fetchcache.DefaultWindow, nil),
		posts:  fetchcache.NewMemory[post.Detail](fetchcache.DefaultWindow, nil),
		tracer:   otel.Tracer("github.com/nathan-a-king/website-sub000/postclient"),
		failures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New("postclient")
	}
	return c
}

// LoadIndex returns the posts index. A fresh cached index is returned
// without a request. A failed fetch leaves any cached index in place.
func (c *Client) LoadIndex(ctx context.Context) ([]post.Summary, error) {
	if e, ok := c.index.Get(indexKey); ok && c.index.IsFresh(e) {
		return e.Data, nil
	}
	v, err := c.shared(ctx, indexKey, func(ctx context.Context) (interface{}, error) {
		var posts []post.Summary
		if err := c.getJSON(ctx, indexPath, &posts); err != nil {
			return nil, err
		}
		c.index.Set(indexKey, posts)
		return posts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]post.Summary), nil
}

// Refresh is the outcome of a background refetch.
type Refresh struct {
	Post post.Detail
	Err  error
}

// PostResult is what LoadPost hands back.
type PostResult struct {
	Post post.Detail
	// Cached is set when Post came from the cache rather than a fetch.
	Cached bool
	// Stale is set when the cached Post was older than the freshness
	// window. Refresh then receives exactly one value once the background
	// refetch completes. The channel is buffered; an unread result is
	// dropped but the cache is still updated.
	Stale   bool
	Refresh <-chan Refresh
	// RefreshErr is the error of the last fetch of this slug when it
	// failed and no fetch has succeeded since. It is only set on stale
	// results, whose content the failure kept from being replaced.
	RefreshErr error
}

// LoadPost returns the post for slug.
//
// Without a cached entry the post is fetched; a 404 yields ErrNotFound
// and any other failure an error wrapping ErrFetchFailed. With a cached
// entry the cached post is returned at once, and if it is stale a
// background refetch is started.
func (c *Client) LoadPost(ctx context.Context, slug string) (PostResult, error) {
	if e, ok := c.posts.Get(slug); ok {
		res := PostResult{Post: e.Data, Cached: true}
		if !c.posts.IsFresh(e) {
			res.Stale = true
			res.RefreshErr = c.LastError(slug)
			res.Refresh = c.revalidate(context.WithoutCancel(ctx), slug)
		}
		return res, nil
	}
	p, err := c.fetchPost(ctx, slug)
	if err != nil {
		return PostResult{}, err
	}
	return PostResult{Post: p}, nil
}

func (c *Client) revalidate(ctx context.Context, slug string) <-chan Refresh {
	ch := make(chan Refresh, 1)
	go func() {
		p, err := c.fetchPost(ctx, slug)
		if err != nil {
			c.logger.Warnf("refresh %s: %v", slug, err)
		}
		ch <- Refresh{Post: p, Err: err}
	}()
	return ch
}

// Cached returns the cached post for slug regardless of freshness.
func (c *Client) Cached(slug string) (post.Detail, bool) {
	e, ok := c.posts.Get(slug)
	return e.Data, ok
}

// LastError returns the error of the last fetch of slug, or nil when it
// succeeded or none has run.
func (c *Client) LastError(slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[slug]
}

// recordFetch remembers a failure only for slugs with cached content, the
// only ones a later load can still serve.
func (c *Client) recordFetch(slug string, err error) {
	if err != nil {
		if _, ok := c.posts.Get(slug); !ok {
			return
		}
	}
	c.mu.Lock()
	if err != nil {
		c.failures[slug] = err
	} else {
		delete(c.failures, slug)
	}
	c.mu.Unlock()
}

// shared runs fn once for all concurrent callers of key. fn gets a
// context detached from any one caller's cancellation, so a caller that
// gives up does not fail the fetch for the others; the HTTP client
// timeout still bounds it. Each caller stops waiting when its own ctx
// is done.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, ctx.Err())
	}
}

// fetchPost fetches slug and stores it on success. Concurrent fetches of
// the same slug share one request.
func (c *Client) fetchPost(ctx context.Context, slug string) (post.Detail, error) {
	v, err := c.shared(ctx, "post:"+slug, func(ctx context.Context) (interface{}, error) {
		var p post.Detail
		if err := c.getJSON(ctx, postsPath+url.PathEscape(slug), &p); err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Status == http.StatusNotFound {
				c.recordFetch(slug, ErrNotFound)
				return nil, ErrNotFound
			}
			c.recordFetch(slug, err)
			return nil, err
		}
		c.posts.Set(slug, p)
		c.recordFetch(slug, nil)
		return p, nil
	})
	if err != nil {
		return post.Detail{}, err
	}
	return v.(post.Detail), nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "postclient.get", trace.WithAttributes(attribute.String("posts.path", path)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w", ErrFetchFailed, &StatusError{URL: u, Status: resp.StatusCode})
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrFetchFailed, u, err)
	}
	return nil
}
