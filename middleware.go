package website

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const (
	sessionName = "admin_session"
	authKey     = "authenticated"
	csrfCookie  = "_csrf"

	contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)
	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())
	e.Use(middleware.RequestID())
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware("website")))
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))
	e.Use(session.Middleware(a.newSessionStore()))
	e.Use(middleware.CSRFWithConfig(a.csrfConfig()))
	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper:      skipTrailingSlash,
	}))
	e.Use(cacheControl)
}

// requestLogger logs one line per request, tagged with the request ID
// and, when tracing is on, the trace ID.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			sc := trace.SpanContextFromContext(c.Request().Context())
			if sc.HasTraceID() {
				c.Logger().Infof("%s %s -> %d (%s) id=%s trace=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID, sc.TraceID())
				return nil
			}
			c.Logger().Infof("%s %s -> %d (%s) id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}

func (a *App) csrfConfig() middleware.CSRFConfig {
	return middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     csrfCookie,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.JSON(http.StatusForbidden, errorBody("invalid or missing CSRF token"))
		},
	}
}

// skipTrailingSlash lists the paths that are not directory-style pages:
// assets, feeds, the posts API and the admin API's resource routes.
func skipTrailingSlash(c echo.Context) bool {
	path := c.Request().URL.Path
	return strings.HasPrefix(path, "/public") ||
		strings.HasPrefix(path, "/posts/") ||
		strings.HasPrefix(path, "/admin/posts/") ||
		strings.HasPrefix(path, "/admin/images/") ||
		strings.HasSuffix(path, "/preload") ||
		isFeedPath(path)
}

func isFeedPath(path string) bool {
	return path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt"
}

func cacheControl(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		var v string
		switch {
		case strings.HasPrefix(path, "/public/"):
			v = "public, max-age=31536000, immutable"
		case isFeedPath(path):
			v = "public, max-age=86400"
		case strings.HasPrefix(path, "/posts/"):
			// The loaders keep their own freshness window.
			v = "no-cache"
		case strings.HasPrefix(path, "/admin"), strings.HasSuffix(path, "/preload"):
			v = "no-store"
		default:
			v = "public, max-age=300"
		}
		c.Response().Header().Set("Cache-Control", v)
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 12,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// requireAdmin rejects requests without an authenticated admin session.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return c.JSON(http.StatusUnauthorized, errorBody("login required"))
		}
		return next(c)
	}
}

// IsAdmin reports whether the request carries an authenticated session.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	ok, _ := sess.Values[authKey].(bool)
	return ok
}

func setAdminSession(c echo.Context) error {
	return saveAdminSession(c, func(sess *sessions.Session) {
		sess.Values[authKey] = true
	})
}

func clearAdminSession(c echo.Context) error {
	return saveAdminSession(c, func(sess *sessions.Session) {
		delete(sess.Values, authKey)
		sess.Options.MaxAge = -1
	})
}

func saveAdminSession(c echo.Context, edit func(*sessions.Session)) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	edit(sess)
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken returns the CSRF token of the current request.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
