// Package httpserve wires the echo server: routes, middleware and static
// assets.
package httpserve

import (
	"net/http"

	"github.com/gitgenie/gitgenie/internal/httpserve/handlers"
	mw "github.com/gitgenie/gitgenie/internal/httpserve/middleware"
	"github.com/gitgenie/gitgenie/internal/server"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// bind adapts an app-aware handler to an echo.HandlerFunc.
func bind(a *server.App, h func(echo.Context, *server.App) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h(c, a)
	}
}

// NewRouter builds the echo instance with all application routes.
func NewRouter(a *server.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	store := sessions.NewCookieStore([]byte(a.Config.Session.Secret))
	// The gorilla default (Secure + SameSite=None) makes browsers reject the
	// cookie over plain HTTP, which would break the OAuth state round trip.
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Config.Http.Https,
		MaxAge:   86400,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	e.Use(mw.HTTPAccessLogger())
	e.Use(mw.LanguageDetection)

	// Pages
	e.GET("/", bind(a, handlers.Browse))

	// OAuth flow
	e.GET("/login/oauth/github", bind(a, handlers.StartOAuthGithub))
	e.GET("/oauth/callback", bind(a, handlers.OAuthCallback))
	e.POST("/logout", bind(a, handlers.Logout))

	// JSON repository API
	e.POST("/api/repos", bind(a, handlers.FetchRepos))
	e.OPTIONS("/api/repos", bind(a, handlers.PreflightRepos))

	// htmx fragments
	e.GET("/fragments/repos", bind(a, handlers.RepoListFragment))
	e.POST("/fragments/refresh", bind(a, handlers.RefreshFragment))
	e.POST("/fragments/search", bind(a, handlers.SearchFragment))

	e.POST("/select", bind(a, handlers.SelectRepository))

	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	e.StaticFS("/assets", a.PublicFS)

	return e
}
