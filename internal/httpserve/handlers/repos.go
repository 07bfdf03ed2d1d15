package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/gitgenie/gitgenie/internal/proxy"
	"github.com/gitgenie/gitgenie/internal/server"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/labstack/echo/v4"
)

type fetchReposRequest struct {
	SearchQuery string `json:"searchQuery"`
}

type fetchReposResponse struct {
	Repositories []github.Repository `json:"repositories"`
}

type fetchReposError struct {
	Error string `json:"error"`
}

// setCORSHeaders marks the JSON API as callable from any origin.
func setCORSHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
}

// PreflightRepos answers the CORS preflight for the repository API.
func PreflightRepos(c echo.Context, _ *server.App) error {
	setCORSHeaders(c)
	return c.String(http.StatusOK, "ok")
}

// FetchRepos is the JSON repository endpoint. The caller authenticates with
// a bearer access token; browser calls without one fall back to the current
// server-side session. Every failure maps to a 400 with a JSON error body.
func FetchRepos(c echo.Context, a *server.App) error {
	setCORSHeaders(c)

	bearer := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if bearer == "" {
		if sess := a.Auth.Session(); sess != nil {
			bearer = sess.AccessToken
		}
	}

	var req fetchReposRequest
	if err := c.Bind(&req); err != nil {
		a.Metrics.RecordProxyStatus(http.StatusBadRequest)
		return c.JSON(http.StatusBadRequest, fetchReposError{Error: "invalid request body"})
	}

	list, err := a.Proxy.Invoke(c.Request().Context(), bearer, req.SearchQuery)
	if err != nil {
		logger.Warn("Repository proxy call failed", "error", err)
		a.Metrics.RecordProxyStatus(http.StatusBadRequest)
		return c.JSON(http.StatusBadRequest, fetchReposError{Error: proxyErrorMessage(err)})
	}

	a.Metrics.RecordProxyStatus(http.StatusOK)
	return c.JSON(http.StatusOK, fetchReposResponse{Repositories: list})
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func proxyErrorMessage(err error) string {
	switch {
	case errors.Is(err, proxy.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, proxy.ErrNoProviderToken):
		return proxy.ErrNoProviderToken.Error()
	default:
		return err.Error()
	}
}

// SelectRepository records the operator's pick from the browse grid.
func SelectRepository(c echo.Context, a *server.App) error {
	if !isAuthenticated(c, a) {
		return c.Redirect(http.StatusFound, "/")
	}

	id := c.FormValue("id")
	snap := a.Repos.Snapshot()
	for _, r := range snap.Repositories {
		if idMatches(r.ID, id) {
			logger.Info("Repository selected", "repo", r.FullName)
			if a.OnRepositorySelect != nil {
				a.OnRepositorySelect(r)
			}
			break
		}
	}
	return c.Redirect(http.StatusFound, "/")
}

func idMatches(id int64, raw string) bool {
	return raw != "" && raw == strconv.FormatInt(id, 10)
}
