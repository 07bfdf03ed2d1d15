package handlers

import (
	"context"
	"net/http"

	"github.com/gitgenie/gitgenie/internal/httpserve/middleware"
	"github.com/gitgenie/gitgenie/internal/server"
	"github.com/gitgenie/gitgenie/internal/webui"
	"github.com/gitgenie/gitgenie/pkg/htmx"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/gitgenie/gitgenie/pkg/templating"
	"github.com/labstack/echo/v4"
)

const skeletonSlots = 6

// Browse renders the repository browsing page, or the login card when no
// one is signed in.
func Browse(c echo.Context, a *server.App) error {
	if !isAuthenticated(c, a) {
		return RenderLoginPage(c, a)
	}

	// A returning browser session means the page was reloaded mid-session:
	// the initial fetch then goes through a token refresh first.
	state, err := getUIState(c, a)
	if err != nil {
		return err
	}
	reloaded, _ := state.Values[cookieInitialized].(bool)
	if !reloaded {
		state.Values[cookieInitialized] = true
		if err := state.Save(c.Request(), c.Response()); err != nil {
			logger.Warn("Could not persist reload marker", "error", err)
		}
	}

	// Detached from the request context: the fetch outlives this render and
	// the fragment endpoint picks the result up.
	go a.Repos.EnsureInitialFetch(context.Background(), reloaded)

	lang := middleware.Lang(c)
	yamlData := webui.StringsYamlData{}
	if err := webui.ReadStringsDataFromYAML(lang, a.TemplateFS, "strings.yml", &yamlData); err != nil {
		return err
	}

	profile := a.Auth.Profile()
	username := ""
	avatarURL := ""
	if profile != nil {
		username = profile.Username
		avatarURL = profile.AvatarURL
	}

	data := map[string]interface{}{
		"Strings":       yamlData.CurrentLang,
		"Username":      username,
		"AvatarURL":     avatarURL,
		"SearchTerm":    a.Repos.Snapshot().SearchQuery,
		"SkeletonSlots": make([]struct{}, skeletonSlots),
	}

	rendererData, err := templating.GetHTMLRenderer("html/browse", "index.gohtml", a.TemplateFS)
	if err != nil {
		return err
	}

	renderedHTML, err := rendererData.Render(data)
	if err != nil {
		return err
	}

	// An htmx-initiated navigation swaps into the existing document; hand
	// back only the repo area instead of nesting a full page.
	if htmx.IsHTMXRequest(c.Request().Header.Get("HX-Request")) {
		if fragment, err := htmx.GetHTMLFragmentByID("repo-area", renderedHTML); err == nil {
			return c.HTML(http.StatusOK, fragment)
		}
	}

	return c.HTML(http.StatusOK, renderedHTML)
}

// isAuthenticated checks both the cookie session and the coordinator: a
// cookie alone is not enough once the server-side session has expired.
func isAuthenticated(c echo.Context, a *server.App) bool {
	sess, err := getSession(c)
	if err != nil {
		return false
	}
	authed, _ := sess.Values[cookieAuthenticated].(bool)
	if !authed {
		return false
	}
	if a.Auth.Loading() {
		// Restore still in flight, trust the cookie for now.
		return true
	}
	return a.Auth.User() != nil
}
