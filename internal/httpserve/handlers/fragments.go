package handlers

import (
	"net/http"
	"strings"

	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/gitgenie/gitgenie/internal/httpserve/middleware"
	"github.com/gitgenie/gitgenie/internal/repos"
	"github.com/gitgenie/gitgenie/internal/server"
	"github.com/gitgenie/gitgenie/internal/webui"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/gitgenie/gitgenie/pkg/templating"
	"github.com/labstack/echo/v4"
)

// repoCard is the view model for one repository card.
type repoCard struct {
	ID            int64
	Name          string
	Description   string
	HTMLURL       string
	Language      string
	LanguageColor string
	Stars         int
	Forks         int
	UpdatedAt     string
	Private       bool
}

func toRepoCards(list []github.Repository) []repoCard {
	cards := make([]repoCard, 0, len(list))
	for _, r := range list {
		cards = append(cards, repoCard{
			ID:            r.ID,
			Name:          r.Name,
			Description:   templating.SanitizeText(r.Description),
			HTMLURL:       r.HTMLURL,
			Language:      r.Language,
			LanguageColor: templating.LanguageColor(r.Language),
			Stars:         r.StargazersCount,
			Forks:         r.ForksCount,
			UpdatedAt:     templating.FormatDate(r.UpdatedAt),
			Private:       r.Private,
		})
	}
	return cards
}

// filterRepos narrows the list to repositories whose name or description
// contains the term, case-insensitively. An empty term keeps everything.
func filterRepos(list []github.Repository, term string) []github.Repository {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	filtered := make([]github.Repository, 0, len(list))
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Name), term) ||
			strings.Contains(strings.ToLower(r.Description), term) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// RepoListFragment renders the repository grid fragment. The q parameter
// filters the already fetched list locally without a round trip to GitHub.
func RepoListFragment(c echo.Context, a *server.App) error {
	if !isAuthenticated(c, a) {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusUnauthorized)
	}

	snap := a.Repos.Snapshot()
	term := c.QueryParam("q")
	return renderRepoList(c, a, snap, term)
}

// RefreshFragment refreshes the provider session then refetches the list.
func RefreshFragment(c echo.Context, a *server.App) error {
	if !isAuthenticated(c, a) {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusUnauthorized)
	}

	snap := a.Repos.Snapshot()
	if err := a.Repos.Refresh(c.Request().Context(), snap.SearchQuery); err != nil {
		logger.Warn("Refresh failed", "error", err)
	}
	return renderRepoList(c, a, a.Repos.Snapshot(), c.QueryParam("q"))
}

// SearchFragment runs a remote GitHub search for the submitted term.
func SearchFragment(c echo.Context, a *server.App) error {
	if !isAuthenticated(c, a) {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusUnauthorized)
	}

	term := c.FormValue("q")
	if err := a.Repos.Fetch(c.Request().Context(), term); err != nil {
		logger.Warn("Search fetch failed", "term", term, "error", err)
	}
	return renderRepoList(c, a, a.Repos.Snapshot(), "")
}

func renderRepoList(c echo.Context, a *server.App, snap repos.Snapshot, localTerm string) error {
	lang := middleware.Lang(c)
	yamlData := webui.StringsYamlData{}
	if err := webui.ReadStringsDataFromYAML(lang, a.TemplateFS, "strings.yml", &yamlData); err != nil {
		return err
	}

	visible := filterRepos(snap.Repositories, localTerm)

	searchTerm := localTerm
	if searchTerm == "" {
		searchTerm = snap.SearchQuery
	}

	data := map[string]interface{}{
		"Strings":       yamlData.CurrentLang,
		"Loading":       snap.Loading,
		"ErrMsg":        snap.ErrMsg,
		"Repositories":  toRepoCards(visible),
		"SearchTerm":    searchTerm,
		"SkeletonSlots": make([]struct{}, skeletonSlots),
	}

	rendererData, err := templating.GetHTMLRenderer("html/fragments", "repolist.gohtml", a.TemplateFS)
	if err != nil {
		return err
	}

	renderedHTML, err := rendererData.Render(data)
	if err != nil {
		return err
	}

	return c.HTML(http.StatusOK, renderedHTML)
}
