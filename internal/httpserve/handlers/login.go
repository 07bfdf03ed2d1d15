package handlers

import (
	"fmt"
	"net/http"

	"github.com/gitgenie/gitgenie/internal/httpserve/middleware"
	"github.com/gitgenie/gitgenie/internal/server"
	"github.com/gitgenie/gitgenie/internal/webui"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/gitgenie/gitgenie/pkg/templating"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// Cookie session value keys.
const (
	cookieOauthState    = "oauth_state"
	cookieAuthenticated = "authenticated"
	cookieSessionID     = "sessionID"
	cookieUserID        = "userID"
	cookieInitialized   = "app_initialized"
)

// getSession gets the cookie session from the context
func getSession(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get("session", c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Could not get session")
	}
	return sess, nil
}

// getUIState gets the per-tab state cookie. MaxAge 0 keeps it a browser
// session cookie so closing the tab resets the reload marker.
func getUIState(c echo.Context, a *server.App) (*sessions.Session, error) {
	sess, err := session.Get("ui_state", c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Could not get session")
	}
	sess.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Config.Http.Https,
		MaxAge:   0,
		SameSite: http.SameSiteLaxMode,
	}
	return sess, nil
}

// RenderLoginPage renders the login.html template
func RenderLoginPage(c echo.Context, a *server.App) error {
	lang := middleware.Lang(c)
	yamlData := webui.StringsYamlData{}
	if err := webui.ReadStringsDataFromYAML(lang, a.TemplateFS, "strings.yml", &yamlData); err != nil {
		return err
	}

	data := map[string]interface{}{
		"Strings": yamlData.CurrentLang,
		"Error":   notificationText(c.QueryParam("error")),
	}

	rendererData, err := templating.GetHTMLRenderer("html/login", "index.gohtml", a.TemplateFS)
	if err != nil {
		return err
	}

	renderedHTML, err := rendererData.Render(data)
	if err != nil {
		return err
	}

	return c.HTML(http.StatusOK, renderedHTML)
}

// notificationText maps error query params to user-visible notifications.
func notificationText(code string) string {
	switch code {
	case "auth_failed":
		return "Failed to sign in with GitHub. Please try again."
	case "signout_failed":
		return "Failed to sign out. Please try again."
	case "":
		return ""
	default:
		return "Something went wrong. Please try again."
	}
}

// StartOAuthGithub starts the GitHub OAuth flow.
func StartOAuthGithub(c echo.Context, a *server.App) error {
	sess, err := getSession(c)
	if err != nil {
		return err
	}

	state := uuid.NewString()
	sess.Values[cookieOauthState] = state
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}

	logger.Info("Initiating GitHub OAuth flow")
	return c.Redirect(http.StatusFound, a.Auth.SignInURL(state))
}

// OAuthCallback handles the callback response from GitHub OAuth
func OAuthCallback(c echo.Context, a *server.App) error {
	logger.Debug("Starting OAuth callback handler")

	if errParam := c.QueryParam("error"); errParam != "" {
		logger.Warn("OAuth flow denied by provider", "error", errParam)
		return c.Redirect(http.StatusFound, "/?error=auth_failed")
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" {
		return c.Redirect(http.StatusFound, "/?error=auth_failed")
	}

	sess, err := getSession(c)
	if err != nil {
		return err
	}

	expectedState, _ := sess.Values[cookieOauthState].(string)
	if expectedState == "" || state != expectedState {
		logger.Error("Invalid state parameter", "received", state)
		return c.Redirect(http.StatusFound, "/?error=auth_failed")
	}
	delete(sess.Values, cookieOauthState)

	browserInfo := c.Request().UserAgent()
	newSession, err := a.Auth.HandleCallback(c.Request().Context(), code, browserInfo)
	if err != nil {
		logger.Error("OAuth callback failed", "error", err)
		return c.Redirect(http.StatusFound, "/?error=auth_failed")
	}

	sess.Values[cookieAuthenticated] = true
	sess.Values[cookieSessionID] = newSession.ID
	sess.Values[cookieUserID] = newSession.UserID
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("could not save session: %w", err)
	}

	a.Metrics.RecordSignIn()
	logger.Info("OAuth callback successful", "user_id", newSession.UserID)
	return c.Redirect(http.StatusFound, "/")
}

// Logout invalidates the session. Coordinator state clears through the
// SIGNED_OUT event, not here.
func Logout(c echo.Context, a *server.App) error {
	if err := a.Auth.SignOut(); err != nil {
		logger.Error("Error signing out", "error", err)
		return c.Redirect(http.StatusFound, "/?error=signout_failed")
	}

	a.Repos.Reset()

	sess, err := getSession(c)
	if err == nil {
		sess.Values = map[interface{}]interface{}{}
		sess.Options.MaxAge = -1
		_ = sess.Save(c.Request(), c.Response())
	}
	if state, err := getUIState(c, a); err == nil {
		state.Values = map[interface{}]interface{}{}
		state.Options.MaxAge = -1
		_ = state.Save(c.Request(), c.Response())
	}

	return c.Redirect(http.StatusFound, "/")
}
