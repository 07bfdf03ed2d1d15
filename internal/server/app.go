// Package server assembles the application: configuration, database,
// session store, coordinators and the embedded web UI.
package server

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/gitgenie/gitgenie/internal/auth"
	"github.com/gitgenie/gitgenie/internal/config"
	"github.com/gitgenie/gitgenie/internal/db"
	"github.com/gitgenie/gitgenie/internal/github"
	"github.com/gitgenie/gitgenie/internal/metrics"
	"github.com/gitgenie/gitgenie/internal/proxy"
	"github.com/gitgenie/gitgenie/internal/repos"
	"github.com/gitgenie/gitgenie/internal/session"
	"github.com/gitgenie/gitgenie/internal/webui"
	"github.com/gitgenie/gitgenie/pkg/logger"
)

// App holds every long-lived component. It is constructed once at startup
// and injected by reference into the HTTP handlers.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Sessions *session.Store
	Auth     *auth.Coordinator
	Repos    *repos.Coordinator
	Proxy    *proxy.Service
	Github   *github.Client
	Metrics  *metrics.Collector

	TemplateFS fs.FS
	PublicFS   fs.FS
	StartTime  time.Time

	// OnRepositorySelect is invoked with the full repository record when
	// the user picks a card. Replaceable by the embedding caller.
	OnRepositorySelect func(github.Repository)
}

// NewApp wires the application from configuration.
func NewApp(cfg *config.Config) (*App, error) {
	database, err := db.InitializeDB(filepath.Join(cfg.General.StorageDir, "db"))
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient()
	store := session.NewStore(database, cfg.Session.Secret, time.Duration(cfg.Session.TTLHours)*time.Hour)

	oauth := auth.NewGithubOAuth(auth.OAuthConfig{
		ClientID:     cfg.Github.ClientID,
		ClientSecret: cfg.Github.ClientSecret,
		RedirectURL:  cfg.OauthCallbackURL(),
	}, ghClient)

	authC := auth.NewCoordinator(store, database, oauth)
	proxySvc := proxy.NewService(database, store, ghClient)
	collector := metrics.NewCollector()
	reposC := repos.NewCoordinator(authC, store, proxySvc, collector)

	a := &App{
		Config:     cfg,
		DB:         database,
		Sessions:   store,
		Auth:       authC,
		Repos:      reposC,
		Proxy:      proxySvc,
		Github:     ghClient,
		Metrics:    collector,
		TemplateFS: webui.TemplateFS,
		PublicFS:   webui.PublicFS,
		StartTime:  time.Now(),
		OnRepositorySelect: func(repo github.Repository) {
			logger.Info("Repository selected", "name", repo.FullName, "id", repo.ID)
		},
	}

	return a, nil
}

// Start begins session restoration and event handling.
func (a *App) Start() {
	a.Auth.Start()
}

// Close tears down coordinators, the session store and the database.
func (a *App) Close() {
	a.Auth.Close()
	a.Sessions.Close()
	if err := db.CloseDB(a.DB); err != nil {
		logger.Error("Error closing database", "error", err)
	}
}
