package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gitgenie/gitgenie/internal/config"
	"github.com/gitgenie/gitgenie/internal/httpserve"
	"github.com/gitgenie/gitgenie/internal/server"
	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GitGenie web server",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "error", err)
	}

	a, err := server.NewApp(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}
	defer a.Close()

	a.Start()

	e := httpserve.NewRouter(a)

	go func() {
		logger.Info("Starting server", "url", cfg.PublicURL())
		if err := e.Start(":" + cfg.Http.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
