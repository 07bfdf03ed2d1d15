// Package cmd holds the gitgenie command line entry points.
package cmd

import (
	"os"

	"github.com/gitgenie/gitgenie/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gitgenie",
	Short: "GitGenie - browse your GitHub repositories",
	Long: `GitGenie is a single-binary web application that signs you in with
GitHub, keeps your repositories one search away and lets you pick one
to work with.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is ./gitgenie.yml)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
			os.Setenv("GITGENIE_CONFIG", cfgFile)
		}
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Command failed", "error", err)
	}
}
