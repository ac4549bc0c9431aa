package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/config"
)

const version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moviedeck",
		Short: "Browse popular movies from TMDb",
		Long: "moviedeck browses today's popular movies and their details from The Movie Database.\n" +
			"Use it from the terminal, or serve it over HTTP, Telegram or MCP.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newPopularCmd(),
		newMovieCmd(),
		newBrowseCmd(),
		newServeCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "moviedeck v%s\n", version)
		},
	}
}
