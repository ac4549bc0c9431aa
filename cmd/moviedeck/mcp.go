package main

import (
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/config"
	mcpserver "github.com/vadimtrunov/moviedeck/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand.
// It starts an MCP server over stdin/stdout exposing the movie screens as tools.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start an MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr.
			logger := config.SetupLogger(cfg.App.LogLevel, nil)

			catalog, err := initCatalog(cfg, logger)
			if err != nil {
				return err
			}

			srv := mcpserver.NewServer(mcpserver.Deps{Catalog: catalog}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
