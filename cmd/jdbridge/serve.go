package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/config"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/logging"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/orchestrator"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/proxyclient"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engine's tools over MCP on stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	defer logging.Cleanup()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Logger.Infow("starting jdbridge",
		logging.FieldHost, "localhost",
		logging.FieldPort, cfg.JDWPPort,
	)

	sess := session.New()
	proxy := proxyclient.New("localhost", cfg.ProxyHTTPPort())
	orch := orchestrator.New(sess, proxy, "localhost", cfg.JDWPPort)

	return orch.Serve()
}
