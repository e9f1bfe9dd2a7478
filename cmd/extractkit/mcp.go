package main

import (
	"log/slog"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/vivaneiona/extractkit"
	"github.com/vivaneiona/extractkit/internal/config"
	"github.com/vivaneiona/extractkit/internal/tool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the extraction tools over MCP on stdio",
	Long: `MCP starts a Model Context Protocol server on stdin/stdout exposing the
extract_fields and explain_extraction tools.

The configuration file is watched; edits take effect on the next tool call.
An edit that fails to build a new extractor is logged and the previous one
stays in use.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := slog.Default()

		x, err := buildExtractor(ctx, cfgManager.Get(), defaultOverrides(), log)
		if err != nil {
			return err
		}
		var current atomic.Pointer[extractkit.Extractor]
		current.Store(x)

		if cfgManager.ConfigFile() != "" {
			cfgManager.OnChange(func(cfg *config.Config) {
				next, err := buildExtractor(ctx, cfg, defaultOverrides(), log)
				if err != nil {
					log.Warn("Ignoring configuration change", "error", err)
					return
				}
				current.Store(next)
				log.Info("Configuration reloaded", "file", cfgManager.ConfigFile())
			})
			cfgManager.WatchConfig()
		}

		server := mcp.NewServer(&mcp.Implementation{Name: "extractkit", Version: version}, nil)
		tool.Register(server, current.Load)

		log.Info("Serving MCP on stdio", "tools", []string{tool.MetadataExtractFields.Name, tool.MetadataExplainExtraction.Name})
		return server.Run(ctx, &mcp.StdioTransport{})
	},
}
