package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yuanlichao666/llm-ops/internal/log"
	"github.com/yuanlichao666/llm-ops/internal/mcp"
)

// serveCmd runs the MCP server on stdio
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long:  "Serve the segmentation, indexing and search tools over the Model Context Protocol on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Warnf("failed to close server: %v", err)
		}
	}()

	log.Infof("segmenter %s starting, database %s", version, cfg.Storage.DBPath)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	if ctx.Err() != nil && cmd.Context().Err() == nil {
		log.Info("received shutdown signal, stopped")
	}
	return nil
}
