package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuanlichao666/llm-ops/internal/log"
	"github.com/yuanlichao666/llm-ops/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Error(err)
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

// rootCmd builds the segmenter command tree
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "segmenter",
		Short:         "Semantic text segmentation engine",
		Long:          "Split text into semantically coherent chunks, index documents and serve the tools over MCP",
		Version:       fmt.Sprintf("%s (built %s, storage %s, driver %s)", version, buildTime, storage.BuildMode, storage.DriverName),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("segmenter {{.Version}}\n")

	root.PersistentFlags().String(flagEnvFile, ".env", "Path to a dotenv file with SEGMENTER_* or provider API key variables")
	root.PersistentFlags().String(flagDBPath, "", "Path to the SQLite database (default ~/.segmenter/segmenter.db)")
	root.PersistentFlags().String(flagLogLevel, "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String(flagProvider, "", "Embedding provider (jina, openai, local); auto-detected when empty")
	root.PersistentFlags().String(flagModel, "", "Embedding model override")

	root.AddCommand(
		serveCmd(),
		splitCmd(),
		indexCmd(),
	)

	return root
}
