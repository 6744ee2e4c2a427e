package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yuanlichao666/llm-ops/internal/chunker"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/indexer"
	"github.com/yuanlichao666/llm-ops/internal/storage"
)

// indexCmd indexes a directory into the database
func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index DIR",
		Short: "Segment, embed and store the documents under a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndex,
	}

	cmd.Flags().Bool(flagForce, false, "Re-index documents whose content is unchanged")
	cmd.Flags().StringSlice(flagInclude, indexer.DefaultInclude, "Glob patterns relative to DIR")
	cmd.Flags().Int(flagWorkers, 0, "Files indexed concurrently (0 = number of CPUs)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool(flagForce)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	emb, err := embedder.New(cfg.EmbedderOptions())
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	defer func() { _ = emb.Close() }()

	opts, err := cfg.SemanticOptions(emb)
	if err != nil {
		return err
	}
	splitter, err := chunker.NewSemanticSplitter(opts)
	if err != nil {
		return err
	}
	idx, err := indexer.New(store, splitter, emb)
	if err != nil {
		return err
	}
	idx.SetBatchSize(cfg.Embedder.BatchSize)

	stats, err := idx.IndexDirectory(cmd.Context(), root, cfg.IndexOptions(force))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"root":               root,
		"files_discovered":   stats.FilesDiscovered,
		"files_indexed":      stats.FilesIndexed,
		"files_skipped":      stats.FilesSkipped,
		"files_failed":       stats.FilesFailed,
		"chunks_created":     stats.ChunksCreated,
		"embeddings_created": stats.EmbeddingsCreated,
		"duration_ms":        stats.Duration.Milliseconds(),
		"errors":             stats.ErrorMessages,
	})
}
