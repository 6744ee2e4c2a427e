package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yuanlichao666/llm-ops/internal/chunker"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/loader"
	"github.com/yuanlichao666/llm-ops/pkg/types"
)

// splitCmd segments files and prints their chunks
func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split FILE...",
		Short: "Segment files into semantic chunks",
		Long:  "Segment each file with the semantic splitter and print its chunks as a JSON array, one array per file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSplit,
	}

	cmd.Flags().String(flagType, "percentile", "Threshold type (percentile, standard_deviation, interquartile, gradient)")
	cmd.Flags().Float64(flagAmount, chunker.DefaultThresholdAmount, "Threshold amount for the chosen type")
	cmd.Flags().Int(flagChunks, 0, "Target number of chunks (percentile only, 0 = unset)")
	cmd.Flags().Int(flagBuffer, 1, "Neighbouring sentences included on each side when embedding")
	cmd.Flags().String(flagSeparator, chunker.DefaultSeparator, "Sentence separator regular expression")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	docs := make([]types.Document, 0, len(args))
	for _, path := range args {
		doc, err := loader.Load(path)
		if err != nil {
			return err
		}
		docs = append(docs, *doc)
	}

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

	chunks, err := chunker.SplitDocuments(cmd.Context(), splitter, docs, cfg.Segmenter.Workers)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	for _, group := range groupBySource(docs, chunks) {
		if err := enc.Encode(group); err != nil {
			return err
		}
	}
	return nil
}

// groupBySource returns the chunk texts of each document in input order.
// A document without chunks yields an empty array.
func groupBySource(docs, chunks []types.Document) [][]string {
	index := make(map[string]int, len(docs))
	groups := make([][]string, len(docs))
	for i, d := range docs {
		index[d.ID] = i
		groups[i] = []string{}
	}
	for _, c := range chunks {
		id, _ := c.Metadata[types.MetaSourceID].(string)
		if i, ok := index[id]; ok {
			groups[i] = append(groups[i], c.Content)
		}
	}
	return groups
}
