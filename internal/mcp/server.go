package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/yuanlichao666/llm-ops/internal/chunker"
	"github.com/yuanlichao666/llm-ops/internal/config"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/indexer"
	"github.com/yuanlichao666/llm-ops/internal/log"
	"github.com/yuanlichao666/llm-ops/internal/searcher"
	"github.com/yuanlichao666/llm-ops/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "segmenter"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp        *server.MCPServer
	cfg        *config.Config
	storage    storage.Storage
	embedder   embedder.Embedder
	indexer    *indexer.Indexer
	searcher   *searcher.Searcher
	separators *separatorCache
}

// Deps are the collaborators of a Server. Indexer may be nil, in which case
// one is built around a semantic splitter configured from Config.
type Deps struct {
	Config   *config.Config
	Storage  storage.Storage
	Embedder embedder.Embedder
	Indexer  *indexer.Indexer
}

// NewServer opens the database at cfg.Storage.DBPath, creates the embedder
// described by cfg and registers all tools
func NewServer(cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.New(cfg.EmbedderOptions())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	s, err := NewServerWithDeps(Deps{Config: cfg, Storage: store, Embedder: emb})
	if err != nil {
		_ = emb.Close()
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// NewServerWithDeps creates a server around existing collaborators
func NewServerWithDeps(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Storage == nil || deps.Embedder == nil {
		return nil, errors.New("config, storage and embedder are required")
	}

	idx := deps.Indexer
	if idx == nil {
		opts, err := deps.Config.SemanticOptions(deps.Embedder)
		if err != nil {
			return nil, err
		}
		splitter, err := chunker.NewSemanticSplitter(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create splitter: %w", err)
		}
		idx, err = indexer.New(deps.Storage, splitter, deps.Embedder)
		if err != nil {
			return nil, fmt.Errorf("failed to create indexer: %w", err)
		}
		idx.SetBatchSize(deps.Config.Embedder.BatchSize)
	}

	separators, err := newSeparatorCache(separatorCacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		mcp:        server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		cfg:        deps.Config,
		storage:    deps.Storage,
		embedder:   deps.Embedder,
		indexer:    idx,
		searcher:   searcher.New(deps.Storage, deps.Embedder),
		separators: separators,
	}
	s.registerTools()

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	log.Infof("%s %s serving on stdio (embedder %s/%s, storage %s)",
		ServerName, ServerVersion, s.embedder.Provider(), s.embedder.Model(), storage.BuildMode)

	stdio := server.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases the embedder and the database
func (s *Server) Close() error {
	return errors.Join(s.embedder.Close(), s.storage.Close())
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(segmentTextTool(), s.handleSegmentText)
	s.mcp.AddTool(splitTextTool(), s.handleSplitText)
	s.mcp.AddTool(indexDocumentsTool(), s.handleIndexDocuments)
	s.mcp.AddTool(indexTextTool(), s.handleIndexText)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
