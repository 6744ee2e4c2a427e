package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yuanlichao666/llm-ops/internal/breakpoint"
	"github.com/yuanlichao666/llm-ops/internal/chunker"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/indexer"
	"github.com/yuanlichao666/llm-ops/internal/log"
	"github.com/yuanlichao666/llm-ops/internal/searcher"
	"github.com/yuanlichao666/llm-ops/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodePathNotFound       = -32001 // Specified path is not a readable directory
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeEmbeddingFailed    = -32003 // Embedding provider failed
	ErrorCodeEmptyQuery         = -32004 // Query has no searchable terms
)

// maxReportedErrors caps the per-file errors returned by index_documents
const maxReportedErrors = 5

// handleSegmentText handles the segment_text tool invocation
func (s *Server) handleSegmentText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req segmentTextRequest
	if err := bindArguments(request, &req); err != nil {
		return nil, err
	}

	separator, err := s.separators.get(req.Separator)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid separator", map[string]interface{}{
			"param":  "separator",
			"reason": err.Error(),
		})
	}

	thresholdType := breakpoint.ParseThresholdType(req.ThresholdType)
	amount := s.thresholdAmount(thresholdType, req.ThresholdAmount)
	bufferSize := s.cfg.Segmenter.BufferSize
	if req.BufferSize != nil {
		bufferSize = *req.BufferSize
	}
	numberOfChunks := s.cfg.Segmenter.NumberOfChunks
	if req.NumberOfChunks > 0 {
		numberOfChunks = req.NumberOfChunks
	}

	log.Debugf("segment_text: %d bytes, %s %.3f, buffer %d", len(req.Text), thresholdType, amount, bufferSize)

	splitter, err := chunker.NewSemanticSplitter(chunker.SemanticConfig{
		Embedder:        s.embedder,
		Separator:       separator,
		BufferSize:      bufferSize,
		ThresholdType:   thresholdType,
		ThresholdAmount: amount,
		NumberOfChunks:  numberOfChunks,
		BatchSize:       s.cfg.Embedder.BatchSize,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid segmentation options", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	seg, err := splitter.Segment(ctx, req.Text)
	if err != nil {
		log.Errorf("segment_text failed: %v", err)
		return nil, newMCPError(segmentErrorCode(err), "segmentation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"chunks":           seg.Chunks,
		"chunk_count":      len(seg.Chunks),
		"threshold_type":   thresholdType.String(),
		"threshold_amount": amount,
		"sentence_count":   len(seg.Blocks),
		"breakpoints":      seg.Breakpoints,
	}
	if seg.HasThreshold && len(seg.Distances) > 0 && !math.IsNaN(seg.Threshold) && !math.IsInf(seg.Threshold, 0) {
		response["threshold"] = seg.Threshold
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSplitText handles the split_text tool invocation
func (s *Server) handleSplitText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req splitTextRequest
	if err := bindArguments(request, &req); err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = "recursive"
	}

	log.Debugf("split_text: %d bytes, %s %d/%d", len(req.Text), req.Mode, req.ChunkSize, req.ChunkOverlap)

	splitter, err := newSizeSplitter(req)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid split options", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	chunks, err := splitter.SplitText(ctx, req.Text)
	if err != nil {
		log.Errorf("split_text failed: %v", err)
		return nil, newMCPError(ErrorCodeInternalError, "split failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"chunks":      chunks,
		"chunk_count": len(chunks),
		"mode":        req.Mode,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexDocuments handles the index_documents tool invocation
func (s *Server) handleIndexDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req indexDocumentsRequest
	if err := bindArguments(request, &req); err != nil {
		return nil, err
	}

	if err := validatePath(req.Path); err != nil {
		return nil, newMCPError(ErrorCodePathNotFound, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	cfg := s.cfg.IndexOptions(req.ForceReindex)
	if len(req.Include) > 0 {
		cfg.Include = req.Include
	}

	log.Debugf("index_documents: %s (force=%t)", req.Path, req.ForceReindex)

	stats, err := s.indexer.IndexDirectory(ctx, req.Path, cfg)
	if err != nil {
		log.Errorf("index_documents %s failed: %v", req.Path, err)
		switch {
		case errors.Is(err, indexer.ErrIndexingInProgress):
			return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
		case errors.Is(err, indexer.ErrInvalidPattern):
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid include pattern", map[string]interface{}{
				"param":  "include",
				"reason": err.Error(),
			})
		default:
			return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	response := map[string]interface{}{
		"indexed":            true,
		"files_discovered":   stats.FilesDiscovered,
		"files_indexed":      stats.FilesIndexed,
		"files_skipped":      stats.FilesSkipped,
		"files_failed":       stats.FilesFailed,
		"chunks_created":     stats.ChunksCreated,
		"embeddings_created": stats.EmbeddingsCreated,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexText handles the index_text tool invocation
func (s *Server) handleIndexText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req indexTextRequest
	if err := bindArguments(request, &req); err != nil {
		return nil, err
	}

	log.Debugf("index_text: %s, %d bytes", req.Source, len(req.Text))

	res, err := s.indexer.IndexText(ctx, req.Source, req.Text)
	if err != nil {
		log.Errorf("index_text %s failed: %v", req.Source, err)
		if errors.Is(err, indexer.ErrIndexingInProgress) {
			return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
		}
		return nil, newMCPError(segmentErrorCode(err), "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"document_id": res.DocumentID,
		"source":      res.Source,
		"chunk_count": res.ChunkCount,
		"skipped":     res.Skipped,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req searchChunksRequest
	if err := bindArguments(request, &req); err != nil {
		var mcpErr *MCPError
		if errors.As(err, &mcpErr) && req.Query == "" {
			mcpErr.Code = ErrorCodeEmptyQuery
		}
		return nil, err
	}

	log.Debugf("search_chunks: %q mode %q limit %d min_score %.2f", req.Query, req.Mode, req.Limit, req.MinScore)

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Query:    req.Query,
		Limit:    req.Limit,
		Mode:     searcher.Mode(req.Mode),
		MinScore: req.MinScore,
	})
	if err != nil {
		log.Errorf("search_chunks failed: %v", err)
		return nil, searchError(err)
	}

	items := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		if err := r.Validate(); err != nil {
			log.Warnf("search_chunks: skipping chunk %d: %v", r.ChunkID, err)
			continue
		}
		items = append(items, map[string]interface{}{
			"rank":        r.Rank,
			"chunk_id":    r.ChunkID,
			"document_id": r.DocumentID,
			"source":      r.Source,
			"chunk_index": r.ChunkIndex,
			"content":     r.Content,
			"score":       r.Score,
		})
	}

	response := map[string]interface{}{
		"query":          req.Query,
		"mode":           resp.Mode,
		"results":        items,
		"total_results":  len(items),
		"vector_results": resp.VectorResults,
		"text_results":   resp.TextResults,
	}
	if resp.Provider != "" {
		response["provider"] = resp.Provider
		response["model"] = resp.Model
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// searchError maps searcher failures to an MCP error
func searchError(err error) error {
	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, searcher.ErrQueryEmbedding):
		return newMCPError(ErrorCodeEmbeddingFailed, "failed to embed query", data)
	case errors.Is(err, searcher.ErrEmptyQuery), errors.Is(err, storage.ErrEmptyQuery):
		return newMCPError(ErrorCodeEmptyQuery, "query has no searchable terms", data)
	case errors.Is(err, searcher.ErrInvalidLimit), errors.Is(err, searcher.ErrUnsupportedMode):
		return newMCPError(ErrorCodeInvalidParams, "invalid search options", data)
	}
	return newMCPError(ErrorCodeInternalError, "search failed", data)
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		log.Errorf("get_status failed: %v", err)
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	statistics := map[string]interface{}{
		"documents_count":  status.DocumentsCount,
		"chunks_count":     status.ChunksCount,
		"embeddings_count": status.EmbeddingsCount,
		"index_size_mb":    fmt.Sprintf("%.2f", status.SizeMB),
	}
	if !status.LastIndexedAt.IsZero() {
		statistics["last_indexed_at"] = status.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	response := map[string]interface{}{
		"indexed":    status.DocumentsCount > 0,
		"statistics": statistics,
		"embedder": map[string]interface{}{
			"provider":  s.embedder.Provider(),
			"model":     s.embedder.Model(),
			"dimension": s.embedder.Dimension(),
		},
		"storage": map[string]interface{}{
			"schema_version": status.SchemaVersion,
			"build_mode":     status.BuildMode,
		},
		"indexing": s.indexer.Busy(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// thresholdAmount picks the request amount, then the configured amount when
// the configured type matches, then the default for t
func (s *Server) thresholdAmount(t breakpoint.ThresholdType, requested *float64) float64 {
	if requested != nil {
		return *requested
	}
	if breakpoint.ParseThresholdType(s.cfg.Segmenter.ThresholdType) == t {
		return s.cfg.Segmenter.ThresholdAmount
	}
	return breakpoint.DefaultAmount(t)
}

// newSizeSplitter builds the character or recursive splitter for req
func newSizeSplitter(req splitTextRequest) (chunker.Splitter, error) {
	if req.Mode == "character" {
		cfg := chunker.CharacterConfig{
			Separator:        "\n\n",
			SeparatorIsRegex: req.SeparatorsAreRegex,
			ChunkSize:        req.ChunkSize,
			ChunkOverlap:     req.ChunkOverlap,
		}
		if len(req.Separators) > 0 {
			cfg.Separator = req.Separators[0]
		}
		if req.KeepSeparator != nil {
			cfg.KeepSeparator = *req.KeepSeparator
		}
		return chunker.NewCharacterSplitter(cfg)
	}

	cfg := chunker.RecursiveConfig{
		Separators:         req.Separators,
		SeparatorsAreRegex: req.SeparatorsAreRegex,
		ChunkSize:          req.ChunkSize,
		ChunkOverlap:       req.ChunkOverlap,
		KeepSeparator:      true,
	}
	if req.KeepSeparator != nil {
		cfg.KeepSeparator = *req.KeepSeparator
	}
	return chunker.NewRecursiveSplitter(cfg)
}

// segmentErrorCode maps pipeline failures to an MCP error code
func segmentErrorCode(err error) int {
	if errors.Is(err, embedder.ErrProviderFailed) ||
		errors.Is(err, embedder.ErrNoProviderEnabled) ||
		errors.Is(err, embedder.ErrVectorCountMismatch) ||
		errors.Is(err, chunker.ErrDimensionMismatch) {
		return ErrorCodeEmbeddingFailed
	}
	return ErrorCodeInternalError
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path is an absolute, readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
