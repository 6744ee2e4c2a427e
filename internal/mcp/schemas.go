package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var thresholdTypeEnum = []string{"percentile", "standard_deviation", "interquartile", "gradient"}

// segmentTextTool returns the tool definition for segment_text
func segmentTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "segment_text",
		Description: "Split text into semantically coherent chunks using sentence embeddings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to segment",
				},
				"threshold_type": map[string]interface{}{
					"type":        "string",
					"description": "Statistic used to place breakpoints between sentences",
					"enum":        thresholdTypeEnum,
				},
				"threshold_amount": map[string]interface{}{
					"type":        "number",
					"description": "Percentile in [0,1], number of standard deviations, IQR multiplier, or gradient drop depending on threshold_type",
				},
				"number_of_chunks": map[string]interface{}{
					"type":        "integer",
					"description": "Target number of chunks (percentile only); overrides threshold_amount",
					"minimum":     0,
				},
				"separator": map[string]interface{}{
					"type":        "string",
					"description": "Regular expression separating sentences (default: sentence-ending punctuation)",
				},
				"buffer_size": map[string]interface{}{
					"type":        "integer",
					"description": "Neighbouring sentences on each side included when embedding a sentence",
					"minimum":     0,
				},
			},
			Required: []string{"text", "threshold_type"},
		},
	}
}

// splitTextTool returns the tool definition for split_text
func splitTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "split_text",
		Description: "Split text into size-bounded chunks on separators, without embeddings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to split",
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "character splits on one separator; recursive tries separators in order",
					"enum":        []string{"character", "recursive"},
					"default":     "recursive",
				},
				"separators": map[string]interface{}{
					"type":        "array",
					"description": "Separators to split on; character mode uses the first",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"separators_are_regex": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat separators as regular expressions",
					"default":     false,
				},
				"chunk_size": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum chunk length in characters",
					"minimum":     1,
				},
				"chunk_overlap": map[string]interface{}{
					"type":        "integer",
					"description": "Characters carried over from the end of one chunk into the next",
					"minimum":     0,
				},
				"keep_separator": map[string]interface{}{
					"type":        "boolean",
					"description": "Keep separators attached to the following piece",
				},
			},
			Required: []string{"text", "chunk_size", "chunk_overlap"},
		},
	}
}

// indexDocumentsTool returns the tool definition for index_documents
func indexDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_documents",
		Description: "Segment, embed and store every matching document under a directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the directory to index",
				},
				"include": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns relative to path (default: **/*.txt, **/*.md, **/*.pdf)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index documents whose content is unchanged",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexTextTool returns the tool definition for index_text
func indexTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_text",
		Description: "Segment, embed and store a single text under a source name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Unique name for the text; indexing the same source again replaces it",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to index",
				},
			},
			Required: []string{"source", "text"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Find stored chunks most similar to a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity or normalized BM25 score (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "vector (embedding similarity), text (BM25 keywords) or hybrid (both, fused by rank)",
					"enum":        []string{"vector", "text", "hybrid"},
					"default":     "vector",
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report stored document, chunk and embedding counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
