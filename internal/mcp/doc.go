// Package mcp implements the Model Context Protocol (MCP) server for the segmenter.
//
// The MCP server exposes six tools:
//   - segment_text: Split text into semantically coherent chunks
//   - split_text: Split text on separators into size-bounded chunks
//   - index_documents: Segment, embed and store a directory of documents
//   - index_text: Segment, embed and store a single text
//   - search_chunks: Find stored chunks by vector, keyword or hybrid search
//   - get_status: Report stored document, chunk and embedding counts
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started via the serve command and runs until stdin closes
// or the process receives SIGINT/SIGTERM:
//
//	segmenter serve
//
// # Tool: segment_text
//
//	Request:
//	{
//	  "name": "segment_text",
//	  "arguments": {
//	    "text": "Cats purr. The cat sleeps. Markets fell. The market closed.",
//	    "threshold_type": "percentile",
//	    "threshold_amount": 0.5,
//	    "buffer_size": 1
//	  }
//	}
//
//	Response:
//	{
//	  "chunks": ["Cats purrThe cat sleeps", "Markets fellThe market closed"],
//	  "chunk_count": 2,
//	  "threshold_type": "percentile",
//	  "threshold_amount": 0.5,
//	  "threshold": 0.12,
//	  "sentence_count": 4,
//	  "breakpoints": [1]
//	}
//
// threshold_type must be one of percentile, standard_deviation,
// interquartile or gradient. When threshold_amount is omitted the
// configured amount is used if the configured type matches, otherwise the
// default amount for the type. Custom separators are compiled once and
// kept in an LRU cache.
//
// # Tool: search_chunks
//
//	Request:
//	{
//	  "name": "search_chunks",
//	  "arguments": {"query": "sleeping cats", "limit": 5, "min_score": 0.3, "mode": "vector"}
//	}
//
// mode is vector (default), text (FTS5 BM25, no embedding) or hybrid
// (both, merged with Reciprocal Rank Fusion).
//
//	Response:
//	{
//	  "query": "sleeping cats",
//	  "mode": "vector",
//	  "results": [
//	    {
//	      "rank": 1,
//	      "chunk_id": 12,
//	      "document_id": 3,
//	      "source": "/docs/pets.md",
//	      "chunk_index": 0,
//	      "content": "Cats purrThe cat sleeps",
//	      "score": 0.91
//	    }
//	  ],
//	  "total_results": 1,
//	  "vector_results": 1,
//	  "text_results": 0,
//	  "provider": "openai",
//	  "model": "text-embedding-3-small"
//	}
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "segmenter": {
//	      "command": "/usr/local/bin/segmenter",
//	      "args": ["serve"],
//	      "env": {
//	        "JINA_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// Handlers return *MCPError values:
//
//	{
//	  "code": -32602,
//	  "message": "invalid threshold_type",
//	  "data": {
//	    "param": "threshold_type",
//	    "reason": "must be one of: percentile standard_deviation interquartile gradient"
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Path is not a readable directory
//   - -32002: Indexing in progress
//   - -32003: Embedding provider failed
//   - -32004: Empty query
//
// # Logging
//
// Logs go to stderr; stdout is reserved for the protocol. Tool invocations
// are logged at debug level and failures at error level:
//
//	SEGMENTER_LOG_LEVEL=debug segmenter serve
package mcp
