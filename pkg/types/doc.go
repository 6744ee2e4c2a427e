// Package types provides shared type definitions for the segmentation service.
//
// # Core Types
//
// Document is the unit that flows through loading and splitting. A loader
// produces one Document per file; a splitter turns one Document into many
// chunk Documents, each carrying a copy of its source's metadata plus the
// "source_id" and "chunk_index" keys:
//
//	doc := types.NewDocument(text, map[string]any{types.MetaSource: "notes.md"})
//	chunks, err := chunker.SplitDocuments(ctx, splitter, []types.Document{doc}, 4)
//
// Chunk is the persisted form of one segment, with a SHA-256 content hash
// and a rough token estimate:
//
//	chunk := types.NewChunk(documentID, 0, "First topic. Still first topic.")
//	if err := chunk.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Search Results
//
// SearchResult pairs a stored chunk with its cosine similarity to a query
// embedding. Scores lie in [-1, 1], higher is closer.
package types
