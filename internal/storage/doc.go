// Package storage provides SQLite-based persistence for segmented documents.
//
// The storage layer manages:
//   - Documents, keyed by source path, with the SHA-256 of their text
//   - Chunks produced by a splitter, in document order
//   - Vector embeddings for chunks
//   - An FTS5 full-text index over chunk content
//
// # Database Schema
//
// Tables:
//   - documents: source, content hash, splitter used, chunk count, metadata
//   - chunks: chunk text, index within the document, hash and token estimate
//   - embeddings: little-endian float32 vectors, one per chunk
//   - chunks_fts: FTS5 index kept in sync by triggers
//   - schema_version: applied migrations, ordered by semantic version
//
// Deleting a document cascades to its chunks and their embeddings.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("segmenter.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	doc := &storage.Document{Source: path, ContentHash: hash, ChunkCount: len(chunks)}
//	if err := tx.UpsertDocument(ctx, doc); err != nil {
//	    return err
//	}
//	if err := tx.DeleteChunksByDocument(ctx, doc.ID); err != nil {
//	    return err
//	}
//	for i, text := range chunks {
//	    chunk := storage.FromTypesChunk(types.NewChunk(doc.ID, i, text))
//	    if err := tx.InsertChunk(ctx, chunk); err != nil {
//	        return err
//	    }
//	    if err := tx.UpsertEmbedding(ctx, storage.NewEmbedding(chunk.ID, vectors[i], provider, model)); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Search
//
// SearchVector scores every stored embedding with cosine similarity in Go
// and returns the best matches with their content and source. Embeddings
// whose dimension differs from the query are skipped. SearchText runs a
// BM25 query against the FTS5 index; user input is reduced to quoted terms
// so FTS5 operators are never interpreted.
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler. Building
// with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
package storage
