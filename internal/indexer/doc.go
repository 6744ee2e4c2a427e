// Package indexer runs the ingestion pipeline for a directory of documents.
//
// For every file that matches the include globs the indexer:
//
//  1. Loads the file (UTF-8 text or the text layer of a PDF)
//  2. Compares its SHA-256 with the stored document and skips it when unchanged
//  3. Splits the text with the configured splitter
//  4. Embeds the chunks in provider-sized batches
//  5. Replaces the document, its chunks and their embeddings in one transaction
//
// # Basic Usage
//
//	idx, err := indexer.New(store, splitter, emb)
//	if err != nil {
//	    return err
//	}
//
//	stats, err := idx.IndexDirectory(ctx, "/path/to/docs", &indexer.Config{
//	    Include: []string{"**/*.md"},
//	})
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// Embedding happens before the transaction opens, so a provider failure
// leaves the previously stored version of the document untouched.
//
// # Concurrency
//
// Files are processed by an errgroup limited to Config.Workers goroutines.
// A failure in one file is recorded in Statistics.ErrorMessages and the run
// continues; cancelling the context stops it. Only one run may be active per
// Indexer: a second IndexDirectory or IndexText call returns
// ErrIndexingInProgress immediately instead of waiting.
package indexer
