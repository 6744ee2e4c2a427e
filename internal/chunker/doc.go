// Package chunker splits documents into chunks.
//
// Three splitters implement the Splitter interface:
//
//   - SemanticSplitter cuts where the meaning of the text shifts, measured as
//     the embedding distance between neighbouring sentence windows
//   - CharacterSplitter cuts on one separator and packs pieces to a size
//   - RecursiveSplitter tries a list of separators from coarse to fine
//
// # Semantic Splitting
//
//	s, err := chunker.NewSemanticSplitter(chunker.SemanticConfig{
//	    Embedder:        emb,
//	    BufferSize:      1,
//	    ThresholdType:   breakpoint.Percentile,
//	    ThresholdAmount: 0.9,
//	})
//	chunks, err := s.SplitText(ctx, text)
//
// SplitText runs these stages in order:
//
//  1. Split the text on the separator regex and drop empty sentences.
//  2. Build a context window for every sentence from the BufferSize
//     sentences on each side, concatenated without delimiter.
//  3. Embed all windows as one logical batch.
//  4. Compute the cosine distance between each window and the next.
//     A zero-norm vector counts as distance 1.
//  5. Prepare the breakpoint strategy on the distances and start a new
//     chunk at block i when distance i-1 is a breakpoint.
//  6. Join the sentences of each chunk without separator.
//
// An empty document yields no chunks. A single sentence yields one chunk
// without calling the embedder. If embedding fails, no chunks are returned.
// Joining all chunks gives back the sentences of the input in order.
//
// Segment returns the same chunks together with the blocks, distances,
// breakpoint indices and threshold, which is useful for tuning.
//
// # Size Based Splitting
//
// Character and recursive splitters measure length in runes. Pieces are
// merged greedily up to ChunkSize, and each new chunk starts with up to
// ChunkOverlap runes of trailing pieces from the previous chunk:
//
//	s, _ := chunker.NewRecursiveSplitter(chunker.RecursiveConfig{
//	    ChunkSize:    100,
//	    ChunkOverlap: 20,
//	})
//
// # Many Documents
//
// SplitDocuments applies any splitter to a batch of documents with bounded
// concurrency. Output order follows input order; chunks carry the source
// metadata plus source_id and chunk_index.
package chunker
