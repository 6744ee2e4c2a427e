package chunker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yuanlichao666/llm-ops/pkg/types"
)

// DefaultWorkers bounds SplitDocuments concurrency when workers <= 0
const DefaultWorkers = 4

// Splitter turns one text into ordered chunks
type Splitter interface {
	SplitText(ctx context.Context, text string) ([]string, error)
}

var (
	_ Splitter = (*SemanticSplitter)(nil)
	_ Splitter = (*CharacterSplitter)(nil)
	_ Splitter = (*RecursiveSplitter)(nil)
)

// SplitDocuments splits every document with s using up to workers
// goroutines. The result lists the chunks of docs[0] first, then docs[1],
// and so on. Each chunk carries a copy of its source metadata plus
// source_id and chunk_index. The first error cancels the remaining work and
// is returned without partial output.
func SplitDocuments(ctx context.Context, s Splitter, docs []types.Document, workers int) ([]types.Document, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([][]types.Document, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range docs {
		doc := &docs[i]
		g.Go(func() error {
			chunks, err := s.SplitText(gctx, doc.Content)
			if err != nil {
				return fmt.Errorf("split document %s: %w", doc.Source(), err)
			}

			out := make([]types.Document, len(chunks))
			for j, c := range chunks {
				meta := doc.CloneMetadata()
				meta[types.MetaSourceID] = doc.ID
				meta[types.MetaChunkIndex] = j
				out[j] = types.NewDocument(c, meta)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	flat := make([]types.Document, 0, total)
	for _, r := range results {
		flat = append(flat, r...)
	}
	return flat, nil
}
