package retrieval

import (
	"context"
	"fmt"
)

// Logical index names expected by the answer pipeline.
const (
	ResumeIndex  = "resume"
	ProjectIndex = "project"
)

// Retriever combines the embedder and the vector store to find relevant
// context for a query.
type Retriever struct {
	embedder Embedder
	store    *Store
}

func NewRetriever(embedder Embedder, store *Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// HasIndex reports whether the named index is present in storage.
func (r *Retriever) HasIndex(index string) bool {
	return r.store.HasIndex(index)
}

// Retrieve embeds the query and returns the text of the top-K most similar
// chunks from the named index.
func (r *Retriever) Retrieve(ctx context.Context, index, query string, topK int) ([]string, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scored, err := r.store.Search(index, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching index %q: %w", index, err)
	}

	texts := make([]string, len(scored))
	for i, chunk := range scored {
		texts[i] = chunk.Text
	}
	return texts, nil
}
