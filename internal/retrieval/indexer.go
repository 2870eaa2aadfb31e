package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Indexer builds the resume and project indices from raw candidate data.
type Indexer struct {
	embedder Embedder
	store    *Store
	logger   *zap.Logger
}

func NewIndexer(embedder Embedder, store *Store, logger *zap.Logger) *Indexer {
	return &Indexer{embedder: embedder, store: store, logger: logger}
}

// BuildResumeIndex replaces the resume index with a single chunk holding the
// whole resume document.
func (ix *Indexer) BuildResumeIndex(ctx context.Context, data map[string]any) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding resume text: %w", err)
	}

	return ix.rebuild(ctx, ResumeIndex, []string{string(raw)})
}

// BuildProjectIndex replaces the project index with one chunk per project,
// summarizing title, technologies and features.
func (ix *Indexer) BuildProjectIndex(ctx context.Context, projects []map[string]any) error {
	texts := make([]string, 0, len(projects))
	for _, p := range projects {
		texts = append(texts, projectText(p))
	}

	return ix.rebuild(ctx, ProjectIndex, texts)
}

func (ix *Indexer) rebuild(ctx context.Context, index string, texts []string) error {
	if len(texts) == 0 {
		ix.logger.Info("nothing to index", zap.String("index", index))
		return nil
	}

	vectors, err := EmbedBatch(ctx, ix.embedder, texts)
	if err != nil {
		return fmt.Errorf("embedding %s chunks: %w", index, err)
	}

	records := make([]Record, len(texts))
	for i, text := range texts {
		records[i] = Record{
			ID:        uuid.NewString(),
			Index:     index,
			Text:      text,
			Embedding: vectors[i],
		}
	}

	if err := ix.store.DeleteIndex(index); err != nil {
		return err
	}
	if err := ix.store.Insert(records); err != nil {
		return fmt.Errorf("storing %s chunks: %w", index, err)
	}

	ix.logger.Info("index rebuilt",
		zap.String("index", index),
		zap.Int("chunks", len(records)),
	)

	return nil
}

func projectText(p map[string]any) string {
	title, _ := p["title"].(string)

	var tech []string
	if items, ok := p["technologies"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				tech = append(tech, s)
			}
		}
	}

	var features []string
	if items, ok := p["features"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				features = append(features, s)
			}
		}
	}

	return fmt.Sprintf("Project: %s\nTech: %s\nDetails: %s",
		title, strings.Join(tech, ", "), strings.Join(features, "; "))
}
