package sources

import (
	"context"

	"github.com/harsh16kumar/jobpilot/internal/jobs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Aggregator fans a set of search keywords out across all configured sources
// concurrently and joins the results. A failing source costs its own results
// only; the aggregation as a whole never fails.
type Aggregator struct {
	sources []Source
	logger  *zap.Logger
}

func NewAggregator(sources []Source, logger *zap.Logger) *Aggregator {
	return &Aggregator{sources: sources, logger: logger}
}

// Fetch queries every source for every keyword in parallel. Results keep a
// deterministic order (keyword-major, then source) regardless of which call
// finishes first.
func (a *Aggregator) Fetch(ctx context.Context, keywords []string) []*jobs.Posting {
	type task struct {
		source  Source
		keyword string
	}

	tasks := make([]task, 0, len(keywords)*len(a.sources))
	for _, keyword := range keywords {
		for _, source := range a.sources {
			tasks = append(tasks, task{source: source, keyword: keyword})
		}
	}

	results := make([][]*jobs.Posting, len(tasks))
	g, gCtx := errgroup.WithContext(ctx)

	for i, t := range tasks {
		g.Go(func() error {
			postings, err := t.source.Search(gCtx, t.keyword)
			if err != nil {
				a.logger.Warn("source search failed",
					zap.String("source", t.source.Name()),
					zap.String("keyword", t.keyword),
					zap.Error(err),
				)
				return nil
			}

			a.logger.Debug("source search completed",
				zap.String("source", t.source.Name()),
				zap.String("keyword", t.keyword),
				zap.Int("count", len(postings)),
			)

			results[i] = postings
			return nil
		})
	}

	// Tasks never return errors; failures are contained above.
	g.Wait()

	var joined []*jobs.Posting
	for _, postings := range results {
		joined = append(joined, postings...)
	}

	a.logger.Info("aggregation completed",
		zap.Int("sources", len(a.sources)),
		zap.Int("keywords", len(keywords)),
		zap.Int("postings", len(joined)),
	)

	return joined
}
