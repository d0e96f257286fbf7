package ingest

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mountisa-community/directory-cli/internal/model"
)

// Source is a discovery job the pipeline can run. internal/source adapters
// satisfy it.
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]model.RawRecord, error)
}

// IngestSources discovers and ingests every source, at most limit at a time.
// One source failing never cancels its siblings; failures are aggregated into
// the returned error after all sources finish. The stats map holds an entry
// for every source whose batch ran.
func (p *Pipeline) IngestSources(ctx context.Context, sources []Source, limit int) (map[string]BatchStats, error) {
	if limit <= 0 {
		limit = 1
	}

	var (
		mu       sync.Mutex
		stats    = make(map[string]BatchStats, len(sources))
		failed   []string
		firstErr error
	)
	fail := func(name string, err error) {
		mu.Lock()
		failed = append(failed, name)
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, src := range sources {
		g.Go(func() error {
			raws, err := src.Discover(ctx)
			if err != nil && len(raws) == 0 {
				zap.L().Error("source discovery failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				fail(src.Name(), err)
				return nil
			}
			if err != nil {
				// Partial discovery still gets ingested.
				zap.L().Warn("source discovery incomplete",
					zap.String("source", src.Name()),
					zap.Int("discovered", len(raws)),
					zap.Error(err),
				)
			}

			batch, err := p.IngestBatch(ctx, raws, src.Name())
			mu.Lock()
			stats[src.Name()] = batch
			mu.Unlock()
			if err != nil {
				fail(src.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		return stats, eris.Wrapf(firstErr, "ingest: %d of %d sources failed", len(failed), len(sources))
	}
	return stats, nil
}
