package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/mountisa-community/directory-cli/internal/model"
	"github.com/mountisa-community/directory-cli/internal/resolve"
)

// BatchStats aggregates outcomes across one source run.
type BatchStats struct {
	Discovered int `json:"discovered"`
	Created    int `json:"created"`
	Merged     int `json:"merged"`
	Dropped    int `json:"dropped"`
	Failed     int `json:"failed"`
}

// Persisted is the number of records that reached the store.
func (s BatchStats) Persisted() int {
	return s.Created + s.Merged
}

// IngestBatch processes raw records sequentially. A failed record does not
// abort the batch. Cancellation is honored between records, never in the
// middle of an upsert, so each persisted record is complete.
func (p *Pipeline) IngestBatch(ctx context.Context, raws []model.RawRecord, sourceID string) (BatchStats, error) {
	stats := BatchStats{Discovered: len(raws)}

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("batch cancelled",
				zap.String("source", sourceID),
				zap.Int("discovered", stats.Discovered),
				zap.Int("persisted", stats.Persisted()),
			)
			return stats, err
		}

		res, err := p.Ingest(ctx, raw, sourceID)
		switch {
		case err != nil:
			stats.Failed++
		case res.Outcome == OutcomeDropped:
			stats.Dropped++
		case res.Action == resolve.ActionCreate:
			stats.Created++
		default:
			stats.Merged++
		}
	}

	zap.L().Info("batch complete",
		zap.String("source", sourceID),
		zap.Int("discovered", stats.Discovered),
		zap.Int("created", stats.Created),
		zap.Int("merged", stats.Merged),
		zap.Int("dropped", stats.Dropped),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}
