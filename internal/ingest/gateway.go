// Package ingest runs discovered records through normalization, relevance,
// credibility, and duplicate resolution before they reach the store.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mountisa-community/directory-cli/internal/model"
	"github.com/mountisa-community/directory-cli/internal/resilience"
	"github.com/mountisa-community/directory-cli/internal/resolve"
	"github.com/mountisa-community/directory-cli/internal/store"
)

// UpsertResult reports what the gateway did with a candidate.
type UpsertResult struct {
	Action resolve.Action
	Record *model.ServiceRecord
	// Changed lists the fields a merge altered. Empty on a merge means the
	// candidate carried nothing new and no write happened.
	Changed []string
}

// Gateway is the single write path into the services table. All ingestion
// jobs in a process funnel through one Gateway so the read-match-write
// sequence never interleaves.
type Gateway struct {
	store   store.Store
	timeout time.Duration

	mu sync.Mutex
}

// NewGateway wraps the store. timeout bounds a single upsert including its
// conflict retry; zero means no bound beyond the caller's context.
func NewGateway(st store.Store, timeout time.Duration) *Gateway {
	return &Gateway{store: st, timeout: timeout}
}

// Upsert matches the candidate against all active records and either creates
// a new record or merges into the match. A natural-key conflict from a
// concurrent writer triggers one re-read and re-match before failing.
func (g *Gateway) Upsert(ctx context.Context, c model.Candidate) (*UpsertResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	// Only the natural-key conflict gets an internal retry: it means a
	// concurrent writer raced the read-match-write section, and a re-read
	// resolves it. Transient storage errors surface to the calling job,
	// which owns retry policy.
	cfg := resilience.UpsertRetryConfig()
	cfg.ShouldRetry = store.IsConflict
	cfg.OnRetry = resilience.RetryLogger("ingest", "upsert")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*UpsertResult, error) {
		return g.upsertOnce(ctx, c)
	})
}

func (g *Gateway) upsertOnce(ctx context.Context, c model.Candidate) (*UpsertResult, error) {
	existing, err := g.store.ListActive(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read active records")
	}

	res := resolve.Resolve(c, existing)
	if res.Action == resolve.ActionCreate {
		rec := newRecord(c)
		if err := g.store.InsertService(ctx, rec); err != nil {
			return nil, eris.Wrapf(err, "ingest: create %s", c.Name)
		}
		zap.L().Info("service created",
			zap.String("id", rec.ID),
			zap.String("name", rec.Name),
			zap.String("source", c.SourceName),
		)
		return &UpsertResult{Action: resolve.ActionCreate, Record: rec}, nil
	}

	if len(res.Changed) == 0 {
		// Re-ingesting identical data is a no-op by contract.
		zap.L().Debug("service unchanged, skipping write",
			zap.String("id", res.Target.ID),
			zap.String("source", c.SourceName),
		)
		return &UpsertResult{Action: resolve.ActionMerge, Record: res.Target}, nil
	}

	if err := g.store.UpdateService(ctx, res.Merged); err != nil {
		return nil, eris.Wrapf(err, "ingest: merge into %s", res.Target.ID)
	}
	zap.L().Info("service merged",
		zap.String("id", res.Merged.ID),
		zap.String("name", res.Merged.Name),
		zap.String("source", c.SourceName),
		zap.Strings("changed", res.Changed),
	)
	return &UpsertResult{Action: resolve.ActionMerge, Record: res.Merged, Changed: res.Changed}, nil
}

// newRecord builds the persisted form of a candidate, stamping per-field
// provenance for every value it carries.
func newRecord(c model.Candidate) *model.ServiceRecord {
	rec := &model.ServiceRecord{
		Name:            c.Name,
		Description:     c.Description,
		Phone:           c.Phone,
		Email:           c.Email,
		Website:         c.Website,
		Address:         c.Address,
		Suburb:          c.Suburb,
		Postcode:        c.Postcode,
		State:           c.State,
		Category:        c.Category,
		DataSource:      c.SourceName,
		ConfidenceScore: c.Confidence,
		IsActive:        true,
		Provenance: model.Provenance{
			SourceName:       c.SourceName,
			SourceURL:        c.SourceURL,
			ExtractionMethod: c.ExtractionMethod,
			CapturedAt:       time.Now().UTC(),
		},
	}

	for key, val := range map[string]string{
		model.FieldName:        c.Name,
		model.FieldDescription: c.Description,
		model.FieldPhone:       c.Phone,
		model.FieldEmail:       c.Email,
		model.FieldWebsite:     c.Website,
		model.FieldAddress:     c.Address,
		model.FieldSuburb:      c.Suburb,
		model.FieldPostcode:    c.Postcode,
		model.FieldCategory:    string(c.Category),
	} {
		if val != "" {
			rec.Provenance.SetFieldOrigin(key, c.SourceName, c.Tier)
		}
	}
	if c.DescriptionDefaulted {
		// The placeholder must not inherit the source's tier, or a real
		// description from an equal-tier source could never replace it.
		rec.Provenance.SetFieldOrigin(model.FieldDescription, model.OriginSynthesized, model.TierLow)
	}
	return rec
}
