package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/mountisa-community/directory-cli/internal/config"
	"github.com/mountisa-community/directory-cli/internal/credibility"
	"github.com/mountisa-community/directory-cli/internal/model"
	"github.com/mountisa-community/directory-cli/internal/normalize"
	"github.com/mountisa-community/directory-cli/internal/relevance"
	"github.com/mountisa-community/directory-cli/internal/resolve"
)

// Outcome classifies what happened to one raw record.
type Outcome string

// Outcomes.
const (
	OutcomePersisted Outcome = "persisted"
	OutcomeDropped   Outcome = "dropped"
	OutcomeFailed    Outcome = "failed"
)

// Drop reasons.
const (
	ReasonInvalidName = "invalid_name"
	ReasonNotRelevant = "not_relevant"
)

// Result is the per-record pipeline outcome. Record and Action are set only
// when the outcome is OutcomePersisted.
type Result struct {
	Outcome Outcome
	Reason  string
	Action  resolve.Action
	Record  *model.ServiceRecord
}

// Pipeline chains normalization, relevance filtering, credibility annotation,
// and the upsert gateway.
type Pipeline struct {
	norm    *normalize.Normalizer
	filter  *relevance.Filter
	gateway *Gateway
}

// NewPipeline builds a pipeline scoped to the configured locality.
func NewPipeline(loc config.LocalityConfig, gw *Gateway) *Pipeline {
	return &Pipeline{
		norm:    normalize.New(loc),
		filter:  relevance.New(loc),
		gateway: gw,
	}
}

// Ingest runs one raw record through the full chain. Dropped records are not
// errors: the returned Result carries the reason and err is nil. err is
// non-nil only for storage failures, and the Result is OutcomeFailed.
func (p *Pipeline) Ingest(ctx context.Context, raw model.RawRecord, sourceID string) (Result, error) {
	c := p.norm.Normalize(raw, sourceID)
	if c.Name == "" {
		zap.L().Debug("record dropped",
			zap.String("source", sourceID),
			zap.String("reason", ReasonInvalidName),
		)
		return Result{Outcome: OutcomeDropped, Reason: ReasonInvalidName}, nil
	}

	// Relevance is judged on source-supplied text only. The normalizer
	// synthesizes locality defaults, and those must not vouch for a record.
	if !p.filter.IsRelevant(relevanceView(c, raw)) {
		zap.L().Debug("record dropped",
			zap.String("source", sourceID),
			zap.String("name", c.Name),
			zap.String("reason", ReasonNotRelevant),
		)
		return Result{Outcome: OutcomeDropped, Reason: ReasonNotRelevant}, nil
	}

	c = credibility.Annotate(c)

	res, err := p.gateway.Upsert(ctx, c)
	if err != nil {
		zap.L().Error("upsert failed",
			zap.String("source", sourceID),
			zap.String("name", c.Name),
			zap.Error(err),
		)
		return Result{Outcome: OutcomeFailed}, err
	}

	return Result{Outcome: OutcomePersisted, Action: res.Action, Record: res.Record}, nil
}

// relevanceView pairs the normalized name with the raw record's own
// description and address.
func relevanceView(c model.Candidate, raw model.RawRecord) model.Candidate {
	view := model.Candidate{Name: c.Name}
	if raw.Description != nil {
		view.Description = *raw.Description
	}
	if raw.Address != nil {
		view.Address = *raw.Address
	}
	return view
}
