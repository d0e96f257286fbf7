package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mountisa-community/directory-cli/internal/ingest"
	"github.com/mountisa-community/directory-cli/internal/source"
	"github.com/mountisa-community/directory-cli/internal/store"
	"github.com/mountisa-community/directory-cli/pkg/fetch"
)

// directoryEnv holds the initialized store, pipeline and source registry
// needed by the ingest/seed/serve commands.
type directoryEnv struct {
	Store    store.Store
	Pipeline *ingest.Pipeline
	Sources  *source.Registry
}

// Close releases resources held by the environment.
func (e *directoryEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "directory.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{MaxConns: cfg.Store.MaxConns})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initDirectory sets up the store, source adapters and the ingestion
// pipeline. Callers should defer env.Close().
func initDirectory(ctx context.Context) (*directoryEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	gateway := ingest.NewGateway(st, time.Duration(cfg.Ingest.UpsertTimeoutSecs)*time.Second)
	pipeline := ingest.NewPipeline(cfg.Locality, gateway)

	client := fetch.New(
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithTimeout(time.Duration(cfg.Fetch.TimeoutSecs)*time.Second),
		fetch.WithRateLimit(cfg.Ingest.RequestsPerSecond),
	)

	seed, err := source.NewSeed()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	registry := source.NewRegistry()
	registry.Register(seed)
	registry.Register(source.NewQldGov(client, cfg.Sources.QldGovPages))
	registry.Register(source.NewMyCommunityDirectory(client, cfg.Sources.CommunityDirectoryPages))

	return &directoryEnv{Store: st, Pipeline: pipeline, Sources: registry}, nil
}
