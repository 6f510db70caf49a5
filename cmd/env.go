package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mohammed-seid/hfc-south-plant/internal/blobstore"
	"github.com/mohammed-seid/hfc-south-plant/internal/cache"
	"github.com/mohammed-seid/hfc-south-plant/internal/ingest"
	"github.com/mohammed-seid/hfc-south-plant/internal/ledger"
	"github.com/mohammed-seid/hfc-south-plant/pkg/github"
)

// env bundles the wired ledger components for a command invocation.
type env struct {
	Store  blobstore.Client
	Loader *ingest.Loader
	Reader *ledger.Reader
	Writer *ledger.Writer

	feedCache *cache.Cache
}

// initEnv wires the blob store client, optional feed cache, and ledger
// components from config.
func initEnv(ctx context.Context) (*env, error) {
	if cfg.Store.Token == "" {
		return nil, eris.New("store token is required (HFC_STORE_TOKEN)")
	}

	store := github.NewClient(cfg.Store.Owner, cfg.Store.Repo, cfg.Store.Token,
		github.WithBranch(cfg.Store.Branch))

	var feedCache *cache.Cache
	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Path, cfg.Cache.TTL())
		if err != nil {
			return nil, eris.Wrap(err, "open feed cache")
		}
		if err := c.Migrate(ctx); err != nil {
			c.Close()
			return nil, eris.Wrap(err, "migrate feed cache")
		}
		feedCache = c
	}

	e := &env{
		Store:     store,
		Reader:    ledger.NewReader(store, cfg.Store.CorrectionsKey),
		Writer:    ledger.NewWriter(store, cfg.Store.CorrectionsKey),
		feedCache: feedCache,
	}
	if feedCache != nil {
		e.Loader = ingest.NewLoader(store, feedCache, cfg.Store.ConstraintsKey, cfg.Store.LogicKey)
	} else {
		e.Loader = ingest.NewLoader(store, nil, cfg.Store.ConstraintsKey, cfg.Store.LogicKey)
	}
	return e, nil
}

// Close releases the env's resources.
func (e *env) Close() {
	if e.feedCache != nil {
		if err := e.feedCache.Close(); err != nil {
			zap.L().Warn("close feed cache", zap.Error(err))
		}
	}
}
