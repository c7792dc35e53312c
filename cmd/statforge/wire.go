package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/StatForge/internal/adapter/litellm"
	cfnats "github.com/Strob0t/StatForge/internal/adapter/nats"
	"github.com/Strob0t/StatForge/internal/adapter/natskv"
	"github.com/Strob0t/StatForge/internal/adapter/ollama"
	cfotel "github.com/Strob0t/StatForge/internal/adapter/otel"
	"github.com/Strob0t/StatForge/internal/adapter/postgres"
	"github.com/Strob0t/StatForge/internal/adapter/ristretto"
	"github.com/Strob0t/StatForge/internal/adapter/tiered"
	"github.com/Strob0t/StatForge/internal/adapter/weaviate"
	"github.com/Strob0t/StatForge/internal/config"
	"github.com/Strob0t/StatForge/internal/port/cache"
	"github.com/Strob0t/StatForge/internal/port/database"
	"github.com/Strob0t/StatForge/internal/port/llm"
	"github.com/Strob0t/StatForge/internal/port/messagequeue"
	"github.com/Strob0t/StatForge/internal/port/retrieval"
	"github.com/Strob0t/StatForge/internal/resilience"
	"github.com/Strob0t/StatForge/internal/service"
)

// app holds the wired components of one process.
type app struct {
	cfg    *config.Config
	pool   *postgres.SharedPool
	store  *postgres.Store
	queue  *cfnats.Queue // nil when NATS is disabled
	agent  *service.AgentService
	tools  *service.ToolRegistry
	closer []func()

	cacheStats cache.StatsReporter // nil when the query cache is disabled
}

// buildApp connects every configured backend. The database pool opens on
// first query, so commands that never touch it do not need it.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	shutdownOTel, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	a.closer = append(a.closer, func() {
		if err := shutdownOTel(context.Background()); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	})

	a.pool = postgres.NewSharedPool(cfg.Postgres)
	a.closer = append(a.closer, a.pool.Close)
	a.store = postgres.NewStore(a.pool, cfg.Postgres.QueryTimeout)

	if cfg.NATS.Enabled {
		q, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.queue = q
		a.closer = append(a.closer, func() { _ = q.Drain() })
	}

	store, err := a.queryStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	statsSearch, newsSearch, err := a.searchers()
	if err != nil {
		a.Close()
		return nil, err
	}
	statsSearch = service.BoundedSearcher(statsSearch, cfg.Retrieval.Timeout)
	newsSearch = service.BoundedSearcher(newsSearch, cfg.Retrieval.Timeout)

	a.tools = service.NewDefaultToolRegistry(store, statsSearch, newsSearch, cfg.Agent)
	a.agent = service.NewAgentService(newLLMClient(cfg), a.tools, cfg.Agent)
	if m, err := cfotel.NewMetrics(); err != nil {
		slog.Warn("metrics disabled", "error", err)
	} else {
		a.agent.SetMetrics(m)
	}
	if a.queue != nil {
		a.agent.SetQueue(a.queue)
	}
	return a, nil
}

// queryStore layers the result cache over the database when enabled.
func (a *app) queryStore(ctx context.Context) (database.ReadOnlyStore, error) {
	if !a.cfg.Cache.Enabled {
		return a.store, nil
	}
	l1, err := ristretto.New(a.cfg.Cache.L1MaxSizeMB<<20, a.cfg.Cache.L2TTL)
	if err != nil {
		return nil, fmt.Errorf("l1 cache: %w", err)
	}
	a.closer = append(a.closer, l1.Close)

	var c cache.Cache = l1
	a.cacheStats = l1
	if a.queue != nil {
		l2, err := natskv.Open(ctx, a.queue.JetStream(), a.cfg.Cache.L2Bucket, a.cfg.Cache.L2TTL)
		if err != nil {
			slog.Warn("l2 query cache unavailable, using l1 only", "bucket", a.cfg.Cache.L2Bucket, "error", err)
		} else {
			t := tiered.New(l1, l2, a.cfg.Cache.L2TTL)
			c, a.cacheStats = t, t
		}
	}
	return service.NewCachedStore(a.store, c, a.cfg.Cache.L2TTL), nil
}

// searchers returns the retrieval backends for the two search tools.
// A nil searcher leaves its tool registered but reporting that it is not configured.
func (a *app) searchers() (stats, news retrieval.Searcher, err error) {
	r := a.cfg.Retrieval
	switch r.Backend {
	case "nats":
		if a.queue == nil {
			return nil, nil, errors.New("retrieval backend nats requires nats.enabled")
		}
		var q messagequeue.Queue = a.queue
		return cfnats.NewSearcher(q, messagequeue.CollectionStats), cfnats.NewSearcher(q, messagequeue.CollectionNews), nil
	case "weaviate":
		c, err := weaviate.NewClient(r.WeaviateHost, r.WeaviateScheme)
		if err != nil {
			return nil, nil, fmt.Errorf("weaviate: %w", err)
		}
		return c.Searcher(r.StatsClass, weaviate.StatsProperties), c.Searcher(r.NewsClass, weaviate.NewsProperties), nil
	default:
		return nil, nil, nil
	}
}

func newLLMClient(cfg *config.Config) llm.Client {
	breaker := resilience.NewBreaker(cfg.LLM.Provider, cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	if cfg.LLM.Provider == "litellm" {
		c := litellm.NewClient(cfg.LLM.URL, cfg.LLM.MasterKey, cfg.LLM.Model, cfg.LLM.Timeout)
		c.SetBreaker(breaker)
		return c
	}
	c := ollama.NewClient(cfg.LLM.URL, cfg.LLM.Model, cfg.LLM.Timeout)
	c.SetBreaker(breaker)
	return c
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
	a.closer = nil
}
