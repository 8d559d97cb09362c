package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/obsolescence-radar/pkg/config"
	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/export"
	"github.com/dd0wney/obsolescence-radar/pkg/graph"
	"github.com/dd0wney/obsolescence-radar/pkg/graphql"
	"github.com/dd0wney/obsolescence-radar/pkg/health"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
	"github.com/dd0wney/obsolescence-radar/pkg/metrics"
	"github.com/dd0wney/obsolescence-radar/pkg/publish"
	"github.com/dd0wney/obsolescence-radar/pkg/pubsub"
	"github.com/dd0wney/obsolescence-radar/pkg/server"
	"github.com/dd0wney/obsolescence-radar/pkg/snapshot"
)

const (
	systemMetricsInterval = 15 * time.Second
	databasePingTimeout   = 2 * time.Second
)

// app wires the server components around one engine state.
type app struct {
	cfg       *config.Config
	logger    logging.Logger
	started   time.Time
	metrics   *metrics.Registry
	bus       *pubsub.PubSub[engine.Update]
	state     *engine.State
	store     *snapshot.Store
	health    *health.Checker
	publisher *publish.Publisher
	exporter  *export.PostgresExporter
	handler   http.Handler
	server    *server.GracefulServer
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logger,
		started: time.Now(),
		metrics: metrics.NewRegistry(),
		bus:     pubsub.New[engine.Update](pubsub.DefaultBuffer),
		store:   snapshot.NewStore(cfg.Snapshot.Dir, logger),
	}
	a.state = engine.NewState(engine.New(logger, a.metrics), a.bus, logger, cfg.Engine.Debounce, cfg.StartDate(time.Now))
	a.health = health.NewChecker(a.inventoryState, a.engineState)
	a.health.AddLivenessProbe("memory", health.MemoryProbe(health.RuntimeMemory))

	if err := a.loadSnapshot(); err != nil {
		if !errors.Is(err, snapshot.ErrNoSnapshot) {
			a.close()
			return nil, err
		}
		logger.Warn("no snapshot found, serving without inventory", logging.Path(a.store.Path()))
	}

	if cfg.Publish.Address != "" {
		p, err := publish.NewPublisher(cfg.Publish.Address, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.publisher = p
	}

	if cfg.Export.DSN != "" {
		pool, err := export.Connect(ctx, cfg.Export.DSN)
		if err != nil {
			a.close()
			return nil, err
		}
		a.exporter = export.NewPostgresExporter(pool, logger)
		if err := a.exporter.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		a.health.AddReadinessProbe("database", health.DatabaseProbe(pool.Ping, databasePingTimeout))
	}

	schema, err := graphql.GenerateSchema(a.state)
	if err != nil {
		a.close()
		return nil, err
	}
	a.handler = a.routes(graphql.NewGraphQLHandler(schema, graphql.DefaultMaxDepth, logger))
	a.server = server.NewGracefulServer(cfg.Server, a.handler, logger)
	a.server.SetConfigReloadFunc(a.loadSnapshot)
	return a, nil
}

// loadSnapshot replaces the state's graph with the saved inventory and runs
// a pass. A failed pass leaves the previous result in place.
func (a *app) loadSnapshot() error {
	inv, err := a.store.Load()
	if err != nil {
		return err
	}
	if err := a.state.SetGraph(graph.BuildInventory(inv)); err != nil {
		return err
	}
	if err := a.state.Flush(); err != nil {
		a.logger.Warn("pass after snapshot load failed", logging.Error(err))
	}
	return nil
}

func (a *app) inventoryState() health.InventoryState {
	g := a.state.Graph()
	if g == nil {
		return health.InventoryState{}
	}
	apps, comps, _ := g.Counts()
	return health.InventoryState{Loaded: true, Applications: apps, ITComponents: comps}
}

func (a *app) engineState() health.EngineState {
	s := health.EngineState{LastError: a.state.LastError()}
	if res := a.state.Latest(); res != nil {
		s.HasResult = true
		s.RunID = res.RunID
		s.RefDate = res.RefDate
		s.ComputedAt = res.ComputedAt
	}
	return s
}

func (a *app) routes(gql http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/graphql", gql)
	mux.Handle("/metrics", a.metrics.Handler())
	mux.Handle("/health", a.health.HTTPHandler())
	mux.Handle("/health/ready", a.health.ReadinessHandler())
	mux.Handle("/health/live", a.health.LivenessHandler())
	return a.metrics.Middleware(mux)
}

// run serves HTTP and the background workers until ctx is done.
func (a *app) run(ctx context.Context) error {
	if err := a.server.Listen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Serve(ctx)
	})
	g.Go(func() error {
		a.metrics.RunSystemCollector(ctx, a.started, systemMetricsInterval)
		return nil
	})
	if a.publisher != nil {
		g.Go(func() error {
			return ignoreCanceled(a.publisher.Forward(ctx, a.bus))
		})
	}
	if a.exporter != nil {
		g.Go(func() error {
			return ignoreCanceled(a.exportResults(ctx))
		})
	}
	return g.Wait()
}

// exportResults writes every published result. Export failures are logged
// and do not stop the server.
func (a *app) exportResults(ctx context.Context) error {
	sub, err := a.bus.Subscribe(ctx, pubsub.TopicResults)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	if res := a.state.Latest(); res != nil {
		a.exportOne(ctx, res)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-sub.Channel():
			if !ok {
				return ctx.Err()
			}
			if u.Result != nil {
				a.exportOne(ctx, u.Result)
			}
		}
	}
}

func (a *app) exportOne(ctx context.Context, res *engine.Result) {
	if err := a.exporter.Export(ctx, res); err != nil {
		a.logger.Error("export failed", logging.RunID(res.RunID), logging.Error(err))
	}
}

func (a *app) close() {
	if a.state != nil {
		a.state.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close publisher", logging.Error(err))
		}
	}
	if a.exporter != nil {
		a.exporter.Close()
	}
	a.bus.Shutdown()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}
