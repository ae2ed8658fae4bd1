package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/paw-chain/settlement/api"
	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/app/health"
	"github.com/paw-chain/settlement/app/telemetry"
	"github.com/paw-chain/settlement/indexer"
)

const opsShutdownTimeout = 5 * time.Second

// Node wires the executor to its gateway, operations endpoints and audit
// exporter.
type Node struct {
	App      *app.SettlementApp
	API      *api.Server
	Health   *health.Checker
	Exporter *indexer.Exporter

	cfg       NodeConfig
	logger    log.Logger
	telemetry *telemetry.Provider
	sink      indexer.Sink
}

// openDB opens the configured state database under home.
func openDB(home string, cfg DBConfig) (dbm.DB, error) {
	switch cfg.Backend {
	case "memdb":
		return dbm.NewMemDB(), nil
	case "goleveldb":
		return dbm.NewDB(dbName, dbm.GoLevelDBBackend, DataDir(home))
	default:
		return nil, fmt.Errorf("unsupported db backend %q", cfg.Backend)
	}
}

// NewNode opens state under home, initializes the chain from genesis.json on
// first start and builds every service. Close releases what it opened.
func NewNode(ctx context.Context, home string, cfg NodeConfig, logger log.Logger) (_ *Node, err error) {
	n := &Node{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			n.Close()
		}
	}()

	n.telemetry, err = telemetry.NewProvider(cfg.Telemetry.providerConfig())
	if err != nil {
		return nil, err
	}

	appCfg, err := cfg.AppConfig()
	if err != nil {
		return nil, err
	}
	db, err := openDB(home, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	n.App, err = app.NewSettlementApp(logger, db, appCfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if !n.App.Initialized() {
		doc, err := app.LoadGenesisDoc(GenesisPath(home))
		if err != nil {
			return nil, err
		}
		if err := n.App.InitChain(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to initialize chain: %w", err)
		}
		logger.Info("initialized chain from genesis", "chain_id", doc.ChainID)
	}

	apiCfg := cfg.API
	n.API, err = api.NewServer(n.App, logger, &apiCfg)
	if err != nil {
		return nil, err
	}

	checks := append(n.App.HealthChecks(), health.Check{
		Name:     "telemetry",
		Fn:       n.checkTelemetry,
		Detailed: true,
	})
	if cfg.Indexer.Enabled {
		n.sink, err = indexer.NewPostgresSink(ctx, cfg.Indexer.PostgresDSN)
		if err != nil {
			return nil, err
		}
		n.Exporter = indexer.NewExporter(indexer.AppSource{App: n.App}, n.sink, cfg.Indexer, logger)
		checks = append(checks, health.Check{Name: "indexer", Fn: n.checkIndexer, Detailed: true})
	}
	n.Health = health.NewChecker(logger.With("module", "health"), health.Config{
		Version:         Version,
		MaxResponseTime: health.DefaultConfig().MaxResponseTime,
		CacheDuration:   health.DefaultConfig().CacheDuration,
	}, checks...)

	return n, nil
}

// Run serves until ctx is cancelled or a service fails.
func (n *Node) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return n.API.Start(ctx) })
	g.Go(func() error {
		return serveHTTP(ctx, n.logger, "health", n.cfg.Telemetry.HealthAddress, n.HealthHandler())
	})
	g.Go(func() error {
		return serveHTTP(ctx, n.logger, "metrics", n.cfg.Telemetry.MetricsAddress, MetricsHandler())
	})
	if n.Exporter != nil {
		g.Go(func() error {
			if err := n.Exporter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	n.logger.Info("node started",
		"chain_id", n.App.ChainID(),
		"height", n.App.LastHeight(),
		"api", n.cfg.API.ListenAddress,
	)
	return g.Wait()
}

// HealthHandler serves /health, /health/ready and /health/detailed.
func (n *Node) HealthHandler() http.Handler {
	router := mux.NewRouter()
	n.Health.RegisterRoutes(router)
	return handlers.RecoveryHandler()(router)
}

// MetricsHandler serves the Prometheus registry on /metrics.
func MetricsHandler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return handlers.RecoveryHandler()(handlers.CompressHandler(router))
}

// Close flushes telemetry and releases the sink and database.
func (n *Node) Close() {
	if n.sink != nil {
		if err := n.sink.Close(); err != nil {
			n.logger.Error("failed to close audit sink", "error", err)
		}
	}
	if n.App != nil {
		if err := n.App.Close(); err != nil {
			n.logger.Error("failed to close database", "error", err)
		}
	}
	if n.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		if err := n.telemetry.Shutdown(ctx); err != nil {
			n.logger.Error("failed to shutdown telemetry", "error", err)
		}
	}
}

func (n *Node) checkTelemetry(context.Context) health.ComponentHealth {
	if err := n.telemetry.HealthCheck(); err != nil {
		return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
	}
	return health.ComponentHealth{Status: health.StatusHealthy}
}

func (n *Node) checkIndexer(ctx context.Context) health.ComponentHealth {
	last, err := n.sink.LastSeq(ctx)
	if err != nil {
		return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
	}
	return health.ComponentHealth{
		Status:  health.StatusHealthy,
		Metrics: map[string]interface{}{"last_exported_seq": last},
	}
}

// serveHTTP runs one operations listener until ctx is done.
func serveHTTP(ctx context.Context, logger log.Logger, name, addr string, handler http.Handler) error {
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "server", name, "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
