// Package app assembles the MetaNet dependency graph from a Config.  Both the
// apiserver binary and the CLI serve command start from Build.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	appnet "github.com/turtacn/MetaNet/internal/application/network"
	"github.com/turtacn/MetaNet/internal/config"
	"github.com/turtacn/MetaNet/internal/domain/formula"
	domainnet "github.com/turtacn/MetaNet/internal/domain/network"
	neo4jdriver "github.com/turtacn/MetaNet/internal/infrastructure/database/neo4j"
	"github.com/turtacn/MetaNet/internal/infrastructure/database/neo4j/repositories"
	redisclient "github.com/turtacn/MetaNet/internal/infrastructure/database/redis"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaNet/internal/infrastructure/storage/networkfile"
	httpapi "github.com/turtacn/MetaNet/internal/interfaces/http"
	"github.com/turtacn/MetaNet/internal/interfaces/http/handlers"
	"github.com/turtacn/MetaNet/internal/interfaces/http/middleware"
)

// App owns every long-lived dependency.
type App struct {
	Config     *config.Config
	Logger     logging.Logger
	Parser     *formula.Parser
	Metrics    *prom.NetworkMetrics
	Collector  prom.MetricsCollector
	Repository domainnet.Repository
	Service    appnet.Service
	Router     *gin.Engine
	Server     *httpapi.Server

	redis   *redisclient.Client
	neo4j   *neo4jdriver.Driver
	limiter *middleware.TokenBucketLimiter
}

// Close releases the infrastructure clients.  It is safe on a partially
// built App.
func (a *App) Close(ctx context.Context) {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", logging.Err(err))
		}
	}
	if a.neo4j != nil {
		if err := a.neo4j.Close(ctx); err != nil {
			a.Logger.Warn("neo4j close failed", logging.Err(err))
		}
	}
}

// Build connects the enabled infrastructure, loads the network and wires the
// HTTP stack.  version is reported by /healthz.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, version string) (*App, error) {
	a, err := BuildCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.buildHTTP(version)

	a.Logger.Info("application initialized",
		logging.String("network_source", a.Config.Network.Source),
		logging.Bool("redis", a.Config.Redis.Enabled),
		logging.Bool("neo4j", a.Config.Neo4j.Enabled),
		logging.Bool("metrics", a.Config.Metrics.Enabled))
	return a, nil
}

// BuildCore stops short of HTTP: Service is loaded and ready, Router and
// Server stay nil.  The CLI uses it for one-shot queries.
func BuildCore(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &App{
		Config: cfg,
		Logger: logger,
		Parser: formula.NewParser(formula.Options{VariableReplacement: cfg.Formula.VariableReplacement}),
	}

	if cfg.Metrics.Enabled {
		collector, err := prom.NewMetricsCollector(cfg.Metrics.CollectorConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		a.Collector = collector
		a.Metrics = prom.NewNetworkMetrics(collector)
	}

	options := []appnet.Option{appnet.WithMetrics(a.Metrics), appnet.WithParser(a.Parser)}

	if cfg.Redis.Enabled {
		client, err := redisclient.NewClient(ctx, cfg.Redis.Config, logger)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = client
		cache := redisclient.NewCache(client, logger, redisclient.WithPrefix(cfg.Redis.KeyPrefix))
		options = append(options, appnet.WithClosureCache(redisclient.NewClosureCache(cache, cfg.Closure.CacheTTL)))
	}

	if cfg.Neo4j.Enabled {
		drv, err := neo4jdriver.NewDriver(ctx, cfg.Neo4j.Config, logger)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("neo4j: %w", err)
		}
		a.neo4j = drv
		options = append(options, appnet.WithHealthCheck("neo4j", drv.HealthCheck))
	}

	repo, err := a.repository(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Repository = repo

	a.Service = appnet.NewService(appnet.Options{
		MaxPasses: cfg.Closure.MaxPasses,
		Verify:    cfg.Network.Verify,
	}, logger, options...)

	if _, err := a.Service.Load(ctx, repo); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("load network: %w", err)
	}
	return a, nil
}

func (a *App) buildHTTP(version string) {
	cfg := a.Config
	routerCfg := httpapi.RouterConfig{
		FormulaHandler: handlers.NewFormulaHandler(a.Service),
		NetworkHandler: handlers.NewNetworkHandler(a.Service),
		HealthHandler:  handlers.NewHealthHandler(version, a.Service),
		Logger:         a.Logger,
		Metrics:        a.Metrics,
		MetricsPath:    cfg.Metrics.Path,
		Mode:           cfg.Server.Mode,
		MaxBodyBytes:   cfg.Server.MaxBodySize,
	}
	if a.Collector != nil {
		routerCfg.MetricsHandler = a.Collector.Handler()
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		routerCfg.CORS = middleware.DefaultCORSConfig()
		routerCfg.CORS.AllowedOrigins = cfg.Server.CORSAllowedOrigins
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		routerCfg.RateLimit = middleware.DefaultRateLimitConfig()
		routerCfg.RateLimit.RequestsPerSecond = rl.RequestsPerSecond
		routerCfg.RateLimit.BurstSize = rl.Burst
		a.limiter = middleware.NewTokenBucketLimiter(rl.RequestsPerSecond, rl.Burst, routerCfg.RateLimit.CleanupInterval)
		routerCfg.RateLimiter = a.limiter
	}
	a.Router = httpapi.NewRouter(routerCfg)

	a.Server = httpapi.NewServer(httpapi.ServerConfig{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, a.Router, a.Logger)
}

func (a *App) repository(ctx context.Context) (domainnet.Repository, error) {
	cfg := a.Config
	switch cfg.Network.Source {
	case config.SourceNeo4j:
		if a.neo4j == nil {
			return nil, fmt.Errorf("network source %q requires neo4j.enabled", config.SourceNeo4j)
		}
		repo := repositories.NewNetworkRepo(a.neo4j, a.Logger, a.Metrics, repositories.WithParser(a.Parser))
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("neo4j schema: %w", err)
		}
		return repo, nil
	default:
		return networkfile.NewStore(cfg.Network.Path,
			networkfile.WithParser(a.Parser),
			networkfile.WithLogger(a.Logger),
			networkfile.WithMetrics(a.Metrics)), nil
	}
}

// WatchLogLevel re-applies log.level whenever the config file changes.  Other
// settings need a restart.
func WatchLogLevel(configPath string, logger logging.Logger) error {
	if configPath == "" {
		return nil
	}
	return config.Watch(configPath, logger, func(cfg *config.Config) {
		if logging.SetLevel(logger, cfg.Log.Level) {
			logger.Info("log level updated", logging.String("level", cfg.Log.Level.String()))
		}
	})
}
