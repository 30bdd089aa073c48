// Package neo4j wraps the Neo4j Go driver behind small interfaces so the
// network repository can be exercised without a server.
package neo4j

import (
	"context"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaNet/pkg/errors"
)

// Config describes the Neo4j connection.
type Config struct {
	URI                          string        `mapstructure:"uri" yaml:"uri"`
	Username                     string        `mapstructure:"username" yaml:"username"`
	Password                     string        `mapstructure:"password" yaml:"password"`
	Database                     string        `mapstructure:"database" yaml:"database"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size" yaml:"max_connection_pool_size"`
	MaxConnectionLifetime        time.Duration `mapstructure:"max_connection_lifetime" yaml:"max_connection_lifetime"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout" yaml:"connection_acquisition_timeout"`
}

// Result is the part of neo4j.ResultWithContext the repository reads.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// Transaction runs Cypher inside a managed transaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// TransactionWork is a unit of work retried by the driver on transient
// failures.
type TransactionWork func(tx Transaction) (any, error)

// Executor runs managed transactions.
type Executor interface {
	ExecuteRead(ctx context.Context, work TransactionWork) (any, error)
	ExecuteWrite(ctx context.Context, work TransactionWork) (any, error)
}

type session interface {
	ExecuteRead(ctx context.Context, work TransactionWork) (any, error)
	ExecuteWrite(ctx context.Context, work TransactionWork) (any, error)
	Close(ctx context.Context) error
}

type driverAPI interface {
	VerifyConnectivity(ctx context.Context) error
	NewSession(ctx context.Context, config neo4j.SessionConfig) session
	Close(ctx context.Context) error
}

// ─────────────────────────────────────────────────────────────────────────────
// neo4j-go-driver adapters
// ─────────────────────────────────────────────────────────────────────────────

type txAdapter struct{ tx neo4j.ManagedTransaction }

func (t txAdapter) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return t.tx.Run(ctx, cypher, params)
}

type sessionAdapter struct{ s neo4j.SessionWithContext }

func (s sessionAdapter) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return s.s.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) { return work(txAdapter{tx}) })
}

func (s sessionAdapter) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return s.s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) { return work(txAdapter{tx}) })
}

func (s sessionAdapter) Close(ctx context.Context) error { return s.s.Close(ctx) }

type driverAdapter struct{ d neo4j.DriverWithContext }

func (d driverAdapter) VerifyConnectivity(ctx context.Context) error { return d.d.VerifyConnectivity(ctx) }

func (d driverAdapter) NewSession(ctx context.Context, cfg neo4j.SessionConfig) session {
	return sessionAdapter{d.d.NewSession(ctx, cfg)}
}

func (d driverAdapter) Close(ctx context.Context) error { return d.d.Close(ctx) }

// ─────────────────────────────────────────────────────────────────────────────
// Driver
// ─────────────────────────────────────────────────────────────────────────────

// Driver owns the connection pool and implements Executor.
type Driver struct {
	driver   driverAPI
	database string
	logger   logging.Logger
	once     sync.Once
}

// NewDriver connects and verifies connectivity.
func NewDriver(ctx context.Context, cfg Config, log logging.Logger) (*Driver, error) {
	if cfg.URI == "" {
		return nil, errors.NewValidationError("neo4j.uri", "neo4j uri is required")
	}
	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = 50
		c.MaxConnectionLifetime = time.Hour
		c.ConnectionAcquisitionTimeout = 30 * time.Second
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.MaxConnectionLifetime > 0 {
			c.MaxConnectionLifetime = cfg.MaxConnectionLifetime
		}
		if cfg.ConnectionAcquisitionTimeout > 0 {
			c.ConnectionAcquisitionTimeout = cfg.ConnectionAcquisitionTimeout
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot create neo4j driver")
	}
	drv := newDriver(driverAdapter{d}, cfg.Database, log)

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := drv.driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = d.Close(ctx)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "cannot connect to neo4j").WithDetail("uri=" + cfg.URI)
	}
	drv.logger.Info("neo4j connected", logging.String("uri", cfg.URI), logging.String("database", drv.database))
	return drv, nil
}

func newDriver(d driverAPI, database string, log logging.Logger) *Driver {
	if database == "" {
		database = "neo4j"
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Driver{driver: d, database: database, logger: log.Named("neo4j")}
}

func (d *Driver) execute(ctx context.Context, mode neo4j.AccessMode, work TransactionWork) (any, error) {
	s := d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database, AccessMode: mode})
	defer func() {
		if err := s.Close(ctx); err != nil {
			d.logger.Warn("neo4j session close failed", logging.Err(err))
		}
	}()
	var (
		out any
		err error
	)
	if mode == neo4j.AccessModeRead {
		out, err = s.ExecuteRead(ctx, work)
	} else {
		out, err = s.ExecuteWrite(ctx, work)
	}
	if err != nil {
		code := errors.CodeUnknown
		if errors.GetCode(err) == errors.CodeUnknown {
			code = errors.ErrCodeDatabaseError
		}
		return nil, errors.Wrap(err, code, "neo4j transaction failed")
	}
	return out, nil
}

// ExecuteRead runs work in a read transaction.
func (d *Driver) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return d.execute(ctx, neo4j.AccessModeRead, work)
}

// ExecuteWrite runs work in a write transaction.
func (d *Driver) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return d.execute(ctx, neo4j.AccessModeWrite, work)
}

// HealthCheck verifies connectivity and runs a trivial query.
func (d *Driver) HealthCheck(ctx context.Context) error {
	if err := d.driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j connectivity check failed")
	}
	_, err := d.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		res, err := tx.Run(ctx, "RETURN 1 AS ok", nil)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
		}
		return nil, res.Err()
	})
	return err
}

// Close releases the pool once.
func (d *Driver) Close(ctx context.Context) error {
	var err error
	d.once.Do(func() {
		if err = d.driver.Close(ctx); err != nil {
			d.logger.Error("neo4j close failed", logging.Err(err))
			return
		}
		d.logger.Info("neo4j driver closed")
	})
	return err
}

// CollectRecords maps every remaining record of res.
func CollectRecords[T any](ctx context.Context, res Result, mapper func(*neo4j.Record) (T, error)) ([]T, error) {
	var out []T
	for res.Next(ctx) {
		item, err := mapper(res.Record())
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
