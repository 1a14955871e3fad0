package cmd

import (
	"context"
	"fmt"

	opshttp "clinicalorders/internal/adapters/in/http"
	"clinicalorders/internal/adapters/out/authz"
	"clinicalorders/internal/adapters/out/memory"
	"clinicalorders/internal/adapters/out/postgres"
	"clinicalorders/internal/adapters/out/postgres/catalogrepo"
	"clinicalorders/internal/adapters/out/postgres/orderrepo"
	"clinicalorders/internal/adapters/out/postgres/sequencerepo"
	"clinicalorders/internal/adapters/out/redisstore"
	"clinicalorders/internal/core/application/numbering"
	"clinicalorders/internal/core/application/usecases/commands"
	"clinicalorders/internal/core/application/usecases/queries"
	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/domain/services"
	"clinicalorders/internal/core/ports"
	"clinicalorders/internal/jobs"
	"clinicalorders/internal/pkg/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sequenceInitializer is implemented by the sequences that need to be created before
// the first Next.
type sequenceInitializer interface {
	ports.OrderNumberSequence
	Ensure(ctx context.Context, start int64) error
}

// CompositionRoot owns the process's connections and builds every handler on top
// of them.
type CompositionRoot struct {
	cfg    Config
	logger zerolog.Logger
	clock  kernel.Clock

	gormDB *gorm.DB
	pool   *pgxpool.Pool
	redis  *redis.Client

	registry   *prometheus.Registry
	metrics    *metrics.Recorder
	uowFactory *postgres.GormUnitOfWorkFactory
	authorizer ports.Authorizer
	locker     ports.Locker
	sequence   sequenceInitializer
	numbers    *numbering.Provider
}

// NewCompositionRoot connects to PostgreSQL, and to Redis when REDIS_URL is set. With
// Redis the patient lock and the order number counter are shared between instances;
// without it the lock is local to this process and numbers come from a PostgreSQL
// sequence.
func NewCompositionRoot(ctx context.Context, cfg Config, logger zerolog.Logger) (*CompositionRoot, error) {
	gormDB, err := gorm.Open(gormpostgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	c := &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		clock:      kernel.SystemClock,
		gormDB:     gormDB,
		registry:   prometheus.NewRegistry(),
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		authorizer: authz.AllowAll{},
	}

	c.pool, err = sequencerepo.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		c.redis, err = redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.locker = redisstore.NewLocker(c.redis, redisstore.WithTTL(cfg.LockTTL))
		c.sequence = redisstore.NewSequence(c.redis, cfg.OrderNumberSequence)
	} else {
		logger.Warn().Msg("REDIS_URL is not set, patient locks are local to this process")
		c.locker = memory.NewLocker()
		c.sequence, err = sequencerepo.NewPgxSequence(c.pool, cfg.OrderNumberSequence)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	c.metrics, err = metrics.NewRecorder(c.registry)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	c.numbers, err = numbering.NewProvider(numbering.ProviderDeps{
		Prefix:   cfg.OrderNumberPrefix,
		Sequence: c.sequence,
		Clock:    c.clock,
		Strategy: cfg.OrderNumberGenerator,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// Close releases every connection the root opened.
func (c *CompositionRoot) Close() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if c.pool != nil {
		c.pool.Close()
	}
	if sqlDB, err := c.gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Migrate creates the tables and the order number sequence.
func (c *CompositionRoot) Migrate(ctx context.Context) error {
	if err := c.gormDB.WithContext(ctx).AutoMigrate(postgres.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := c.sequence.Ensure(ctx, c.cfg.OrderNumberStart); err != nil {
		return fmt.Errorf("ensure order number sequence: %w", err)
	}
	return nil
}

func (c *CompositionRoot) Numbers() *numbering.Provider {
	return c.numbers
}

func (c *CompositionRoot) ConceptDirectory() *catalogrepo.GormConceptDirectory {
	return catalogrepo.NewGormConceptDirectory(c.gormDB)
}

func (c *CompositionRoot) OrderTypeRepository() *catalogrepo.GormOrderTypeRepository {
	return catalogrepo.NewGormOrderTypeRepository(c.gormDB)
}

func (c *CompositionRoot) CareSettingRepository() *catalogrepo.GormCareSettingRepository {
	return catalogrepo.NewGormCareSettingRepository(c.gormDB)
}

func (c *CompositionRoot) deps() commands.Deps {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.Deps{
		UoWFactory: f,
		Locker:     c.locker,
		Authorizer: c.authorizer,
		Clock:      c.clock,
		Logger:     c.logger,
		Metrics:    c.metrics,
	}
}

func (c *CompositionRoot) CreateSaveOrderCommandHandler() (*commands.SaveOrderCommandHandler, error) {
	return commands.NewSaveOrderCommandHandler(commands.SaveOrderCommandHandlerDeps{
		Deps:     c.deps(),
		Concepts: c.ConceptDirectory(),
		Numbers:  c.numbers,
	})
}

func (c *CompositionRoot) CreateStopOrderCommandHandler() (*commands.StopOrderCommandHandler, error) {
	return commands.NewStopOrderCommandHandler(c.deps())
}

func (c *CompositionRoot) CreateVoidOrderCommandHandler() (*commands.VoidOrderCommandHandler, error) {
	return commands.NewVoidOrderCommandHandler(c.deps())
}

func (c *CompositionRoot) CreateUnvoidOrderCommandHandler() (*commands.UnvoidOrderCommandHandler, error) {
	return commands.NewUnvoidOrderCommandHandler(c.deps())
}

func (c *CompositionRoot) CreateUpdateFulfillerStatusCommandHandler() (*commands.UpdateFulfillerStatusCommandHandler, error) {
	return commands.NewUpdateFulfillerStatusCommandHandler(c.deps())
}

func (c *CompositionRoot) CreatePurgeOrderCommandHandler() (*commands.PurgeOrderCommandHandler, error) {
	return commands.NewPurgeOrderCommandHandler(c.deps())
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(
		orderrepo.NewGormOrderRepository(c.gormDB),
		c.OrderTypeRepository(),
		c.authorizer,
		c.clock,
	)
}

func (c *CompositionRoot) CreateGetOrderByNumberQueryHandler() queries.GetOrderByNumberQueryHandler {
	return queries.NewGetOrderByNumberQueryHandler(orderrepo.NewGormOrderRepository(c.gormDB), c.authorizer)
}

func (c *CompositionRoot) CreateGetOrderHistoryQueryHandler() queries.GetOrderHistoryQueryHandler {
	return queries.NewGetOrderHistoryQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateFindActiveOrderConflictsQueryHandler() queries.FindActiveOrderConflictsQueryHandler {
	return queries.NewFindActiveOrderConflictsQueryHandler(
		orderrepo.NewGormOrderRepository(c.gormDB),
		services.NewConflictDetector(nil),
		c.clock,
	)
}

func (c *CompositionRoot) CreateActiveOrderAuditJob() *jobs.ActiveOrderAuditJob {
	return jobs.NewActiveOrderAuditJob(
		c.CreateFindActiveOrderConflictsQueryHandler(),
		c.metrics,
		c.cfg.AuditCronSpec,
		c.logger,
	)
}

func (c *CompositionRoot) CreateOpsServer() *opshttp.Server {
	checks := map[string]opshttp.Check{
		"postgres": c.pool.Ping,
	}
	if c.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}
	return opshttp.NewServer(checks, c.registry, c.logger)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
