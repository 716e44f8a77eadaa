// Package bootstrap wires storage, caches, authorization and services from config.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/auth"
	"github.com/ispdesk/ops-console/internal/cache"
	"github.com/ispdesk/ops-console/internal/config"
	"github.com/ispdesk/ops-console/internal/events"
	"github.com/ispdesk/ops-console/internal/observability"
	"github.com/ispdesk/ops-console/internal/persistence"
	"github.com/ispdesk/ops-console/internal/repository"
	"github.com/ispdesk/ops-console/internal/repository/memory"
	"github.com/ispdesk/ops-console/internal/service"
	"github.com/ispdesk/ops-console/internal/worker"
	"github.com/ispdesk/ops-console/migrations"
)

// Container holds the wired application graph.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Metrics    *observability.Metrics
	Dispatcher events.Dispatcher
	Authorizer auth.Authorizer
	Tokens     *auth.TokenManager

	Categories    *service.CategoryService
	Tickets       *service.TicketService
	Comments      *service.CommentService
	Notifications *service.NotificationService
}

type stores struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	categories repository.CategoryRepository
	employees  repository.EmployeeRepository
	customers  repository.CustomerRepository
	txm        repository.TxManager
}

// Build connects to the configured backends and constructs the services.
// Without POSTGRES_DSN everything runs on the in-memory store.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c := &Container{Config: cfg, Logger: logger, Postgres: pg}

	var st stores
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
				c.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		st = stores{
			tickets:    repository.NewTicketRepository(pool),
			comments:   repository.NewTicketCommentRepository(pool),
			categories: repository.NewCategoryRepository(pool),
			employees:  repository.NewEmployeeRepository(pool),
			customers:  repository.NewCustomerRepository(pool),
			txm:        repository.NewTxManager(pool),
		}
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
		mem := memory.NewStore()
		st = stores{
			tickets:    mem.Tickets(),
			comments:   mem.Comments(),
			categories: mem.Categories(),
			customers:  mem.Customers(),
		}
	}

	var categoryCache service.CategoryCache
	var publisher *events.RedisPublisher
	if cfg.Redis.Enabled {
		c.Redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		categoryCache = cache.NewCategoryCache(c.Redis.Client, cfg.Categories.CacheTTL())
		if cfg.Notification.RedisChannel != "" {
			publisher = events.NewRedisPublisher(c.Redis.Client, cfg.Notification.RedisChannel, logger)
		}
	}

	authz, err := auth.NewCasbinAuthorizer(cfg.Auth.PolicyPath, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load authorization policy: %w", err)
	}
	c.Authorizer = authz
	c.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	c.Metrics = observability.NewMetrics()
	c.Dispatcher = events.NewInMemoryDispatcher(logger)

	c.Categories = service.NewCategoryService(service.CategoryDependencies{
		CategoryRepo: st.categories,
		Cache:        categoryCache,
		Authorizer:   authz,
		Logger:       logger,
	})
	c.Tickets = service.NewTicketService(service.TicketDependencies{
		TicketRepo:   st.tickets,
		CommentRepo:  st.comments,
		Categories:   c.Categories,
		EmployeeRepo: st.employees,
		CustomerRepo: st.customers,
		TxManager:    st.txm,
		Authorizer:   authz,
		Dispatcher:   c.Dispatcher,
		Metrics:      c.Metrics,
		Logger:       logger,
	})
	c.Comments = service.NewCommentService(service.CommentDependencies{
		TicketRepo:   st.tickets,
		CommentRepo:  st.comments,
		CustomerRepo: st.customers,
		Authorizer:   authz,
		Dispatcher:   c.Dispatcher,
		Logger:       logger,
	})
	c.Notifications = service.NewNotificationService(c.Dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(c.Dispatcher, c.Notifications, publisher)

	if cfg.Categories.SeedOnBoot {
		inserted, err := c.Categories.SeedDefaults(ctx, auth.SystemActor)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("seed categories: %w", err)
		}
		logger.Info("category seed on boot", zap.Int("inserted", inserted))
	}
	return c, nil
}

// Close releases backend connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
