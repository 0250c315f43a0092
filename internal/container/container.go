// Package container holds the process-wide dependencies and builds the
// core services over them.
package container

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zfogg/reelgraph/internal/accounts"
	"github.com/zfogg/reelgraph/internal/cache"
	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/content"
	"github.com/zfogg/reelgraph/internal/engagement"
	"github.com/zfogg/reelgraph/internal/feed"
	"github.com/zfogg/reelgraph/internal/follow"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/middleware"
	"github.com/zfogg/reelgraph/internal/repository"
	"github.com/zfogg/reelgraph/internal/visibility"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services is every core operation the adapters call into
type Services struct {
	Accounts *accounts.Service
	Follows  *follow.Service
	Content  *content.Service
	Likes    *engagement.Aggregator
	Threads  *engagement.Threads
	Feed     *feed.Service
}

// NewServices builds the core services over one database. m may be nil.
func NewServices(db *gorm.DB, feedCfg config.FeedConfig, log *zap.Logger, m *metrics.Metrics) *Services {
	policy := visibility.NewPolicy(repository.NewAccountRepository(db), repository.NewFollowRepository(db))
	follows := follow.NewService(db, log.Named("follow"), m)
	likes := engagement.NewAggregator(db, policy, log.Named("likes"), m)

	return &Services{
		Accounts: accounts.NewService(db, follows, policy, log.Named("accounts")),
		Follows:  follows,
		Content:  content.NewService(db, policy, log.Named("content"), m),
		Likes:    likes,
		Threads:  engagement.NewThreads(db, policy, log.Named("comments"), m),
		Feed:     feed.NewService(db, policy, likes, feedCfg, log.Named("feed"), m),
	}
}

// Container holds all application dependencies
type Container struct {
	db       *gorm.DB
	logger   *zap.Logger
	cache    *cache.RedisClient
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	services *Services

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates an empty container
func New() *Container {
	return &Container{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// SetDB registers the database connection
func (c *Container) SetDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger
func (c *Container) SetLogger(l *zap.Logger) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger, or a no-op one if none was set
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggerLocked()
}

func (c *Container) loggerLocked() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}

// SetCache registers the Redis client. nil leaves rate limiting off.
func (c *Container) SetCache(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis client, which may be nil
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// RateCounter is the cache as a middleware.Counter, or a nil interface
// when no cache is registered
func (c *Container) RateCounter() middleware.Counter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cache == nil {
		return nil
	}
	return c.cache
}

// EnableMetrics creates a registry with the process and Go collectors and
// registers the application metrics on it
func (c *Container) EnableMetrics() *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	c.registry = reg
	c.metrics = metrics.New(reg)
	return c
}

// Metrics returns the application metrics, nil unless enabled
func (c *Container) Metrics() *metrics.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// Registry is the gatherer for /metrics, nil unless enabled
func (c *Container) Registry() *prometheus.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

// Build validates the container and wires the services once
func (c *Container) Build(feedCfg config.FeedConfig) (*Services, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.services == nil {
		c.services = NewServices(c.db, feedCfg, c.loggerLocked(), c.metrics)
	}
	return c.services, nil
}

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions run in LIFO order.
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup runs every cleanup function, newest first. A failing function
// is logged and the rest still run; the first error is returned.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			c.loggerLocked().Error("cleanup function failed", zap.Int("index", i), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	c.cleanupFuncs = nil
	return first
}

// Validate checks that all required dependencies are registered
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	if c.db == nil {
		missing = append(missing, "database")
	}
	if len(missing) > 0 {
		return newInitializationError(missing)
	}
	return nil
}
