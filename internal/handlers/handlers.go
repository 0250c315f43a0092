// Package handlers is the HTTP adapter over the core services. Handlers
// decode requests, call exactly one service operation and map its error
// through util.RespondError.
package handlers

import (
	"context"
	"time"

	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/container"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	svc      *container.Services
	db       *gorm.DB
	redis    Pinger
	auth     config.AuthConfig
	feed     config.FeedConfig
	tokenTTL time.Duration
	log      *zap.Logger
}

// NewHandlers creates a new handlers instance. redis may be nil.
func NewHandlers(svc *container.Services, db *gorm.DB, redis Pinger, cfg *config.Config, log *zap.Logger) *Handlers {
	return &Handlers{
		svc:      svc,
		db:       db,
		redis:    redis,
		auth:     cfg.Auth,
		feed:     cfg.Feed,
		tokenTTL: 24 * time.Hour,
		log:      log,
	}
}
