// Package engagement aggregates likes and comments on content and keeps
// comment threads two levels deep.
package engagement

import (
	"context"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/logger"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/repository"
	"github.com/zfogg/reelgraph/internal/visibility"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("reelgraph/engagement")

type deps struct {
	db       *gorm.DB
	accounts repository.AccountRepository
	content  repository.ContentRepository
	engage   repository.EngagementRepository
	policy   *visibility.Policy
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func newDeps(db *gorm.DB, policy *visibility.Policy, log *zap.Logger, m *metrics.Metrics) deps {
	return deps{
		db:       db,
		accounts: repository.NewAccountRepository(db),
		content:  repository.NewContentRepository(db),
		engage:   repository.NewEngagementRepository(db),
		policy:   policy,
		log:      log,
		metrics:  m,
	}
}

// viewableContent loads contentID and checks viewerID may see its owner
func (d *deps) viewableContent(ctx context.Context, viewerID, contentID string) (*models.ContentItem, error) {
	item, err := d.content.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := d.policy.Require(ctx, viewerID, item.Content.OwnerID); err != nil {
		return nil, err
	}
	return item, nil
}

func (d *deps) record(target, action, actorID, id string, err error) error {
	err = apierrors.FromStore(err, target)
	d.metrics.EngagementMutation(target, action, metrics.Outcome(err))

	fields := []zap.Field{
		zap.String("target", target),
		zap.String("action", action),
		logger.WithUserID(actorID),
		zap.String("id", id),
	}
	switch {
	case err == nil:
		d.log.Debug("engagement mutation", fields...)
	case apierrors.Is(err, apierrors.ErrTransientStore):
		d.metrics.StoreError("engagement." + action)
		d.log.Error("engagement mutation failed", append(fields, zap.Error(err))...)
	default:
		d.log.Debug("engagement mutation rejected", append(fields, zap.Error(err))...)
	}
	return err
}
