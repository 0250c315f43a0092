// Package content publishes and removes media items.
package content

import (
	"context"
	"strings"

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

var tracer = otel.Tracer("reelgraph/content")

// Draft is what a client submits to publish. Path is an opaque media
// location produced by the upload pipeline.
type Draft struct {
	Path    string
	Caption string
	Media   models.Media
}

// Service publishes, reads and deletes content
type Service struct {
	db       *gorm.DB
	accounts repository.AccountRepository
	content  repository.ContentRepository
	policy   *visibility.Policy
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewService creates a content service. m may be nil.
func NewService(db *gorm.DB, policy *visibility.Policy, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		db:       db,
		accounts: repository.NewAccountRepository(db),
		content:  repository.NewContentRepository(db),
		policy:   policy,
		log:      log,
		metrics:  m,
	}
}

// Publish stores a new content item with its media details
func (s *Service) Publish(ctx context.Context, ownerID string, draft Draft) (*models.ContentItem, error) {
	ctx, span := tracer.Start(ctx, "content.Publish")
	defer span.End()

	if err := validate(draft); err != nil {
		return nil, err
	}
	if _, err := s.accounts.Get(ctx, ownerID); err != nil {
		return nil, err
	}

	c := &models.Content{
		OwnerID: ownerID,
		Path:    strings.TrimSpace(draft.Path),
		Caption: strings.TrimSpace(draft.Caption),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.content.WithTx(tx).Create(ctx, c, draft.Media)
	})
	if err != nil {
		return nil, s.fail("publish", ownerID, err)
	}

	s.log.Info("content published",
		logger.WithUserID(ownerID),
		logger.WithContentID(c.ID),
		zap.String("type", string(draft.Media.Type())),
	)
	return &models.ContentItem{Content: *c, Media: draft.Media}, nil
}

func validate(draft Draft) error {
	if strings.TrimSpace(draft.Path) == "" {
		return apierrors.ValidationError("path", "media path is required")
	}
	switch m := draft.Media.(type) {
	case models.Image:
	case models.Reel:
		if m.Duration <= 0 {
			return apierrors.ValidationError("duration_ms", "reel duration must be positive")
		}
	case nil:
		return apierrors.ValidationError("type", "media type is required")
	}
	return nil
}

// Get returns contentID if viewerID may see its owner
func (s *Service) Get(ctx context.Context, viewerID, contentID string) (*models.ContentItem, error) {
	item, err := s.content.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, viewerID, item.Content.OwnerID); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the owner's content with all its likes and comments
func (s *Service) Delete(ctx context.Context, actorID, contentID string) error {
	ctx, span := tracer.Start(ctx, "content.Delete")
	defer span.End()

	item, err := s.content.Get(ctx, contentID)
	if err != nil {
		return err
	}
	if item.Content.OwnerID != actorID {
		return apierrors.Forbidden("only the owner can delete content")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.content.WithTx(tx).Delete(ctx, contentID)
	})
	if err != nil {
		return s.fail("delete", actorID, err)
	}
	s.log.Info("content deleted", logger.WithUserID(actorID), logger.WithContentID(contentID))
	return nil
}

func (s *Service) fail(op, actorID string, err error) error {
	err = apierrors.FromStore(err, "content")
	if apierrors.Is(err, apierrors.ErrTransientStore) {
		s.metrics.StoreError("content." + op)
		s.log.Error("content "+op+" failed", logger.WithUserID(actorID), zap.Error(err))
	}
	return err
}
