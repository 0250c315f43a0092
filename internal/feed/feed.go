// Package feed composes paginated content feeds for a viewer.
//
// Every mode runs the same pipeline: the visibility scope selects the
// candidate ids, the sampler orders and windows them, the repository loads
// the page with its media and the aggregator adds engagement stats.
//
// VisibleContentPage, ExplorePage and ReelsPage are seeded: a fixed seed
// gives a stable order, so walking offsets with one seed visits each
// candidate once. BoundedRandomSample is not seeded and returns a new
// random draw from the most recent window on every call.
package feed

import (
	"context"
	"time"

	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/engagement"
	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/repository"
	"github.com/zfogg/reelgraph/internal/sampler"
	"github.com/zfogg/reelgraph/internal/visibility"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("reelgraph/feed")

// Feed modes, used as the metrics label
const (
	ModeVisible = "visible"
	ModeExplore = "explore"
	ModeReels   = "reels"
	ModeFresh   = "fresh"
	ModeProfile = "profile"
)

// FeedItem is one entry of any feed
type FeedItem struct {
	ID            string             `json:"id"`
	OwnerID       string             `json:"owner_id"`
	OwnerHandle   string             `json:"owner_handle"`
	Type          models.ContentType `json:"type"`
	DurationMs    int64              `json:"duration_ms,omitempty"`
	Path          string             `json:"path"`
	Caption       string             `json:"caption"`
	CreatedAt     time.Time          `json:"created_at"`
	LikeCount     int64              `json:"like_count"`
	CommentCount  int64              `json:"comment_count"`
	LikedByViewer bool               `json:"liked_by_viewer"`
}

// Service builds feeds
type Service struct {
	accounts repository.AccountRepository
	content  repository.ContentRepository
	policy   *visibility.Policy
	stats    *engagement.Aggregator
	cfg      config.FeedConfig
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewService creates a feed service. m may be nil.
func NewService(db *gorm.DB, policy *visibility.Policy, stats *engagement.Aggregator, cfg config.FeedConfig, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		accounts: repository.NewAccountRepository(db),
		content:  repository.NewContentRepository(db),
		policy:   policy,
		stats:    stats,
		cfg:      cfg,
		log:      log,
		metrics:  m,
	}
}

// VisibleContentPage pages over everything viewerID can see, own content included
func (s *Service) VisibleContentPage(ctx context.Context, viewerID, seed string, offset, limit int) ([]FeedItem, error) {
	return s.seeded(ctx, ModeVisible, viewerID, seed, offset, limit, repository.ContentQuery{})
}

// ExplorePage pages over visible content from other accounts
func (s *Service) ExplorePage(ctx context.Context, viewerID, seed string, offset, limit int) ([]FeedItem, error) {
	return s.seeded(ctx, ModeExplore, viewerID, seed, offset, limit, repository.ContentQuery{ExcludeOwnerID: viewerID})
}

// ReelsPage pages over visible reels from other accounts
func (s *Service) ReelsPage(ctx context.Context, viewerID, seed string, offset, limit int) ([]FeedItem, error) {
	return s.seeded(ctx, ModeReels, viewerID, seed, offset, limit, repository.ContentQuery{
		ExcludeOwnerID: viewerID,
		Type:           models.ContentTypeReel,
	})
}

func (s *Service) seeded(ctx context.Context, mode, viewerID, seed string, offset, limit int, q repository.ContentQuery) (items []FeedItem, err error) {
	ctx, span := s.startSpan(ctx, mode, viewerID, offset, limit)
	defer span.End()
	defer s.observe(mode, viewerID, time.Now(), &err)

	if seed == "" {
		return nil, apierrors.ValidationError("seed", "seed is required")
	}
	if limit, err = s.checkPage(offset, limit); err != nil {
		return nil, err
	}
	if _, err = s.accounts.Get(ctx, viewerID); err != nil {
		return nil, err
	}

	q.Scopes = append(q.Scopes, s.policy.Scope(viewerID))
	ids, err := s.content.ListIDs(ctx, q)
	if err != nil {
		return nil, err
	}

	page := sampler.Page(ids, func(id string) string { return id }, seed, offset, limit)
	return s.hydrate(ctx, viewerID, page)
}

// BoundedRandomSample draws min(sampleSize, limit) items at random from
// the windowSize most recent visible items of other accounts, skipping the
// first offset of them. Results differ between calls.
func (s *Service) BoundedRandomSample(ctx context.Context, viewerID string, offset, limit, windowSize, sampleSize int) (items []FeedItem, err error) {
	ctx, span := s.startSpan(ctx, ModeFresh, viewerID, offset, limit)
	defer span.End()
	defer s.observe(ModeFresh, viewerID, time.Now(), &err)

	if limit, err = s.checkPage(offset, limit); err != nil {
		return nil, err
	}
	if windowSize <= 0 {
		return nil, apierrors.ValidationError("window", "window must be positive")
	}
	if sampleSize <= 0 {
		return nil, apierrors.ValidationError("sample", "sample must be positive")
	}
	if _, err = s.accounts.Get(ctx, viewerID); err != nil {
		return nil, err
	}

	ids, err := s.content.ListIDs(ctx, repository.ContentQuery{
		Scopes:         []func(*gorm.DB) *gorm.DB{s.policy.Scope(viewerID)},
		ExcludeOwnerID: viewerID,
		Page:           repository.Page{Offset: offset, Limit: windowSize},
	})
	if err != nil {
		return nil, err
	}

	picked := sampler.Sample(ids, min(sampleSize, limit), nil)
	return s.hydrate(ctx, viewerID, picked)
}

// ProfileContent lists ownerID's content newest first. A viewer who may
// not see the owner gets an empty list rather than an error.
func (s *Service) ProfileContent(ctx context.Context, viewerID, ownerID string, offset, limit int) (items []FeedItem, err error) {
	ctx, span := s.startSpan(ctx, ModeProfile, viewerID, offset, limit)
	defer span.End()
	defer s.observe(ModeProfile, viewerID, time.Now(), &err)

	if limit, err = s.checkPage(offset, limit); err != nil {
		return nil, err
	}

	canView, err := s.policy.CanView(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	if !canView {
		return []FeedItem{}, nil
	}

	ids, err := s.content.ListIDs(ctx, repository.ContentQuery{
		OwnerID: ownerID,
		Page:    repository.Page{Offset: offset, Limit: limit},
	})
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, viewerID, ids)
}

// checkPage validates offset/limit and clamps limit to the configured max
func (s *Service) checkPage(offset, limit int) (int, error) {
	if offset < 0 {
		return 0, apierrors.ValidationError("offset", "offset must not be negative")
	}
	if limit <= 0 {
		return 0, apierrors.ValidationError("limit", "limit must be positive")
	}
	if s.cfg.MaxLimit > 0 && limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	return limit, nil
}

// hydrate loads ids in order and decorates them with owner and stats
func (s *Service) hydrate(ctx context.Context, viewerID string, ids []string) ([]FeedItem, error) {
	loaded, err := s.content.Load(ctx, ids)
	if err != nil {
		return nil, err
	}

	ownerIDs := make([]string, 0, len(loaded))
	contentIDs := make([]string, 0, len(loaded))
	for _, it := range loaded {
		ownerIDs = append(ownerIDs, it.Content.OwnerID)
		contentIDs = append(contentIDs, it.Content.ID)
	}
	owners, err := s.accounts.GetMany(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats.Stats(ctx, viewerID, contentIDs)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(loaded))
	for _, it := range loaded {
		c := it.Content
		item := FeedItem{
			ID:            c.ID,
			OwnerID:       c.OwnerID,
			Type:          it.Media.Type(),
			Path:          c.Path,
			Caption:       c.Caption,
			CreatedAt:     c.CreatedAt,
			LikeCount:     stats[c.ID].LikeCount,
			CommentCount:  stats[c.ID].CommentCount,
			LikedByViewer: stats[c.ID].LikedByViewer,
		}
		if owner, ok := owners[c.OwnerID]; ok {
			item.OwnerHandle = owner.Handle
		}
		if reel, ok := it.Media.(models.Reel); ok {
			item.DurationMs = reel.DurationMs()
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) startSpan(ctx context.Context, mode, viewerID string, offset, limit int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "feed."+mode, trace.WithAttributes(
		attribute.String("viewer_id", viewerID),
		attribute.Int("offset", offset),
		attribute.Int("limit", limit),
	))
}

func (s *Service) observe(mode, viewerID string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	s.metrics.FeedPage(mode, elapsed)
	if *errp == nil {
		return
	}
	*errp = apierrors.FromStore(*errp, "feed")
	if apierrors.Is(*errp, apierrors.ErrTransientStore) {
		s.metrics.StoreError("feed." + mode)
		s.log.Error("feed page failed",
			zap.String("mode", mode),
			zap.String("viewer_id", viewerID),
			zap.Duration("elapsed", elapsed),
			zap.Error(*errp),
		)
	}
}
