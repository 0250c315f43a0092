// Package visibility decides whether a viewer may see an owner's content.
//
// A viewer sees an owner's content iff the viewer is the owner, the owner
// is public, or the viewer has an established follow of the owner. A
// pending follow request grants nothing.
package visibility

import (
	"context"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("reelgraph/visibility")

// Policy evaluates the visibility predicate. It only reads.
type Policy struct {
	accounts repository.AccountRepository
	follows  repository.FollowRepository
}

// NewPolicy creates a policy over the given repositories
func NewPolicy(accounts repository.AccountRepository, follows repository.FollowRepository) *Policy {
	return &Policy{accounts: accounts, follows: follows}
}

// CanView reports whether viewerID may see ownerID's content. An unknown
// owner is NotFound.
func (p *Policy) CanView(ctx context.Context, viewerID, ownerID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "visibility.CanView", trace.WithAttributes(
		attribute.String("viewer_id", viewerID),
		attribute.String("owner_id", ownerID),
	))
	defer span.End()

	visible, err := p.FilterVisible(ctx, viewerID, []string{ownerID})
	if err != nil {
		return false, err
	}
	return len(visible) == 1, nil
}

// FilterVisible returns the owners viewerID may see, in input order and
// without duplicates. The viewer is kept if present; excluding the viewer
// is the caller's business.
func (p *Policy) FilterVisible(ctx context.Context, viewerID string, ownerIDs []string) ([]string, error) {
	unique := make([]string, 0, len(ownerIDs))
	seen := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	owners, err := p.accounts.GetMany(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, id := range unique {
		if _, ok := owners[id]; !ok {
			return nil, apierrors.NotFound("account").WithDetails(id)
		}
	}

	followed := map[string]bool{}
	if viewerID != "" {
		followed, err = p.follows.FollowedAmong(ctx, viewerID, unique)
		if err != nil {
			return nil, err
		}
	}

	visible := make([]string, 0, len(unique))
	for _, id := range unique {
		if id == viewerID || owners[id].IsPublic() || followed[id] {
			visible = append(visible, id)
		}
	}
	return visible, nil
}

// Require is CanView that fails with Forbidden instead of returning false
func (p *Policy) Require(ctx context.Context, viewerID, ownerID string) error {
	ok, err := p.CanView(ctx, viewerID, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return apierrors.Forbidden("this account is private")
	}
	return nil
}

// Scope restricts a query over the contents table to rows viewerID may see.
// It is the set form of CanView and must stay in step with it.
func (p *Policy) Scope(viewerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"(contents.owner_id = ? OR contents.owner_id IN (SELECT id FROM accounts WHERE visibility = ?) OR contents.owner_id IN (SELECT followed_id FROM follows WHERE follower_id = ?))",
			viewerID, models.VisibilityPublic, viewerID,
		)
	}
}
