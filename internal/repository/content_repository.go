package repository

import (
	"context"
	"fmt"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/models"
	"gorm.io/gorm"
)

// ContentQuery selects content ids. Scopes are applied as-is (the
// visibility scope lives here); the remaining fields narrow further.
type ContentQuery struct {
	Scopes         []func(*gorm.DB) *gorm.DB
	OwnerID        string
	ExcludeOwnerID string
	Type           models.ContentType
	Page           Page
}

// ContentRepository handles content rows and their media extensions
type ContentRepository interface {
	WithTx(tx *gorm.DB) ContentRepository

	// Create inserts the content and its media extension. Call inside a transaction.
	Create(ctx context.Context, content *models.Content, media models.Media) error
	Get(ctx context.Context, id string) (*models.ContentItem, error)
	// Load returns items for ids in the order given; missing ids are skipped
	Load(ctx context.Context, ids []string) ([]models.ContentItem, error)
	// ListIDs returns matching ids newest first
	ListIDs(ctx context.Context, q ContentQuery) ([]string, error)
	// Delete removes the content and everything hanging off it. Call inside a transaction.
	Delete(ctx context.Context, id string) error
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) WithTx(tx *gorm.DB) ContentRepository {
	return &contentRepository{db: tx}
}

func (r *contentRepository) Create(ctx context.Context, content *models.Content, media models.Media) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Image", "Reel").Create(content).Error; err != nil {
		return apierrors.FromStore(err, "content")
	}

	var ext interface{}
	switch m := media.(type) {
	case models.Image:
		ext = &models.ImageDetail{ContentID: content.ID, AltText: m.AltText}
	case models.Reel:
		ext = &models.ReelDetail{ContentID: content.ID, DurationMs: m.DurationMs()}
	default:
		return apierrors.ValidationError("media", fmt.Sprintf("unsupported media %T", media))
	}
	if err := db.Create(ext).Error; err != nil {
		return apierrors.FromStore(err, "content media")
	}
	return nil
}

func (r *contentRepository) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	var content models.Content
	err := r.db.WithContext(ctx).Preload("Image").Preload("Reel").Where("id = ?", id).First(&content).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "content")
	}
	return toItem(&content)
}

func (r *contentRepository) Load(ctx context.Context, ids []string) ([]models.ContentItem, error) {
	if len(ids) == 0 {
		return []models.ContentItem{}, nil
	}

	var rows []models.Content
	err := r.db.WithContext(ctx).Preload("Image").Preload("Reel").Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "content")
	}

	byID := make(map[string]*models.Content, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	items := make([]models.ContentItem, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			// deleted between id selection and load
			continue
		}
		item, err := toItem(c)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (r *contentRepository) ListIDs(ctx context.Context, q ContentQuery) ([]string, error) {
	db := r.db.WithContext(ctx).Model(&models.Content{}).Scopes(q.Scopes...)
	if q.OwnerID != "" {
		db = db.Where("contents.owner_id = ?", q.OwnerID)
	}
	if q.ExcludeOwnerID != "" {
		db = db.Where("contents.owner_id <> ?", q.ExcludeOwnerID)
	}
	switch q.Type {
	case models.ContentTypeReel:
		db = db.Where("EXISTS (SELECT 1 FROM reel_details WHERE reel_details.content_id = contents.id)")
	case models.ContentTypeImage:
		db = db.Where("EXISTS (SELECT 1 FROM image_details WHERE image_details.content_id = contents.id)")
	}
	db = q.Page.apply(db.Order("contents.created_at DESC").Order("contents.id DESC"))

	var ids []string
	if err := db.Pluck("contents.id", &ids).Error; err != nil {
		return nil, apierrors.FromStore(err, "content")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (r *contentRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	comments := db.Model(&models.Comment{}).Select("id").Where("content_id = ?", id)

	steps := []struct {
		model interface{}
		query string
		arg   interface{}
	}{
		{&models.CommentLike{}, "comment_id IN (?)", comments},
		{&models.Comment{}, "content_id = ?", id},
		{&models.Like{}, "content_id = ?", id},
		{&models.Action{}, "content_id = ?", id},
		{&models.ImageDetail{}, "content_id = ?", id},
		{&models.ReelDetail{}, "content_id = ?", id},
	}
	for _, step := range steps {
		if err := db.Where(step.query, step.arg).Delete(step.model).Error; err != nil {
			return apierrors.FromStore(err, "content")
		}
	}

	result := db.Where("id = ?", id).Delete(&models.Content{})
	if result.Error != nil {
		return apierrors.FromStore(result.Error, "content")
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFound("content")
	}
	return nil
}

func toItem(c *models.Content) (*models.ContentItem, error) {
	media, err := models.ResolveMedia(c)
	if err != nil {
		return nil, apierrors.InternalError(err.Error())
	}
	return &models.ContentItem{Content: *c, Media: media}, nil
}
