package repository

import (
	"context"
	"strings"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/models"
	"gorm.io/gorm"
)

// AccountRepository handles all database operations for accounts
type AccountRepository interface {
	WithTx(tx *gorm.DB) AccountRepository

	// Create inserts the account and its profile. Call inside a transaction.
	Create(ctx context.Context, account *models.Account, profile *models.AccountProfile) error
	Get(ctx context.Context, id string) (*models.Account, error)
	GetByHandle(ctx context.Context, handle string) (*models.Account, error)
	GetMany(ctx context.Context, ids []string) (map[string]*models.Account, error)
	UpdateVisibility(ctx context.Context, id string, v models.Visibility) error
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) WithTx(tx *gorm.DB) AccountRepository {
	return &accountRepository{db: tx}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account, profile *models.AccountProfile) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(account).Error; err != nil {
		return apierrors.FromStore(err, "handle "+account.Handle)
	}
	profile.AccountID = account.ID
	if err := db.Create(profile).Error; err != nil {
		return apierrors.FromStore(err, "account profile")
	}
	account.Profile = profile
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Preload("Profile").Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "account")
	}
	return &account, nil
}

// GetByHandle matches case-insensitively
func (r *accountRepository) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Where("LOWER(handle) = ?", strings.ToLower(handle)).
		First(&account).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "account")
	}
	return &account, nil
}

func (r *accountRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.Account, error) {
	out := make(map[string]*models.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var accounts []*models.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, apierrors.FromStore(err, "accounts")
	}
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out, nil
}

func (r *accountRepository) UpdateVisibility(ctx context.Context, id string, v models.Visibility) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Update("visibility", v)
	if result.Error != nil {
		return apierrors.FromStore(result.Error, "account")
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFound("account")
	}
	return nil
}
