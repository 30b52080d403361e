package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"medicare-api/models"
)

// RefreshTokenRepository owns refresh-token rows. Tokens are addressed by
// their SHA-256 hash; the raw string never reaches this layer.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	// Rotate revokes the live row matching hash and returns it. A row is
	// live when revoked_at is unset and expires_at is in the future; the
	// revoke is a single conditional update, so of two concurrent calls
	// presenting the same token exactly one gets the row back and the
	// other gets ErrNotFound.
	Rotate(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error)
	// Revoke marks the row matching hash as revoked if it exists and is not
	// already revoked. Missing rows are not an error (idempotent logout).
	Revoke(ctx context.Context, tokenHash string, now time.Time) error
	// DeleteExpiredBefore removes rows whose expiry is older than cutoff.
	// Nothing schedules this yet; stale rows accumulate until a deployment
	// wires a periodic purge.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormRefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &gormRefreshTokenRepository{db: db}
}

func (r *gormRefreshTokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *gormRefreshTokenRepository) Rotate(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshToken, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("revoked_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var t models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *gormRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	// Guarding on revoked_at keeps the original revocation timestamp when
	// logout is called twice.
	return r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Update("revoked_at", now).Error
}

func (r *gormRefreshTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
