package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"medicare-api/models"
)

// UploadRepository persists stored-file records for license documents.
type UploadRepository interface {
	Create(ctx context.Context, u *models.Upload) error
	FindByStoredName(ctx context.Context, storedName string) (*models.Upload, error)
	// FindPendingScan returns uploads the license-scan worker has not
	// processed yet, oldest first.
	FindPendingScan(ctx context.Context, limit int) ([]models.Upload, error)
	SetScanResult(ctx context.Context, id uint, licenseNumber string) error
	MarkScanFailed(ctx context.Context, id uint, reason string) error
}

type gormUploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &gormUploadRepository{db: db}
}

func (r *gormUploadRepository) Create(ctx context.Context, u *models.Upload) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *gormUploadRepository) FindByStoredName(ctx context.Context, storedName string) (*models.Upload, error) {
	var u models.Upload
	if err := r.db.WithContext(ctx).Where("stored_name = ?", storedName).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormUploadRepository) FindPendingScan(ctx context.Context, limit int) ([]models.Upload, error) {
	var uploads []models.Upload
	err := r.db.WithContext(ctx).
		Where("license_number = '' AND scan_failed = false").
		Order("id asc").Limit(limit).Find(&uploads).Error
	return uploads, err
}

func (r *gormUploadRepository) SetScanResult(ctx context.Context, id uint, licenseNumber string) error {
	return r.db.WithContext(ctx).Model(&models.Upload{}).Where("id = ?", id).
		Updates(map[string]any{"license_number": licenseNumber, "scan_failed": false, "scan_error": ""}).Error
}

func (r *gormUploadRepository) MarkScanFailed(ctx context.Context, id uint, reason string) error {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	return r.db.WithContext(ctx).Model(&models.Upload{}).Where("id = ?", id).
		Updates(map[string]any{"scan_failed": true, "scan_error": reason}).Error
}
